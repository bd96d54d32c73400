// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport provides the byte-level links to a stove controller.
//
// Every link is exposed through the non-blocking Conn interface: reads and
// writes return ErrWouldBlock instead of stalling, so the caller can re-check
// its shutdown context between attempts.
package transport

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrWouldBlock is returned when an operation could not make progress
// without blocking. It is not a connection failure.
var ErrWouldBlock = errors.New("operation would block")

// DefaultPollWindow bounds how long a single TryRead or TryWrite may wait
const DefaultPollWindow = 10 * time.Millisecond

// Conn is an open link to the device
type Conn interface {
	io.Closer

	// TryRead reads whatever is available. It returns ErrWouldBlock when no
	// bytes arrived within the poll window.
	TryRead(p []byte) (int, error)

	// TryWrite writes p. It returns ErrWouldBlock when nothing could be
	// written within the poll window.
	TryWrite(p []byte) (int, error)

	// Describe returns a human-readable description of the remote end
	Describe() string
}

// Dialer opens device links
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
	String() string
}

// IsWouldBlock reports whether err is a would-block result
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}
