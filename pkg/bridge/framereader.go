// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
	"github.com/Thermoquad/hottoh-bridge/pkg/transport"
)

// readBufferSize bounds a single read as well as a held partial frame
const readBufferSize = 4096

// FrameReader splits the inbound stream on '#'. A trailing segment without
// its newline is held until the next read completes it.
type FrameReader struct {
	buf     []byte
	pending string
}

func NewFrameReader() *FrameReader {
	return &FrameReader{buf: make([]byte, readBufferSize)}
}

// Read performs one non-blocking read and returns the frames it completed.
// When nothing is waiting on the line a held partial frame is released as is.
func (r *FrameReader) Read(conn transport.Conn) ([]string, error) {
	n, err := conn.TryRead(r.buf)
	if transport.IsWouldBlock(err) {
		return r.Flush(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}
	return r.Feed(r.buf[:n]), nil
}

// Feed appends chunk to the held partial frame and returns complete frames
func (r *FrameReader) Feed(chunk []byte) []string {
	frames := hottoh.SplitFrames(r.pending + string(chunk))
	r.pending = ""
	if len(frames) == 0 {
		return nil
	}
	last := frames[len(frames)-1]
	if !strings.HasSuffix(last, string(hottoh.FrameEnd)) && len(last) < readBufferSize {
		r.pending = last
		frames = frames[:len(frames)-1]
	}
	return frames
}

// Flush releases the held partial frame, if any
func (r *FrameReader) Flush() []string {
	if r.pending == "" {
		return nil
	}
	frames := []string{r.pending}
	r.pending = ""
	return frames
}
