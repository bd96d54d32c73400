// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// TCPDialer connects to a stove controller over TCP
type TCPDialer struct {
	Address        string // host:port
	ConnectTimeout time.Duration
	PollWindow     time.Duration
}

// NewTCPDialer creates a dialer for host and port
func NewTCPDialer(host string, port int, connectTimeout time.Duration) *TCPDialer {
	return &TCPDialer{
		Address:        net.JoinHostPort(host, fmt.Sprint(port)),
		ConnectTimeout: connectTimeout,
		PollWindow:     DefaultPollWindow,
	}
}

// Dial opens the TCP connection
func (d *TCPDialer) Dial(ctx context.Context) (Conn, error) {
	if d.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.ConnectTimeout)
		defer cancel()
	}

	var nd net.Dialer
	c, err := nd.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.Address, err)
	}

	window := d.PollWindow
	if window <= 0 {
		window = DefaultPollWindow
	}
	return &TCPConn{conn: c, window: window}, nil
}

func (d *TCPDialer) String() string {
	return "TCP: " + d.Address
}

// TCPConn is a TCP link driven through short I/O deadlines
type TCPConn struct {
	conn   net.Conn
	window time.Duration
}

// NewTCPConn wraps an established connection
func NewTCPConn(c net.Conn, window time.Duration) *TCPConn {
	return &TCPConn{conn: c, window: window}
}

// TryRead implements Conn. A closed peer surfaces as io.EOF.
func (t *TCPConn) TryRead(p []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.window)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if n > 0 {
		return n, nil
	}
	if isTimeout(err) {
		return 0, ErrWouldBlock
	}
	return 0, err
}

// TryWrite implements Conn. A write that times out after a partial transfer
// is reported as a hard error since the frame on the wire is now truncated.
func (t *TCPConn) TryWrite(p []byte) (int, error) {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.window)); err != nil {
		return 0, err
	}
	n, err := t.conn.Write(p)
	if err != nil && n == 0 && isTimeout(err) {
		return 0, ErrWouldBlock
	}
	return n, err
}

// Describe implements Conn
func (t *TCPConn) Describe() string {
	return "TCP: " + t.conn.RemoteAddr().String()
}

// Close implements Conn
func (t *TCPConn) Close() error {
	return t.conn.Close()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
