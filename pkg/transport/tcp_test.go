// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen starts a loopback listener and returns the dialer for it along with
// a channel delivering the accepted server side.
func listen(t *testing.T) (*TCPDialer, <-chan net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return NewTCPDialer("127.0.0.1", addr.Port, time.Second), accepted
}

func TestTCPDialer_String(t *testing.T) {
	d := NewTCPDialer("192.168.1.50", 5001, time.Second)
	assert.Equal(t, "TCP: 192.168.1.50:5001", d.String())
}

func TestTCPConn_ReadWouldBlock(t *testing.T) {
	d, accepted := listen(t)
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()
	server := <-accepted
	defer server.Close()

	buf := make([]byte, 64)
	_, err = conn.TryRead(buf)
	assert.True(t, IsWouldBlock(err), "idle read should would-block, got %v", err)

	_, err = server.Write([]byte("#00001A"))
	require.NoError(t, err)

	var got []byte
	require.Eventually(t, func() bool {
		n, err := conn.TryRead(buf)
		if err == nil {
			got = append(got, buf[:n]...)
		}
		return len(got) == 7
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "#00001A", string(got))
}

func TestTCPConn_Write(t *testing.T) {
	d, accepted := listen(t)
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()
	server := <-accepted
	defer server.Close()

	n, err := conn.TryWrite([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	buf := make([]byte, 6)
	require.NoError(t, server.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(buf))
}

func TestTCPConn_PeerClosed(t *testing.T) {
	d, accepted := listen(t)
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()
	server := <-accepted
	server.Close()

	buf := make([]byte, 16)
	require.Eventually(t, func() bool {
		_, err := conn.TryRead(buf)
		return err != nil && !IsWouldBlock(err)
	}, time.Second, 5*time.Millisecond)

	_, err = conn.TryRead(buf)
	assert.True(t, errors.Is(err, io.EOF), "got %v", err)
}

func TestTCPDialer_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = NewTCPDialer("127.0.0.1", port, time.Second).Dial(context.Background())
	assert.Error(t, err)
}

func TestTCPDialer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTCPDialer("127.0.0.1", 1, time.Second).Dial(ctx)
	assert.Error(t, err)
}
