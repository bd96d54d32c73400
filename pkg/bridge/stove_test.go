// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
	"github.com/Thermoquad/hottoh-bridge/pkg/transport"
	"github.com/stretchr/testify/require"
)

// fakeStove is a loopback TCP controller answering reads and writes
type fakeStove struct {
	t  *testing.T
	ln net.Listener

	// dropFirst closes the first accepted connection right away
	dropFirst bool

	mu       sync.Mutex
	accepts  int
	received []*hottoh.Frame
}

func newFakeStove(t *testing.T) *fakeStove {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeStove{t: t, ln: ln}
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeStove) start() {
	go s.acceptLoop()
}

func (s *fakeStove) dialer() transport.Dialer {
	port := s.ln.Addr().(*net.TCPAddr).Port
	return transport.NewTCPDialer("127.0.0.1", port, time.Second)
}

func (s *fakeStove) acceptLoop() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepts++
		first := s.accepts == 1
		s.mu.Unlock()

		if first && s.dropFirst {
			c.Close()
			continue
		}
		go s.serve(c)
	}
}

func (s *fakeStove) serve(c net.Conn) {
	defer c.Close()
	r := bufio.NewReader(c)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		f, err := hottoh.ParseFrame(line)
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.received = append(s.received, f)
		s.mu.Unlock()

		if _, err := c.Write(stoveReply(f)); err != nil {
			return
		}
	}
}

func (s *fakeStove) frames() []*hottoh.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*hottoh.Frame(nil), s.received...)
}

func zeros(n int) []string {
	params := make([]string, n)
	for i := range params {
		params[i] = "0"
	}
	return params
}

// stoveReply builds the controller's answer to a request frame
func stoveReply(f *hottoh.Frame) []byte {
	if f.Cmd == hottoh.CommandInfo {
		return hottoh.EncodeFrame(f.ID, 'A', hottoh.CommandInfo, hottoh.CommandRead,
			[]string{"hottoh-test", "1.0", "-50"})
	}
	if f.Type == hottoh.CommandWrite {
		return hottoh.EncodeFrame(f.ID, 'A', hottoh.CommandData, hottoh.CommandWrite, []string{"1"})
	}

	var params []string
	switch strings.Join(f.Params, ";") {
	case "0":
		params = zeros(36)
		params[9] = "215"
	case "1":
		params = zeros(11)
		params[0] = "1"
	default:
		params = zeros(22)
		params[0] = "2"
	}
	return hottoh.EncodeFrame(f.ID, 'A', hottoh.CommandData, hottoh.CommandRead, params)
}
