// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
	"github.com/Thermoquad/hottoh-bridge/pkg/transport"
	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

// Connection states
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
)

const (
	eventDial        = "dial"
	eventEstablished = "established"
	eventDrop        = "drop"
)

// ConnManager owns the device link: connect with backoff, one request on the
// wire at a time, periodic reads and reconnect on failure.
type ConnManager struct {
	dialer transport.Dialer
	queues *Queues
	stats  *Statistics
	timing Timing
	logger zerolog.Logger
	now    func() time.Time

	machine *fsm.FSM

	mu      sync.Mutex
	session string
	remote  string
}

// NewConnManager creates a connection manager
func NewConnManager(dialer transport.Dialer, queues *Queues, stats *Statistics, timing Timing, logger zerolog.Logger) *ConnManager {
	m := &ConnManager{
		dialer: dialer,
		queues: queues,
		stats:  stats,
		timing: timing.withDefaults(),
		logger: logger.With().Str("component", "conn").Logger(),
		now:    time.Now,
	}
	m.machine = fsm.NewFSM(
		StateDisconnected,
		fsm.Events{
			{Name: eventDial, Src: []string{StateDisconnected}, Dst: StateConnecting},
			{Name: eventEstablished, Src: []string{StateConnecting}, Dst: StateConnected},
			{Name: eventDrop, Src: []string{StateConnecting, StateConnected}, Dst: StateDisconnected},
		},
		fsm.Callbacks{
			"enter_state": m.onEnterState,
		},
	)
	return m
}

func (m *ConnManager) onEnterState(_ context.Context, e *fsm.Event) {
	ev := m.logger.Info()
	if e.Dst == StateConnecting {
		ev = m.logger.Debug()
	}
	ev.Str("from", e.Src).Str("to", e.Dst).Str("session", m.Session()).Msg("state transition")
}

// State returns the current connection state
func (m *ConnManager) State() string {
	return m.machine.Current()
}

// Session returns the id of the current (or last) connection
func (m *ConnManager) Session() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Remote describes the current (or last) remote end
func (m *ConnManager) Remote() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.remote == "" {
		return m.dialer.String()
	}
	return m.remote
}

func (m *ConnManager) transition(ctx context.Context, event string) {
	// Transitions must complete even while shutting down
	if err := m.machine.Event(context.WithoutCancel(ctx), event); err != nil {
		m.logger.Debug().Err(err).Str("event", event).Msg("transition ignored")
	}
}

// Run connects and serves the link until ctx is done
func (m *ConnManager) Run(ctx context.Context) {
	for ctx.Err() == nil {
		m.transition(ctx, eventDial)
		conn, err := m.dialer.Dial(ctx)
		if err != nil {
			m.transition(ctx, eventDrop)
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn().Err(err).Str("remote", m.dialer.String()).
				Dur("retry_in", m.timing.ReconnectDelay).Msg("connection failed")
			if !sleepCtx(ctx, m.timing.ReconnectDelay) {
				return
			}
			continue
		}

		m.mu.Lock()
		m.session = uuid.NewString()
		m.remote = conn.Describe()
		m.mu.Unlock()
		m.transition(ctx, eventEstablished)

		err = m.serve(ctx, conn)
		conn.Close()
		m.transition(ctx, eventDrop)
		if ctx.Err() != nil {
			return
		}

		m.stats.Reconnects.Add(1)
		m.logger.Warn().Err(err).Str("session", m.Session()).
			Dur("retry_in", m.timing.ReconnectDelay).Msg("connection lost")
		if !sleepCtx(ctx, m.timing.ReconnectDelay) {
			return
		}
	}
}

// serve drives an established link. It returns on a hard I/O error or when
// ctx is done.
func (m *ConnManager) serve(ctx context.Context, conn transport.Conn) error {
	sendTicker := time.NewTicker(m.timing.SendInterval)
	defer sendTicker.Stop()
	readTicker := time.NewTicker(m.timing.ReadInterval)
	defer readTicker.Stop()

	r := NewFrameReader()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sendTicker.C:
			if err := m.sendFront(conn); err != nil {
				return err
			}
		case <-readTicker.C:
			if err := m.readFrames(conn, r); err != nil {
				return err
			}
		}
	}
}

// sendFront writes the front request if it has not been sent yet
func (m *ConnManager) sendFront(conn transport.Conn) error {
	req, ok := m.queues.NextToSend()
	if !ok {
		return nil
	}

	frame := req.Encode()
	n, err := conn.TryWrite(frame)
	if transport.IsWouldBlock(err) {
		m.logger.Debug().Uint32("id", req.ID).Msg("write would block, retrying next cycle")
		return nil
	}
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(frame))
	}

	m.queues.MarkSent(req.ID, m.now())
	m.stats.RequestsSent.Add(1)
	m.logger.Debug().Uint32("id", req.ID).Str("frame", strings.TrimSpace(string(frame))).Msg("request sent")
	return nil
}

// readFrames performs one read and queues every frame it completes
func (m *ConnManager) readFrames(conn transport.Conn, r *FrameReader) error {
	frames, err := r.Read(conn)
	m.decodeFrames(frames)
	return err
}

func (m *ConnManager) decodeFrames(frames []string) {
	for _, raw := range frames {
		resp, err := hottoh.DecodeResponse(raw)
		m.stats.RecordDecode(resp, err)
		if err != nil {
			m.logger.Error().Err(err).Str("class", hottoh.Classify(err).String()).
				Str("frame", strings.TrimSpace(raw)).Msg("dropping undecodable frame")
			continue
		}
		if !resp.ChecksumValid {
			m.logger.Warn().Uint32("id", resp.ID).Str("frame", strings.TrimSpace(raw)).Msg("checksum mismatch")
		}
		m.logger.Debug().Uint32("id", resp.ID).Str("cmd", resp.Cmd.String()).Msg("response received")
		m.queues.PushResponse(resp)
	}
}
