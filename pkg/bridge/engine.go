// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package bridge runs the device-communication engine: the request and
// response queues, the shared device state, and the three loops that drive
// them (connection manager, correlator and poller).
package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
	"github.com/Thermoquad/hottoh-bridge/pkg/transport"
	"github.com/rs/zerolog"
)

// ErrStopped is returned by Submit when the engine is not running
var ErrStopped = errors.New("engine not running")

// Engine wires the queues, state store and loops together
type Engine struct {
	queues *Queues
	state  *StateStore
	ids    *IDAllocator
	stats  *Statistics

	conn       *ConnManager
	correlator *Correlator
	poller     *Poller

	logger  zerolog.Logger
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewEngine creates an engine talking to the device through dialer
func NewEngine(dialer transport.Dialer, timing Timing, logger zerolog.Logger) *Engine {
	queues := NewQueues()
	state := NewStateStore()
	stats := NewStatistics()
	ids := NewIDAllocator(0)

	return &Engine{
		queues:     queues,
		state:      state,
		ids:        ids,
		stats:      stats,
		conn:       NewConnManager(dialer, queues, stats, timing, logger),
		correlator: NewCorrelator(queues, state, stats, timing, logger),
		poller:     NewPoller(queues, ids, timing, logger),
		logger:     logger.With().Str("component", "engine").Logger(),
	}
}

// Start launches the loops. They stop when ctx is done; use Wait to join them.
func (e *Engine) Start(ctx context.Context) {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	e.logger.Info().Str("remote", e.conn.Remote()).Msg("starting engine")

	loops := []struct {
		name string
		run  func(context.Context)
	}{
		{"conn", e.conn.Run},
		{"correlator", e.correlator.Run},
		{"poller", e.poller.Run},
	}

	var live atomic.Int32
	live.Store(int32(len(loops)))
	for _, l := range loops {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			RunIsolated(e.logger, l.name, func() { l.run(ctx) })
			if live.Add(-1) == 0 {
				e.running.Store(false)
			}
		}()
	}
}

// Wait blocks until every loop has returned
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Running reports whether the engine loops are active
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Submit queues a request with a freshly allocated id and returns the id.
// Submitted requests are not deduplicated and are not retried on timeout.
func (e *Engine) Submit(cmd hottoh.Command, typ hottoh.CommandType, params ...string) (uint32, error) {
	if !e.Running() {
		return 0, ErrStopped
	}
	id := e.ids.Next()
	req := hottoh.NewRequest(id, cmd, typ, params...)
	e.queues.Enqueue(req)
	e.logger.Info().Uint32("id", id).Str("request", req.String()).Msg("request submitted")
	return id, nil
}

// SubmitWrite queues a DAT write of value to register cmd
func (e *Engine) SubmitWrite(cmd hottoh.StoveCommand, value int) (uint32, error) {
	return e.Submit(hottoh.CommandData, hottoh.CommandWrite, cmd.WriteParams(value)...)
}

// ReadState returns a copy of the device state
func (e *Engine) ReadState() State {
	return e.state.Snapshot()
}

// Status describes the engine for monitoring
type Status struct {
	Running          bool               `json:"running"`
	Connection       string             `json:"connection"`
	Session          string             `json:"session,omitempty"`
	Remote           string             `json:"remote"`
	PendingRequests  int                `json:"pending_requests"`
	PendingResponses int                `json:"pending_responses"`
	Statistics       StatisticsSnapshot `json:"statistics"`
	Time             time.Time          `json:"time"`
}

// Status returns the current engine status
func (e *Engine) Status() Status {
	reqs, resps := e.queues.Depths()
	return Status{
		Running:          e.Running(),
		Connection:       e.conn.State(),
		Session:          e.conn.Session(),
		Remote:           e.conn.Remote(),
		PendingRequests:  reqs,
		PendingResponses: resps,
		Statistics:       e.stats.Snapshot(),
		Time:             time.Now(),
	}
}
