// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Correlator matches responses to requests by id and applies validated
// payloads to the state store.
type Correlator struct {
	queues   *Queues
	state    *StateStore
	stats    *Statistics
	timeout  time.Duration
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewCorrelator creates a correlator
func NewCorrelator(queues *Queues, state *StateStore, stats *Statistics, timing Timing, logger zerolog.Logger) *Correlator {
	timing = timing.withDefaults()
	return &Correlator{
		queues:   queues,
		state:    state,
		stats:    stats,
		timeout:  timing.RequestTimeout,
		interval: timing.CorrelateInterval,
		logger:   logger.With().Str("component", "correlator").Logger(),
		now:      time.Now,
	}
}

// Run correlates on every interval until ctx is done
func (c *Correlator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cycle()
		}
	}
}

// Cycle performs one correlation pass and compacts both queues
func (c *Correlator) Cycle() {
	now := c.now()

	q := c.queues
	q.reqMu.Lock()
	defer q.reqMu.Unlock()
	q.respMu.Lock()
	defer q.respMu.Unlock()

	// Orphans and late responses
	for _, resp := range q.responses {
		if resp.Deleted {
			continue
		}
		req := findRequest(q.requests, resp.ID)
		switch {
		case req == nil:
			resp.Deleted = true
			c.stats.Orphans.Add(1)
			c.logger.Debug().Uint32("id", resp.ID).Str("cmd", resp.Cmd.String()).Msg("discarding orphan response")
		case req.Deleted:
			c.stats.LateResponses.Add(1)
			c.logger.Warn().Uint32("id", resp.ID).Str("cmd", resp.Cmd.String()).Msg("response arrived after its request was dropped")
		}
	}

	for _, req := range q.requests {
		if req.Deleted {
			continue
		}
		if req.Sent && now.Sub(req.SentAt) > c.timeout {
			req.Deleted = true
			c.stats.Timeouts.Add(1)
			c.logger.Warn().
				Uint32("id", req.ID).
				Str("cmd", req.Cmd.String()).
				Strs("params", req.Params).
				Dur("elapsed", now.Sub(req.SentAt)).
				Msg("request timed out")
			continue
		}

		for _, resp := range q.responses {
			if resp.Deleted || resp.ID != req.ID {
				continue
			}
			if resp.ChecksumValid {
				if c.state.Apply(resp.Payload) {
					c.stats.ResponsesApplied.Add(1)
				}
				c.logger.Debug().Uint32("id", req.ID).Str("cmd", resp.Cmd.String()).Msg("response applied")
			} else {
				c.logger.Warn().Uint32("id", req.ID).Str("cmd", resp.Cmd.String()).Msg("checksum mismatch, payload discarded")
			}
			req.Deleted = true
			resp.Deleted = true
			break
		}
	}

	q.compact()
}

func findRequest(requests []*PendingRequest, id uint32) *PendingRequest {
	for _, r := range requests {
		if r.ID == id {
			return r
		}
	}
	return nil
}
