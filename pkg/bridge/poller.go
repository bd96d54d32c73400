// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"context"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
	"github.com/rs/zerolog"
)

// StandingRequests returns the read requests kept permanently queued: device
// info and the three data pages. Their ids are placeholders.
func StandingRequests() []hottoh.Request {
	return []hottoh.Request{
		hottoh.NewInfoRequest(0),
		hottoh.NewPageRequest(0, 0),
		hottoh.NewPageRequest(0, 1),
		hottoh.NewPageRequest(0, 2),
	}
}

// Poller keeps the standing requests queued
type Poller struct {
	queues   *Queues
	ids      *IDAllocator
	standing []hottoh.Request
	interval time.Duration
	logger   zerolog.Logger
}

// NewPoller creates a poller for the standing requests
func NewPoller(queues *Queues, ids *IDAllocator, timing Timing, logger zerolog.Logger) *Poller {
	return &Poller{
		queues:   queues,
		ids:      ids,
		standing: StandingRequests(),
		interval: timing.withDefaults().PollInterval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
}

// Run tops up the standing requests every interval until ctx is done
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		p.Ensure()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Ensure enqueues every standing request that is missing and returns how many
// were added
func (p *Poller) Ensure() int {
	added := 0
	for _, tmpl := range p.standing {
		if id, ok := p.queues.EnsureStanding(tmpl, p.ids); ok {
			added++
			p.logger.Debug().Uint32("id", id).Str("cmd", tmpl.Cmd.String()).Strs("params", tmpl.Params).Msg("standing request queued")
		}
	}
	return added
}
