// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"testing"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type correlatorFixture struct {
	queues *Queues
	state  *StateStore
	stats  *Statistics
	c      *Correlator
	clock  time.Time
}

func newCorrelatorFixture() *correlatorFixture {
	f := &correlatorFixture{
		queues: NewQueues(),
		state:  NewStateStore(),
		stats:  NewStatistics(),
		clock:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.c = NewCorrelator(f.queues, f.state, f.stats, DefaultTiming(), zerolog.Nop())
	f.c.now = func() time.Time { return f.clock }
	return f
}

// sent queues a request already transmitted at the fixture clock
func (f *correlatorFixture) sent(t *testing.T, req hottoh.Request) {
	t.Helper()
	f.queues.Enqueue(req)
	require.True(t, f.queues.MarkSent(req.ID, f.clock))
}

func response(id uint32, payload hottoh.Payload, valid bool) *hottoh.Response {
	return &hottoh.Response{
		ID:            id,
		Cmd:           payload.Command(),
		Type:          hottoh.CommandRead,
		Payload:       payload,
		ChecksumValid: valid,
	}
}

func TestCorrelator_AppliesValidResponse(t *testing.T) {
	f := newCorrelatorFixture()
	f.sent(t, hottoh.NewPageRequest(7, 0))
	f.queues.PushResponse(response(7, &hottoh.Page0{AmbientT1: 215}, true))

	f.c.Cycle()

	snap := f.state.Snapshot()
	require.NotNil(t, snap.Page0)
	assert.Equal(t, 21.5, snap.Page0.AmbientT1.Celsius())

	reqs, resps := f.queues.Depths()
	assert.Zero(t, reqs)
	assert.Zero(t, resps)
	assert.Equal(t, uint64(1), f.stats.ResponsesApplied.Load())
}

func TestCorrelator_MatchesUnsentRequest(t *testing.T) {
	f := newCorrelatorFixture()
	f.queues.Enqueue(hottoh.NewInfoRequest(3))
	f.queues.PushResponse(response(3, &hottoh.Info{Hostname: "h"}, true))

	f.c.Cycle()

	require.NotNil(t, f.state.Snapshot().Info)
	reqs, _ := f.queues.Depths()
	assert.Zero(t, reqs)
}

func TestCorrelator_TimeoutEviction(t *testing.T) {
	f := newCorrelatorFixture()
	f.sent(t, hottoh.NewInfoRequest(1))

	f.clock = f.clock.Add(5 * time.Second)
	f.c.Cycle()
	reqs, _ := f.queues.Depths()
	assert.Equal(t, 1, reqs, "exactly the timeout is not yet expired")

	f.clock = f.clock.Add(time.Millisecond)
	f.c.Cycle()
	reqs, _ = f.queues.Depths()
	assert.Zero(t, reqs)
	assert.Equal(t, uint64(1), f.stats.Timeouts.Load())
}

func TestCorrelator_UnsentRequestNeverTimesOut(t *testing.T) {
	f := newCorrelatorFixture()
	f.queues.Enqueue(hottoh.NewInfoRequest(1))

	f.clock = f.clock.Add(time.Hour)
	f.c.Cycle()

	reqs, _ := f.queues.Depths()
	assert.Equal(t, 1, reqs)
}

func TestCorrelator_ChecksumInvalidNotApplied(t *testing.T) {
	f := newCorrelatorFixture()
	f.state.Apply(&hottoh.Page1{Temperature1: 100})
	f.sent(t, hottoh.NewPageRequest(9, 1))
	f.queues.PushResponse(response(9, &hottoh.Page1{Temperature1: 555}, false))

	f.c.Cycle()

	assert.Equal(t, hottoh.Temperature(100), f.state.Snapshot().Page1.Temperature1)
	reqs, resps := f.queues.Depths()
	assert.Zero(t, reqs, "an invalid response still closes its request")
	assert.Zero(t, resps)
	assert.Zero(t, f.stats.ResponsesApplied.Load())
}

func TestCorrelator_OrphanDiscard(t *testing.T) {
	f := newCorrelatorFixture()
	f.sent(t, hottoh.NewInfoRequest(1))
	f.queues.PushResponse(response(77, &hottoh.Info{Hostname: "x"}, true))

	f.c.Cycle()

	assert.Nil(t, f.state.Snapshot().Info)
	reqs, resps := f.queues.Depths()
	assert.Equal(t, 1, reqs)
	assert.Zero(t, resps)
	assert.Equal(t, uint64(1), f.stats.Orphans.Load())
}

func TestCorrelator_LateResponse(t *testing.T) {
	f := newCorrelatorFixture()
	f.sent(t, hottoh.NewInfoRequest(4))
	f.queues.reqMu.Lock()
	f.queues.requests[0].Deleted = true
	f.queues.reqMu.Unlock()
	f.queues.PushResponse(response(4, &hottoh.Info{Hostname: "late"}, true))

	f.c.Cycle()
	assert.Equal(t, uint64(1), f.stats.LateResponses.Load())
	assert.Nil(t, f.state.Snapshot().Info)
	reqs, resps := f.queues.Depths()
	assert.Zero(t, reqs)
	assert.Equal(t, 1, resps, "the late response is left for the next pass")

	f.c.Cycle()
	_, resps = f.queues.Depths()
	assert.Zero(t, resps)
	assert.Equal(t, uint64(1), f.stats.Orphans.Load())
	assert.Nil(t, f.state.Snapshot().Info)
}

func TestCorrelator_AckUpdatesNothing(t *testing.T) {
	f := newCorrelatorFixture()
	f.sent(t, hottoh.NewWriteRequest(5, hottoh.SetOnOff, 1))
	f.queues.PushResponse(response(5, &hottoh.Ack{Value: "1"}, true))

	f.c.Cycle()

	assert.Equal(t, State{}, f.state.Snapshot())
	reqs, resps := f.queues.Depths()
	assert.Zero(t, reqs)
	assert.Zero(t, resps)
}

func TestCorrelator_FirstMatchOnly(t *testing.T) {
	f := newCorrelatorFixture()
	f.sent(t, hottoh.NewInfoRequest(2))
	f.queues.PushResponse(response(2, &hottoh.Info{Hostname: "first"}, true))
	f.queues.PushResponse(response(2, &hottoh.Info{Hostname: "second"}, true))

	f.c.Cycle()
	assert.Equal(t, "first", f.state.Snapshot().Info.Hostname)
	_, resps := f.queues.Depths()
	assert.Equal(t, 1, resps)

	f.c.Cycle()
	_, resps = f.queues.Depths()
	assert.Zero(t, resps)
	assert.Equal(t, "first", f.state.Snapshot().Info.Hostname)
}
