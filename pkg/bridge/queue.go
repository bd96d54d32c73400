// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"sync"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
)

// PendingRequest is a request waiting in the outbound queue
type PendingRequest struct {
	hottoh.Request
	Sent    bool
	SentAt  time.Time // set once, on first successful transmission
	Deleted bool
}

// PendingResponse is a decoded frame waiting for correlation
type PendingResponse struct {
	*hottoh.Response
	Deleted bool
}

// Queues holds the request and response FIFOs.
//
// Each queue has its own lock. Whenever both are held the request lock is
// taken first. The ID allocator lock may be taken while holding the request
// lock, never the other way around.
type Queues struct {
	reqMu    sync.Mutex
	requests []*PendingRequest

	respMu    sync.Mutex
	responses []*PendingResponse
}

// NewQueues creates empty queues
func NewQueues() *Queues {
	return &Queues{}
}

// Enqueue appends a request without deduplication
func (q *Queues) Enqueue(req hottoh.Request) {
	q.reqMu.Lock()
	defer q.reqMu.Unlock()
	q.requests = append(q.requests, &PendingRequest{Request: req})
}

// EnsureStanding appends a request equal to tmpl unless a non-deleted request
// with the same command, type and parameters is already queued. The new
// request takes its id from ids. It returns the id and whether a request was
// added.
func (q *Queues) EnsureStanding(tmpl hottoh.Request, ids *IDAllocator) (uint32, bool) {
	q.reqMu.Lock()
	defer q.reqMu.Unlock()

	for _, r := range q.requests {
		if !r.Deleted && r.Same(tmpl) {
			return r.ID, false
		}
	}
	req := hottoh.NewRequest(ids.Next(), tmpl.Cmd, tmpl.Type, tmpl.Params...)
	q.requests = append(q.requests, &PendingRequest{Request: req})
	return req.ID, true
}

// NextToSend returns the front request if it has not been sent yet.
// Deleted entries awaiting compaction are skipped.
func (q *Queues) NextToSend() (hottoh.Request, bool) {
	q.reqMu.Lock()
	defer q.reqMu.Unlock()

	front := q.front()
	if front == nil || front.Sent {
		return hottoh.Request{}, false
	}
	return front.Request, true
}

// MarkSent records the transmission of the front request. It is a no-op if
// the front request changed since NextToSend.
func (q *Queues) MarkSent(id uint32, at time.Time) bool {
	q.reqMu.Lock()
	defer q.reqMu.Unlock()

	front := q.front()
	if front == nil || front.Sent || front.ID != id {
		return false
	}
	front.Sent = true
	front.SentAt = at
	return true
}

func (q *Queues) front() *PendingRequest {
	for _, r := range q.requests {
		if !r.Deleted {
			return r
		}
	}
	return nil
}

// PushResponse appends a decoded response
func (q *Queues) PushResponse(resp *hottoh.Response) {
	q.respMu.Lock()
	defer q.respMu.Unlock()
	q.responses = append(q.responses, &PendingResponse{Response: resp})
}

// Depths returns the number of queued requests and responses
func (q *Queues) Depths() (requests, responses int) {
	q.reqMu.Lock()
	requests = len(q.requests)
	q.respMu.Lock()
	responses = len(q.responses)
	q.respMu.Unlock()
	q.reqMu.Unlock()
	return requests, responses
}

// Requests returns a copy of the request queue
func (q *Queues) Requests() []PendingRequest {
	q.reqMu.Lock()
	defer q.reqMu.Unlock()
	out := make([]PendingRequest, len(q.requests))
	for i, r := range q.requests {
		out[i] = *r
	}
	return out
}

// Responses returns a copy of the response queue
func (q *Queues) Responses() []PendingResponse {
	q.respMu.Lock()
	defer q.respMu.Unlock()
	out := make([]PendingResponse, len(q.responses))
	for i, r := range q.responses {
		out[i] = *r
	}
	return out
}

// compact drops deleted entries. Both locks must be held.
func (q *Queues) compact() {
	q.requests = compactDeleted(q.requests, func(r *PendingRequest) bool { return r.Deleted })
	q.responses = compactDeleted(q.responses, func(r *PendingResponse) bool { return r.Deleted })
}

func compactDeleted[T any](items []T, deleted func(T) bool) []T {
	kept := items[:0]
	for _, it := range items {
		if !deleted(it) {
			kept = append(kept, it)
		}
	}
	clear(items[len(kept):])
	return kept
}
