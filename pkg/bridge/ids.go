// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"sync"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
)

// IDAllocator hands out request identifiers in [0, hottoh.MaxRequestID)
type IDAllocator struct {
	mu   sync.Mutex
	last uint32
}

// NewIDAllocator creates an allocator whose first id is start+1
func NewIDAllocator(start uint32) *IDAllocator {
	return &IDAllocator{last: start % hottoh.MaxRequestID}
}

// Next increments the counter, wrapping at hottoh.MaxRequestID, and returns it
func (a *IDAllocator) Next() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = (a.last + 1) % hottoh.MaxRequestID
	return a.last
}
