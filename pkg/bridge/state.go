// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"sync"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
)

// State is the latest validated record of each category. A nil field has
// not been received yet.
type State struct {
	Info  *hottoh.Info  `json:"inf" cbor:"inf"`
	Page0 *hottoh.Page0 `json:"dat0" cbor:"dat0"`
	Page1 *hottoh.Page1 `json:"dat1" cbor:"dat1"`
	Page2 *hottoh.Page2 `json:"dat2" cbor:"dat2"`
}

// StateStore is the shared device-state record
type StateStore struct {
	mu    sync.RWMutex
	state State
}

// NewStateStore creates an empty store
func NewStateStore() *StateStore {
	return &StateStore{}
}

// Apply overwrites the category of p with a copy of it. It reports whether
// anything changed; acknowledgements update nothing.
func (s *StateStore) Apply(p hottoh.Payload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch v := p.(type) {
	case *hottoh.Info:
		s.state.Info = clone(v)
	case *hottoh.Page0:
		s.state.Page0 = clone(v)
	case *hottoh.Page1:
		s.state.Page1 = clone(v)
	case *hottoh.Page2:
		s.state.Page2 = clone(v)
	default:
		return false
	}
	return true
}

// Snapshot returns a deep copy of the current state
func (s *StateStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Info:  clone(s.state.Info),
		Page0: clone(s.state.Page0),
		Page1: clone(s.state.Page1),
		Page2: clone(s.state.Page2),
	}
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
