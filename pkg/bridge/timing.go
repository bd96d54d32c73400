// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import "time"

// Timing holds the cadences of the engine loops
type Timing struct {
	SendInterval      time.Duration
	ReadInterval      time.Duration
	ReconnectDelay    time.Duration
	CorrelateInterval time.Duration
	PollInterval      time.Duration
	RequestTimeout    time.Duration
}

// DefaultTiming returns the cadences the stove controller expects
func DefaultTiming() Timing {
	return Timing{
		SendInterval:      time.Second,
		ReadInterval:      200 * time.Millisecond,
		ReconnectDelay:    5 * time.Second,
		CorrelateInterval: 200 * time.Millisecond,
		PollInterval:      time.Second,
		RequestTimeout:    5 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultTiming
func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.SendInterval <= 0 {
		t.SendInterval = d.SendInterval
	}
	if t.ReadInterval <= 0 {
		t.ReadInterval = d.ReadInterval
	}
	if t.ReconnectDelay <= 0 {
		t.ReconnectDelay = d.ReconnectDelay
	}
	if t.CorrelateInterval <= 0 {
		t.CorrelateInterval = d.CorrelateInterval
	}
	if t.PollInterval <= 0 {
		t.PollInterval = d.PollInterval
	}
	if t.RequestTimeout <= 0 {
		t.RequestTimeout = d.RequestTimeout
	}
	return t
}
