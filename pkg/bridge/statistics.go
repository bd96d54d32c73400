// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
)

// Statistics tracks frame and correlation counters. Safe for concurrent use.
type Statistics struct {
	startTime time.Time

	FramesReceived   atomic.Uint64
	FramesDecoded    atomic.Uint64
	FramingErrors    atomic.Uint64
	StructuralErrors atomic.Uint64
	SemanticErrors   atomic.Uint64
	ChecksumFailures atomic.Uint64
	ResponsesApplied atomic.Uint64
	Orphans          atomic.Uint64
	LateResponses    atomic.Uint64
	Timeouts         atomic.Uint64
	RequestsSent     atomic.Uint64
	Reconnects       atomic.Uint64
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

// RecordDecode counts one received frame and the outcome of decoding it
func (s *Statistics) RecordDecode(resp *hottoh.Response, err error) {
	s.FramesReceived.Add(1)
	switch hottoh.Classify(err) {
	case hottoh.ClassNone:
		s.FramesDecoded.Add(1)
		if !resp.ChecksumValid {
			s.ChecksumFailures.Add(1)
		}
	case hottoh.ClassFraming:
		s.FramingErrors.Add(1)
	case hottoh.ClassStructural:
		s.StructuralErrors.Add(1)
	case hottoh.ClassSemantic:
		s.SemanticErrors.Add(1)
	}
}

// StatisticsSnapshot is a point-in-time copy of the counters
type StatisticsSnapshot struct {
	Uptime           time.Duration `json:"-"`
	UptimeSeconds    float64       `json:"uptime_seconds"`
	FramesReceived   uint64        `json:"frames_received"`
	FramesDecoded    uint64        `json:"frames_decoded"`
	FramingErrors    uint64        `json:"framing_errors"`
	StructuralErrors uint64        `json:"structural_errors"`
	SemanticErrors   uint64        `json:"semantic_errors"`
	ChecksumFailures uint64        `json:"checksum_failures"`
	ResponsesApplied uint64        `json:"responses_applied"`
	Orphans          uint64        `json:"orphans"`
	LateResponses    uint64        `json:"late_responses"`
	Timeouts         uint64        `json:"timeouts"`
	RequestsSent     uint64        `json:"requests_sent"`
	Reconnects       uint64        `json:"reconnects"`
	FrameRate        float64       `json:"frame_rate"`
	ErrorRate        float64       `json:"error_rate"`
}

// Snapshot copies the counters and calculates rates
func (s *Statistics) Snapshot() StatisticsSnapshot {
	elapsed := time.Since(s.startTime)
	snap := StatisticsSnapshot{
		Uptime:           elapsed,
		UptimeSeconds:    elapsed.Seconds(),
		FramesReceived:   s.FramesReceived.Load(),
		FramesDecoded:    s.FramesDecoded.Load(),
		FramingErrors:    s.FramingErrors.Load(),
		StructuralErrors: s.StructuralErrors.Load(),
		SemanticErrors:   s.SemanticErrors.Load(),
		ChecksumFailures: s.ChecksumFailures.Load(),
		ResponsesApplied: s.ResponsesApplied.Load(),
		Orphans:          s.Orphans.Load(),
		LateResponses:    s.LateResponses.Load(),
		Timeouts:         s.Timeouts.Load(),
		RequestsSent:     s.RequestsSent.Load(),
		Reconnects:       s.Reconnects.Load(),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		snap.FrameRate = float64(snap.FramesReceived) / secs
		snap.ErrorRate = float64(snap.Errors()) / secs
	}
	return snap
}

// Errors returns the total of decode and checksum errors
func (s StatisticsSnapshot) Errors() uint64 {
	return s.FramingErrors + s.StructuralErrors + s.SemanticErrors + s.ChecksumFailures
}

// String returns a formatted statistics summary
func (s StatisticsSnapshot) String() string {
	percent := func(n uint64) float64 {
		if s.FramesReceived == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.FramesReceived)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", s.Uptime.Seconds())
	fmt.Fprintf(&b, "Frames Received: %8d\n", s.FramesReceived)
	fmt.Fprintf(&b, "Frames Decoded:  %8d (%.1f%%)\n", s.FramesDecoded, percent(s.FramesDecoded))
	if s.ChecksumFailures > 0 {
		fmt.Fprintf(&b, "CRC Errors:      %8d (%.1f%%)\n", s.ChecksumFailures, percent(s.ChecksumFailures))
	}
	if s.FramingErrors > 0 {
		fmt.Fprintf(&b, "Framing Errors:  %8d (%.1f%%)\n", s.FramingErrors, percent(s.FramingErrors))
	}
	if s.StructuralErrors > 0 {
		fmt.Fprintf(&b, "Struct Errors:   %8d (%.1f%%)\n", s.StructuralErrors, percent(s.StructuralErrors))
	}
	if s.SemanticErrors > 0 {
		fmt.Fprintf(&b, "Unknown Cmds:    %8d (%.1f%%)\n", s.SemanticErrors, percent(s.SemanticErrors))
	}
	fmt.Fprintf(&b, "Requests Sent:   %8d\n", s.RequestsSent)
	fmt.Fprintf(&b, "Applied:         %8d\n", s.ResponsesApplied)
	if s.Timeouts > 0 {
		fmt.Fprintf(&b, "Timeouts:        %8d\n", s.Timeouts)
	}
	if s.Orphans > 0 || s.LateResponses > 0 {
		fmt.Fprintf(&b, "Orphans:         %8d (late %d)\n", s.Orphans, s.LateResponses)
	}
	if s.Reconnects > 0 {
		fmt.Fprintf(&b, "Reconnects:      %8d\n", s.Reconnects)
	}
	fmt.Fprintf(&b, "Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	fmt.Fprintf(&b, "Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	b.WriteString("================================\n")
	return b.String()
}
