// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// RunIsolated runs fn and recovers any panic it raises, logging it with the
// stack. Only the calling goroutine stops.
func RunIsolated(logger zerolog.Logger, name string, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			logger.Error().
				Str("thread", name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("thread panicked, stopping it")
		}
	}()
	fn()
	logger.Info().Str("thread", name).Msg("thread stopped")
	return false
}

// sleepCtx waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
