// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging builds the zerolog root logger
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/config"
	"github.com/rs/zerolog"
)

// FileName is the log file created inside the configured directory
const FileName = "hottoh-bridge.log"

// New creates the root logger for cfg. The returned closer releases the log
// file, if any, and is never nil.
func New(cfg config.LogConfig, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var console io.Writer = stderr
	if cfg.Format != config.FormatJSON {
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: "2006-01-02T15:04:05.000Z07:00"}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if cfg.Directory != "" {
		if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(cfg.Directory, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("failed to open log file: %w", err)
		}
		closer = f
		// The file always gets JSON lines
		out = zerolog.MultiLevelWriter(console, f)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
