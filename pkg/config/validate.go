// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	switch cfg.Stove.Transport {
	case TransportTCP:
		if cfg.Stove.Address == "" {
			return fmt.Errorf("stove: address is required for tcp transport")
		}
		if err := validPort("stove", cfg.Stove.Port); err != nil {
			return err
		}
	case TransportSerial:
		if cfg.Stove.SerialPort == "" {
			return fmt.Errorf("stove: serial_port is required for serial transport")
		}
		if cfg.Stove.Baud <= 0 {
			return fmt.Errorf("stove: baud must be positive, got %d", cfg.Stove.Baud)
		}
	default:
		return fmt.Errorf("stove: unknown transport %q (use tcp or serial)", cfg.Stove.Transport)
	}
	if cfg.Stove.ConnectTimeoutMs < 0 {
		return fmt.Errorf("stove: connect_timeout_ms must not be negative")
	}

	if err := validPort("http_api", cfg.HTTPAPI.Port); err != nil {
		return err
	}
	if cfg.HTTPAPI.Username != "" && cfg.HTTPAPI.Password == "" {
		return fmt.Errorf("http_api: password is required when username is set")
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log: invalid level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("log: unknown format %q (use console or json)", cfg.Log.Format)
	}

	t := cfg.Timing
	for name, v := range map[string]int{
		"send_interval_ms":      t.SendIntervalMs,
		"read_interval_ms":      t.ReadIntervalMs,
		"reconnect_delay_ms":    t.ReconnectDelayMs,
		"correlate_interval_ms": t.CorrelateIntervalMs,
		"poll_interval_ms":      t.PollIntervalMs,
		"request_timeout_ms":    t.RequestTimeoutMs,
	} {
		if v < 0 {
			return fmt.Errorf("timing: %s must not be negative, got %d", name, v)
		}
	}
	if t.RequestTimeoutMs > 0 && t.SendIntervalMs > 0 && t.RequestTimeoutMs <= t.SendIntervalMs {
		return fmt.Errorf("timing: request_timeout_ms (%d) must exceed send_interval_ms (%d)",
			t.RequestTimeoutMs, t.SendIntervalMs)
	}

	return nil
}

func validPort(section string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s: port %d out of range", section, port)
	}
	return nil
}
