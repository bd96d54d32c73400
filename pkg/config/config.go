// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the bridge configuration from YAML
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/bridge"
	"github.com/Thermoquad/hottoh-bridge/pkg/transport"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given
const DefaultPath = "hottoh-bridge.yaml"

// Transport kinds
const (
	TransportTCP    = "tcp"
	TransportSerial = "serial"
)

// Log formats
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Stove   StoveConfig   `yaml:"stove"`
	HTTPAPI HTTPAPIConfig `yaml:"http_api"`
	Log     LogConfig     `yaml:"log"`
	Timing  TimingConfig  `yaml:"timing"`
}

// ---- STOVE ----

type StoveConfig struct {
	Address          string `yaml:"address"`
	Port             int    `yaml:"port"`
	Transport        string `yaml:"transport"` // tcp | serial
	SerialPort       string `yaml:"serial_port"`
	Baud             int    `yaml:"baud"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"`
}

// ---- HTTP API ----

type HTTPAPIConfig struct {
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"` // empty disables basic auth
	Password string `yaml:"password"`
}

// ---- LOG ----

type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`    // console | json
	Directory string `yaml:"directory"` // empty = no log file
}

// ---- TIMING ----

// TimingConfig overrides engine cadences. Zero keeps the default.
type TimingConfig struct {
	SendIntervalMs      int `yaml:"send_interval_ms"`
	ReadIntervalMs      int `yaml:"read_interval_ms"`
	ReconnectDelayMs    int `yaml:"reconnect_delay_ms"`
	CorrelateIntervalMs int `yaml:"correlate_interval_ms"`
	PollIntervalMs      int `yaml:"poll_interval_ms"`
	RequestTimeoutMs    int `yaml:"request_timeout_ms"`
}

// Load reads and parses a YAML file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields
func ApplyDefaults(cfg *Config) {
	if cfg.Stove.Transport == "" {
		cfg.Stove.Transport = TransportTCP
	}
	if cfg.Stove.Port == 0 {
		cfg.Stove.Port = 5001
	}
	if cfg.Stove.Baud == 0 {
		cfg.Stove.Baud = 115200
	}
	if cfg.Stove.ConnectTimeoutMs == 0 {
		cfg.Stove.ConnectTimeoutMs = 3000
	}
	if cfg.HTTPAPI.Address == "" {
		cfg.HTTPAPI.Address = "0.0.0.0"
	}
	if cfg.HTTPAPI.Port == 0 {
		cfg.HTTPAPI.Port = 3000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = FormatConsole
	}
}

// ListenAddress returns the host:port of the HTTP API
func (c HTTPAPIConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// Dialer builds the transport for the configured stove link
func (c StoveConfig) Dialer() transport.Dialer {
	if c.Transport == TransportSerial {
		return transport.NewSerialDialer(c.SerialPort, c.Baud)
	}
	return transport.NewTCPDialer(c.Address, c.Port, ms(c.ConnectTimeoutMs))
}

// Bridge converts the overrides into engine timing
func (t TimingConfig) Bridge() bridge.Timing {
	return bridge.Timing{
		SendInterval:      ms(t.SendIntervalMs),
		ReadInterval:      ms(t.ReadIntervalMs),
		ReconnectDelay:    ms(t.ReconnectDelayMs),
		CorrelateInterval: ms(t.CorrelateIntervalMs),
		PollInterval:      ms(t.PollIntervalMs),
		RequestTimeout:    ms(t.RequestTimeoutMs),
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
