// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/Thermoquad/hottoh-bridge/pkg/config"
	"github.com/Thermoquad/hottoh-bridge/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// PasswordEnv overrides http_api.password and supplies the watch password
const PasswordEnv = "HOTTOH_PASSWORD"

var (
	configPath string

	// Stove link flags
	stoveHost  string
	stovePort  int
	serialPort string
	baudRate   int

	// API and logging flags
	listenAddr string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "hottoh-bridge",
	Short: "HottoH pellet stove bridge",
	Long: `hottoh-bridge - A bridge between HottoH pellet stoves and HTTP clients.

Keeps a persistent link to the stove controller, polls its information and
data pages, and exposes the latest state and write commands over HTTP.

Stove link:
  TCP:    --stove 192.168.1.50 [--port 5001]
  Serial: --serial /dev/ttyUSB0 [--baud 115200]

Settings are read from hottoh-bridge.yaml when present (see --config).
Flags override the file. The API password is read from the HOTTOH_PASSWORD
environment variable when set.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file")

	rootCmd.PersistentFlags().StringVarP(&stoveHost, "stove", "s", "", "Stove address (TCP)")
	rootCmd.PersistentFlags().IntVarP(&stovePort, "port", "p", 0, "Stove TCP port")
	rootCmd.PersistentFlags().StringVar(&serialPort, "serial", "", "Serial device instead of TCP")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 0, "Baud rate (serial only)")

	rootCmd.PersistentFlags().StringVarP(&listenAddr, "listen", "l", "", "HTTP API listen address (host:port)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration file and applies flag overrides. A
// missing file is only an error when --config was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if cmd.Flags().Changed("config") || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &config.Config{}
	}

	if stoveHost != "" {
		cfg.Stove.Transport = config.TransportTCP
		cfg.Stove.Address = stoveHost
	}
	if stovePort != 0 {
		cfg.Stove.Port = stovePort
	}
	if serialPort != "" {
		cfg.Stove.Transport = config.TransportSerial
		cfg.Stove.SerialPort = serialPort
	}
	if baudRate != 0 {
		cfg.Stove.Baud = baudRate
	}
	if listenAddr != "" {
		host, port, err := net.SplitHostPort(listenAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid --listen %q: %w", listenAddr, err)
		}
		n, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid --listen port %q", port)
		}
		cfg.HTTPAPI.Address = host
		cfg.HTTPAPI.Port = n
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if pw := os.Getenv(PasswordEnv); pw != "" {
		cfg.HTTPAPI.Password = pw
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Output goes to stderr so command
// output on stdout stays clean.
func newLogger(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	return logging.New(cfg.Log, os.Stderr)
}
