// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Thermoquad/hottoh-bridge/pkg/api"
	"github.com/Thermoquad/hottoh-bridge/pkg/bridge"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge and its HTTP API",
	Long: `Run the stove bridge.

Connects to the stove, keeps the four standing reads (INF and data pages
0, 1 and 2) in flight, and serves the latest state and write commands over
HTTP. The link is re-established automatically when it drops.

Stops cleanly on SIGINT or SIGTERM and prints the session statistics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialer := cfg.Stove.Dialer()
	logger.Info().Str("stove", dialer.String()).Msg("Starting hottoh-bridge")

	engine := bridge.NewEngine(dialer, cfg.Timing.Bridge(), logger)
	engine.Start(ctx)

	server := api.NewServer(engine, api.Options{
		Address:  cfg.HTTPAPI.ListenAddress(),
		Username: cfg.HTTPAPI.Username,
		Password: cfg.HTTPAPI.Password,
	}, logger)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP API: %w", err)
	}

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	if err := server.Stop(context.Background()); err != nil {
		logger.Error().Err(err).Msg("HTTP API shutdown failed")
	}
	engine.Wait()

	fmt.Fprintln(os.Stderr)
	fmt.Fprint(os.Stderr, engine.Status().Statistics.String())
	return nil
}
