// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/bridge"
	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
	"github.com/spf13/cobra"
)

var rawLogInterval int

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display the stove traffic in human-readable format",
	Long: `Cycle the standing reads (INF and data pages 0, 1 and 2) and display
every frame the stove returns as it arrives.

Frames that fail to decode are shown with the reason. Statistics are printed
on exit (Ctrl+C).`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().IntVar(&rawLogInterval, "interval", 1000, "Milliseconds between requests")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, connInfo, err := OpenStove(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("hottoh-bridge - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := bridge.NewStatistics()
	ids := bridge.NewIDAllocator(0)
	standing := bridge.StandingRequests()
	reader := bridge.NewFrameReader()

	sendTicker := time.NewTicker(time.Duration(rawLogInterval) * time.Millisecond)
	defer sendTicker.Stop()

	next := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			fmt.Print(stats.Snapshot().String())
			return nil
		case <-sendTicker.C:
			tmpl := standing[next%len(standing)]
			next++
			req := hottoh.NewRequest(ids.Next(), tmpl.Cmd, tmpl.Type, tmpl.Params...)
			if err := writeRequest(ctx, conn, req); err != nil {
				if ctx.Err() != nil {
					continue
				}
				return err
			}
			stats.RequestsSent.Add(1)
			fmt.Printf("[%s] >> %s\n", time.Now().Format("15:04:05.000"), req)
		default:
		}

		frames, err := reader.Read(conn)
		if err != nil {
			fmt.Print(stats.Snapshot().String())
			return err
		}
		for _, raw := range frames {
			printFrame(stats, raw)
		}
	}
}

// printFrame decodes one frame and prints it, valid or not
func printFrame(stats *bridge.Statistics, raw string) {
	resp, err := hottoh.DecodeResponse(raw)
	stats.RecordDecode(resp, err)
	if err == nil {
		fmt.Print(hottoh.FormatResponse(resp))
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] [ERROR] %s: %v\n", timestamp, hottoh.Classify(err), err)
	if f, perr := hottoh.ParseFrame(raw); perr == nil {
		fmt.Print("  " + hottoh.FormatFrame(f))
	} else {
		fmt.Printf("  raw: %q\n", strings.TrimRight(raw, "\r\n"))
	}
}
