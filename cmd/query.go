// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/bridge"
	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
	"github.com/Thermoquad/hottoh-bridge/pkg/transport"
	"github.com/spf13/cobra"
)

var (
	queryPage    string
	queryTimeout int
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Read one record from the stove and print it",
	Long: `Send a single read request over a fresh connection and wait for the
matching response.

Pages:
  info - device information (INF)
  0    - main data page
  1    - additional temperature probes
  2    - hydraulic data

Exit codes:
  0 - Response received before timeout
  1 - Timeout reached without a matching response
  2 - Connection error

Useful for testing connectivity to the stove.`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryPage, "page", "info", "Record to read (info, 0, 1, 2)")
	queryCmd.Flags().IntVar(&queryTimeout, "timeout", 10, "Timeout in seconds to wait for a response")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Print the record as JSON")
}

// queryRequest builds the read request for a --page value
func queryRequest(page string, id uint32) (hottoh.Request, error) {
	switch strings.ToLower(page) {
	case "info", "inf":
		return hottoh.NewInfoRequest(id), nil
	case "0":
		return hottoh.NewPageRequest(id, 0), nil
	case "1":
		return hottoh.NewPageRequest(id, 1), nil
	case "2":
		return hottoh.NewPageRequest(id, 2), nil
	}
	return hottoh.Request{}, fmt.Errorf("unknown page %q (use info, 0, 1 or 2)", page)
}

func runQuery(cmd *cobra.Command, args []string) error {
	req, err := queryRequest(queryPage, bridge.NewIDAllocator(0).Next())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	timeout := time.Duration(queryTimeout) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, connInfo, err := OpenStove(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("hottoh-bridge - Query\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Request: %s\n", req)
	fmt.Printf("Timeout: %d seconds\n\n", queryTimeout)

	respChan := make(chan *hottoh.Response, 1)
	errChan := make(chan error, 1)

	go func() {
		if err := writeRequest(ctx, conn, req); err != nil {
			errChan <- err
			return
		}
		r := bridge.NewFrameReader()
		for ctx.Err() == nil {
			frames, err := r.Read(conn)
			if err != nil {
				errChan <- err
				return
			}
			for _, raw := range frames {
				resp, err := hottoh.DecodeResponse(raw)
				if err != nil {
					fmt.Fprintf(os.Stderr, "(skipping frame: %v)\n", err)
					continue
				}
				if resp.ID != req.ID {
					continue
				}
				respChan <- resp
				return
			}
		}
	}()

	select {
	case resp := <-respChan:
		if !resp.ChecksumValid {
			fmt.Fprintf(os.Stderr, "WARNING: checksum mismatch on response %d\n", resp.ID)
		}
		if queryJSON {
			out, err := json.MarshalIndent(resp.Payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		} else {
			fmt.Println(hottoh.FormatResponse(resp))
		}
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)

	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "TIMEOUT: No response to request %d within %d seconds\n", req.ID, queryTimeout)
		os.Exit(1)
	}

	return nil
}

// writeRequest writes a whole frame, retrying while the link would block
func writeRequest(ctx context.Context, conn transport.Conn, req hottoh.Request) error {
	frame := req.Encode()
	for ctx.Err() == nil {
		n, err := conn.TryWrite(frame)
		if transport.IsWouldBlock(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
		if n != len(frame) {
			return fmt.Errorf("short write: %d of %d bytes", n, len(frame))
		}
		return nil
	}
	return ctx.Err()
}
