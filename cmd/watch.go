// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/api"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const watchReconnectDelay = 2 * time.Second

var (
	watchURL         string
	watchUsername    string
	watchNoSSLVerify bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive TUI for a running bridge",
	Long: `Watch and control a stove through a running bridge.

Connects to the bridge state stream and renders the latest stove data,
bridge status and statistics. The stream is re-opened automatically when
it drops.

Keys:
  o      toggle stove on/off
  e      toggle eco mode
  + / -  raise or lower the power level
  q      quit

For Basic auth the password is read from the HOTTOH_PASSWORD environment
variable, or prompted interactively if not set.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchURL, "url", "u", "ws://localhost:3000/api/ws", "Bridge stream URL (ws:// or wss://)")
	watchCmd.Flags().StringVar(&watchUsername, "username", "", "Username for HTTP Basic auth")
	watchCmd.Flags().BoolVar(&watchNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// streamManager keeps the stream open and forwards messages to the TUI
type streamManager struct {
	client *bridgeClient
	p      *tea.Program

	mu   sync.Mutex
	conn *websocket.Conn
}

func (sm *streamManager) setConn(conn *websocket.Conn) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.conn = conn
}

func (sm *streamManager) close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.conn != nil {
		sm.conn.Close()
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	password := ""
	if watchUsername != "" {
		var err error
		password, err = GetPassword()
		if err != nil {
			return err
		}
	}

	client, err := newBridgeClient(watchURL, watchUsername, password, watchNoSSLVerify)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sm := &streamManager{client: client}
	m := initialWatchModel(client, watchURL)
	p := tea.NewProgram(m, tea.WithAltScreen())
	sm.p = p

	go sm.readerLoop(ctx)

	_, err = p.Run()
	cancel()
	sm.close()
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// readerLoop reads stream messages, reconnecting after a delay on failure
func (sm *streamManager) readerLoop(ctx context.Context) {
	for ctx.Err() == nil {
		conn, err := sm.client.OpenStream(ctx)
		if err != nil {
			sm.p.Send(streamLostMsg{err: err})
			if !sleepOrDone(ctx, watchReconnectDelay) {
				return
			}
			continue
		}
		sm.setConn(conn)
		sm.p.Send(streamOpenMsg{})

		err = sm.readStream(conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		sm.p.Send(streamLostMsg{err: err})
		if !sleepOrDone(ctx, watchReconnectDelay) {
			return
		}
	}
}

func (sm *streamManager) readStream(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg api.StreamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sm.p.Send(eventMsg{text: fmt.Sprintf("bad stream message: %v", err), isError: true})
			continue
		}
		sm.p.Send(stateMsg{msg: msg})
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// postCommand sends a write command and reports the outcome to the TUI
func postCommand(client *bridgeClient, path string, body string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.Post(ctx, path, body)
		if err != nil {
			return eventMsg{text: fmt.Sprintf("%s failed: %v", path, err), isError: true}
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		var result api.CommandResponse
		if err := json.Unmarshal(data, &result); err != nil {
			return eventMsg{text: fmt.Sprintf("%s: HTTP %d", path, resp.StatusCode), isError: true}
		}
		if resp.StatusCode != http.StatusOK || !result.Success {
			reason := result.Message
			if reason == "" {
				reason = http.StatusText(resp.StatusCode)
			}
			return eventMsg{text: fmt.Sprintf("%s rejected: %s", path, reason), isError: true}
		}
		return eventMsg{text: fmt.Sprintf("%s queued as request %d", path, result.RequestID)}
	}
}
