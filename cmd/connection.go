// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/config"
	"github.com/Thermoquad/hottoh-bridge/pkg/transport"
	"github.com/gorilla/websocket"
	"golang.org/x/term"
)

// OpenStove dials the configured stove link and returns it together with a
// human-readable description.
func OpenStove(ctx context.Context, cfg *config.Config) (transport.Conn, string, error) {
	dialer := cfg.Stove.Dialer()
	conn, err := dialer.Dial(ctx)
	if err != nil {
		return nil, "", err
	}
	return conn, dialer.String(), nil
}

// bridgeClient talks to a running bridge: the state stream over WebSocket and
// write commands over HTTP, both with optional Basic auth.
type bridgeClient struct {
	streamURL string
	baseURL   string
	username  string
	password  string
	tlsConfig *tls.Config
	http      *http.Client
}

// newBridgeClient derives the HTTP base from a ws:// or wss:// stream URL
func newBridgeClient(streamURL, username, password string, skipSSLVerify bool) (*bridgeClient, error) {
	u, err := url.Parse(streamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	base := *u
	switch u.Scheme {
	case "ws":
		base.Scheme = "http"
	case "wss":
		base.Scheme = "https"
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}
	base.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/ws")
	base.RawQuery = ""

	c := &bridgeClient{
		streamURL: streamURL,
		baseURL:   strings.TrimSuffix(base.String(), "/"),
		username:  username,
		password:  password,
	}
	if u.Scheme == "wss" {
		c.tlsConfig = &tls.Config{InsecureSkipVerify: skipSSLVerify}
	}
	c.http = &http.Client{
		Timeout:   10 * time.Second,
		Transport: &http.Transport{TLSClientConfig: c.tlsConfig},
	}
	return c, nil
}

func (c *bridgeClient) authHeader() http.Header {
	headers := http.Header{}
	if c.username != "" && c.password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
		headers.Set("Authorization", "Basic "+credentials)
	}
	return headers
}

// OpenStream connects to the bridge state stream
func (c *bridgeClient) OpenStream(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		TLSClientConfig:  c.tlsConfig,
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, c.streamURL, c.authHeader())
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}
	return conn, nil
}

// Post sends a JSON body to a write endpoint below the API base
func (c *bridgeClient) Post(ctx context.Context, path, body string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = c.authHeader()
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}
