// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package api provides the HTTP control surface of the bridge: state reads,
// write commands and a WebSocket state stream.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/bridge"
	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ContentTypeCBOR selects the CBOR rendering of /api/state
const ContentTypeCBOR = "application/cbor"

// Engine is the part of the bridge engine the API drives
type Engine interface {
	Submit(cmd hottoh.Command, typ hottoh.CommandType, params ...string) (uint32, error)
	ReadState() bridge.State
	Status() bridge.Status
}

// Options configure the server
type Options struct {
	Address        string
	Username       string // empty disables basic auth
	Password       string
	StreamInterval time.Duration
}

// Server is the HTTP API server
type Server struct {
	engine   Engine
	opts     Options
	router   *mux.Router
	server   *http.Server
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewServer creates the API server
func NewServer(engine Engine, opts Options, logger zerolog.Logger) *Server {
	if opts.StreamInterval <= 0 {
		opts.StreamInterval = time.Second
	}
	s := &Server{
		engine: engine,
		opts:   opts,
		router: mux.NewRouter(),
		logger: logger.With().Str("component", "api").Logger(),
		done:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	if s.opts.Username != "" {
		api.Use(s.basicAuth)
	}

	api.HandleFunc("/inf", s.handleInfo).Methods(http.MethodGet)
	api.HandleFunc("/dat/{page:[0-2]}", s.handlePage).Methods(http.MethodGet)
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.handleStream).Methods(http.MethodGet)

	api.HandleFunc("/dat/set_on_off", s.handleSetOnOff).Methods(http.MethodPost)
	api.HandleFunc("/dat/set_eco_mode", s.handleSetEcoMode).Methods(http.MethodPost)
	api.HandleFunc("/dat/set_power_level", s.handleSetPowerLevel).Methods(http.MethodPost)
	api.HandleFunc("/dat/set_ambiance_temp", s.handleSetAmbianceTemp).Methods(http.MethodPost)
	api.HandleFunc("/dat/set_chrono_mode", s.handleSetChronoMode).Methods(http.MethodPost)
	api.HandleFunc("/dat/set_chrono_temp", s.handleSetChronoTemp).Methods(http.MethodPost)
	api.HandleFunc("/dat/set_fan_speed", s.handleSetFanSpeed).Methods(http.MethodPost)
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info().Str("address", s.opts.Address).Msg("Starting HTTP API server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()
	return nil
}

// Stop gracefully shuts down the server and closes open streams
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP API server")
	s.stopOnce.Do(func() { close(s.done) })

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if s.server != nil {
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
	}
	return nil
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.opts.Username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(s.opts.Password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="hottoh-bridge"`)
			s.writeError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeCBOR writes a CBOR response
func (s *Server) writeCBOR(w http.ResponseWriter, data interface{}, statusCode int) {
	body, err := cbor.Marshal(data)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode CBOR response")
		s.writeError(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentTypeCBOR)
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write CBOR response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, map[string]string{"error": message}, statusCode)
}
