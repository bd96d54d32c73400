// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"net/http"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/bridge"
	"github.com/gorilla/websocket"
)

// StreamMessage is pushed to WebSocket clients on every interval
type StreamMessage struct {
	State  bridge.State  `json:"state"`
	Status bridge.Status `json:"status"`
}

const streamWriteTimeout = 5 * time.Second

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered the client
		s.logger.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.logger.With().Str("client", r.RemoteAddr).Logger()
	log.Info().Msg("stream client connected")

	// Reads only detect the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.opts.StreamInterval)
	defer ticker.Stop()
	for {
		msg := StreamMessage{State: s.engine.ReadState(), Status: s.engine.Status()}
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Msg("stream write failed")
			return
		}

		select {
		case <-closed:
			log.Info().Msg("stream client disconnected")
			return
		case <-s.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}
