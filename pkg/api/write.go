// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Thermoquad/hottoh-bridge/pkg/bridge"
	"github.com/Thermoquad/hottoh-bridge/pkg/hottoh"
)

// CommandResponse acknowledges a queued write command
type CommandResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID uint32 `json:"request_id,omitempty"`
}

type boolBody struct {
	Value *bool `json:"value"`
}

type intBody struct {
	Value *int `json:"value"`
}

type tempBody struct {
	Ambiance int      `json:"ambiance"`
	Chrono   int      `json:"chrono"`
	Value    *float64 `json:"value"`
}

type fanBody struct {
	Fan   int  `json:"fan"`
	Value *int `json:"value"`
}

var errMissingValue = errors.New("missing value")

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

// submit queues a write of value to register cmd and answers the caller
func (s *Server) submit(w http.ResponseWriter, cmd hottoh.StoveCommand, value int) {
	id, err := s.engine.Submit(hottoh.CommandData, hottoh.CommandWrite, cmd.WriteParams(value)...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bridge.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		s.writeJSON(w, CommandResponse{Success: false, Message: err.Error()}, status)
		return
	}

	s.logger.Info().Str("register", cmd.String()).Int("value", value).Uint32("id", id).Msg("write command queued")
	s.writeJSON(w, CommandResponse{
		Success:   true,
		Message:   fmt.Sprintf("%s set to %d queued", cmd, value),
		RequestID: id,
	}, http.StatusOK)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, CommandResponse{Success: false, Message: err.Error()}, http.StatusBadRequest)
}

func (s *Server) handleBool(w http.ResponseWriter, r *http.Request, cmd hottoh.StoveCommand) {
	var body boolBody
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, err)
		return
	}
	if body.Value == nil {
		s.badRequest(w, errMissingValue)
		return
	}
	value := 0
	if *body.Value {
		value = 1
	}
	s.submit(w, cmd, value)
}

func (s *Server) handleSetOnOff(w http.ResponseWriter, r *http.Request) {
	s.handleBool(w, r, hottoh.SetOnOff)
}

func (s *Server) handleSetEcoMode(w http.ResponseWriter, r *http.Request) {
	s.handleBool(w, r, hottoh.SetEcoMode)
}

func (s *Server) handleSetChronoMode(w http.ResponseWriter, r *http.Request) {
	s.handleBool(w, r, hottoh.SetChronoOnOff)
}

func (s *Server) handleSetPowerLevel(w http.ResponseWriter, r *http.Request) {
	var body intBody
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, err)
		return
	}
	if body.Value == nil {
		s.badRequest(w, errMissingValue)
		return
	}
	if *body.Value < 0 || *body.Value > 10 {
		s.badRequest(w, fmt.Errorf("power level %d out of range 0-10", *body.Value))
		return
	}
	s.submit(w, hottoh.SetPowerLevel, *body.Value)
}

func (s *Server) handleSetAmbianceTemp(w http.ResponseWriter, r *http.Request) {
	var body tempBody
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, err)
		return
	}

	var cmd hottoh.StoveCommand
	switch body.Ambiance {
	case 1:
		cmd = hottoh.SetAmbianceTemp1
	case 2:
		cmd = hottoh.SetAmbianceTemp2
	default:
		s.badRequest(w, fmt.Errorf("ambiance must be 1 or 2, got %d", body.Ambiance))
		return
	}
	s.handleTemperature(w, cmd, body.Value)
}

func (s *Server) handleSetChronoTemp(w http.ResponseWriter, r *http.Request) {
	var body tempBody
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, err)
		return
	}

	var cmd hottoh.StoveCommand
	switch body.Chrono {
	case 1:
		cmd = hottoh.SetChronoTemp1
	case 2:
		cmd = hottoh.SetChronoTemp2
	case 3:
		cmd = hottoh.SetChronoTemp3
	default:
		s.badRequest(w, fmt.Errorf("chrono must be 1, 2 or 3, got %d", body.Chrono))
		return
	}
	s.handleTemperature(w, cmd, body.Value)
}

// handleTemperature sends degrees as tenths, truncated
func (s *Server) handleTemperature(w http.ResponseWriter, cmd hottoh.StoveCommand, value *float64) {
	if value == nil {
		s.badRequest(w, errMissingValue)
		return
	}
	t, err := hottoh.TemperatureFromCelsius(*value)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.submit(w, cmd, int(t))
}

func (s *Server) handleSetFanSpeed(w http.ResponseWriter, r *http.Request) {
	var body fanBody
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, err)
		return
	}

	var cmd hottoh.StoveCommand
	switch body.Fan {
	case 1:
		cmd = hottoh.SetFanSpeed1
	case 2:
		cmd = hottoh.SetFanSpeed2
	case 3:
		cmd = hottoh.SetFanSpeed3
	default:
		s.badRequest(w, fmt.Errorf("fan must be 1, 2 or 3, got %d", body.Fan))
		return
	}
	if body.Value == nil {
		s.badRequest(w, errMissingValue)
		return
	}
	if *body.Value < 0 || *body.Value > 5 {
		s.badRequest(w, fmt.Errorf("fan speed %d out of range 0-5", *body.Value))
		return
	}
	s.submit(w, cmd, *body.Value)
}
