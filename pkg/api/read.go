// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	state := s.engine.ReadState()
	if state.Info == nil {
		s.writeError(w, "device info not received yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, state.Info, http.StatusOK)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	state := s.engine.ReadState()

	var page interface{}
	switch mux.Vars(r)["page"] {
	case "0":
		if state.Page0 != nil {
			page = state.Page0
		}
	case "1":
		if state.Page1 != nil {
			page = state.Page1
		}
	case "2":
		if state.Page2 != nil {
			page = state.Page2
		}
	}
	if page == nil {
		s.writeError(w, "data page not received yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, page, http.StatusOK)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := s.engine.ReadState()
	if strings.Contains(r.Header.Get("Accept"), ContentTypeCBOR) {
		s.writeCBOR(w, state, http.StatusOK)
		return
	}
	s.writeJSON(w, state, http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.engine.Status(), http.StatusOK)
}
