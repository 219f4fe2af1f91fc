// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	coreplanx "github.com/kron12345/coreplanx"
	"github.com/kron12345/coreplanx/model"
	"github.com/kron12345/coreplanx/pkg/logging"
)

// server wires the public Autopilot API to a small debug HTTP surface: a
// caller posts a stage, variant id, and an activity list, and gets back the
// same Result/[]*model.Activity the library itself returns, with no
// transport of its own opinion layered on top.
type server struct {
	ap       *coreplanx.Autopilot
	logger   logging.Logger
	upgrader websocket.Upgrader
}

func newServer(ap *coreplanx.Autopilot, logger logging.Logger) *server {
	return &server{
		ap:     ap,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/apply", s.handleApply).Methods(http.MethodPost)
	r.HandleFunc("/compliance", s.handleCompliance).Methods(http.MethodPost)
	r.HandleFunc("/watch", s.handleWatch).Methods(http.MethodGet)
	return r
}

// applyRequest is the JSON body shared by /apply and /compliance.
type applyRequest struct {
	StageID    string            `json:"stageId"`
	VariantID  string            `json:"variantId"`
	Activities []*model.Activity `json:"activities"`
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "duty-autopilot"})
}

func (s *server) handleApply(w http.ResponseWriter, r *http.Request) {
	req, stageID, ok := s.decodeApplyRequest(w, r)
	if !ok {
		return
	}

	result, err := s.ap.Apply(r.Context(), stageID, req.VariantID, req.Activities)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	req, stageID, ok := s.decodeApplyRequest(w, r)
	if !ok {
		return
	}

	annotated, err := s.ap.ApplyWorktimeCompliance(r.Context(), stageID, req.VariantID, req.Activities)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, annotated)
}

// handleWatch upgrades to a WebSocket, then answers every applyRequest the
// client sends by running Apply and sending the Result (or an error message)
// back, while pinging on an interval until the client disconnects. There is no polling loop behind it: the autopilot core is a
// pure function over its input, not a subscription source, so "watching"
// here means "hold the connection open for a rerun".
func (s *server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.readLoop(ctx, cancel, conn)
	s.keepAlive(ctx, conn)
}

func (s *server) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	for {
		var req applyRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		stageID, ok := model.ParseStage(req.StageID)
		if !ok {
			s.sendWatchError(conn, "unknown stageId: "+req.StageID)
			continue
		}

		result, err := s.ap.Apply(ctx, stageID, req.VariantID, req.Activities)
		if err != nil {
			s.sendWatchError(conn, err.Error())
			continue
		}
		if err := conn.WriteJSON(result); err != nil {
			s.logger.Warn("websocket write error", "error", err)
			return
		}
	}
}

func (s *server) sendWatchError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(map[string]string{"type": "error", "error": message})
}

func (s *server) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Warn("websocket ping error", "error", err)
				return
			}
		}
	}
}

func (s *server) decodeApplyRequest(w http.ResponseWriter, r *http.Request) (applyRequest, model.Stage, bool) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
		return applyRequest{}, "", false
	}
	stageID, ok := model.ParseStage(req.StageID)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown stageId: " + req.StageID})
		return applyRequest{}, "", false
	}
	return req, stageID, true
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	s.logger.Error("apply failed", "error", err)
	writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
