// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"net/http"
	"strconv"

	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/runner"
	"github.com/benchkit/benchkit/pkg/serializer"
	"github.com/benchkit/benchkit/pkg/server"
	"github.com/benchkit/benchkit/pkg/session"
)

const (
	// RunPath is the run resource.
	RunPath = "/v1/run"

	// EventsPath lists the events of the current or last run.
	EventsPath = "/v1/run/events"
)

// RunStarted is returned by POST /v1/run.
type RunStarted struct {
	RunID    string         `json:"runId"`
	Status   session.Status `json:"status"`
	Location string         `json:"location"`
}

// EventsResponse is returned by GET /v1/run/events. Next is the offset to
// pass as ?since= to receive only newer events.
type EventsResponse struct {
	RunID  string         `json:"runId"`
	Status session.Status `json:"status"`
	Events runner.Events  `json:"events"`
	Next   int            `json:"next"`
}

// RunHandler exposes one session over HTTP. Runs started through it are
// bound to the handler's context, not to the request that started them.
type RunHandler struct {
	ctx  context.Context
	sess *session.Session
}

// NewRunHandler creates a handler for sess. Canceling ctx stops any run
// started through the handler.
func NewRunHandler(ctx context.Context, sess *session.Session) *RunHandler {
	return &RunHandler{ctx: ctx, sess: sess}
}

// Routes returns the handler's routes for server.WithHandler.
func (h *RunHandler) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		RunPath:    h.HandleRun,
		EventsPath: h.HandleEvents,
	}
}

// HandleRun serves GET (report), POST (start) and DELETE (stop) on /v1/run.
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rep := h.sess.Report()
		if rep == nil {
			server.WriteError(w, r, http.StatusNotFound, bkerrors.ErrCodeNotFound,
				"no run has been started", false, nil)
			return
		}
		serializer.RespondJSON(w, http.StatusOK, rep)

	case http.MethodPost:
		runID, err := h.sess.Start(h.ctx)
		if err != nil {
			server.WriteErrorFromErr(w, r, err)
			return
		}
		w.Header().Set("Location", RunPath)
		serializer.RespondJSON(w, http.StatusAccepted, RunStarted{
			RunID:    runID,
			Status:   session.StatusRunning,
			Location: RunPath,
		})

	case http.MethodDelete:
		if h.sess.Report() == nil {
			server.WriteError(w, r, http.StatusNotFound, bkerrors.ErrCodeNotFound,
				"no run has been started", false, nil)
			return
		}
		h.sess.Stop()
		serializer.RespondJSON(w, http.StatusOK, h.sess.Report())

	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		server.WriteError(w, r, http.StatusMethodNotAllowed, bkerrors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, map[string]any{"method": r.Method})
	}
}

// HandleEvents serves GET /v1/run/events?since=N.
func (h *RunHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		server.WriteError(w, r, http.StatusMethodNotAllowed, bkerrors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, map[string]any{"method": r.Method})
		return
	}

	since := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			server.WriteError(w, r, http.StatusBadRequest, bkerrors.ErrCodeInvalidRequest,
				"since must be a non-negative integer", false, map[string]any{"since": raw})
			return
		}
		since = n
	}

	rep := h.sess.Report()
	if rep == nil {
		server.WriteError(w, r, http.StatusNotFound, bkerrors.ErrCodeNotFound,
			"no run has been started", false, nil)
		return
	}

	events := runner.Events{}
	if since < len(rep.Events) {
		events = rep.Events[since:]
	}
	serializer.RespondJSON(w, http.StatusOK, EventsResponse{
		RunID:  rep.RunID,
		Status: rep.Status,
		Events: events,
		Next:   len(rep.Events),
	})
}
