package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ExpTrack/internal/application/scalars"
	"github.com/turtacn/ExpTrack/internal/domain/scalar"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

// SessionHandler exposes dashboard sessions over HTTP.
type SessionHandler struct {
	svc     scalars.Service
	logger  logging.Logger
	maxBody int64
}

// NewSessionHandler creates a SessionHandler.  maxBody <= 0 uses
// DefaultMaxBodySize.
func NewSessionHandler(svc scalars.Service, logger logging.Logger, maxBody int64) *SessionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SessionHandler{svc: svc, logger: logger.Named("sessions"), maxBody: maxBody}
}

// OpenSessionRequest is the body of POST /projects/{projectID}/sessions.
type OpenSessionRequest struct {
	// Query is the shareable query the page was opened with, e.g. "exp=AQ&s=0.60".
	Query string `json:"query"`
}

// SaveViewRequest is the body of POST /sessions/{sessionID}/views.
type SaveViewRequest struct {
	Name string `json:"name"`
}

// ChartsResponse lists one chart per visible metric.
type ChartsResponse struct {
	Query  string         `json:"query"`
	Charts []scalar.Chart `json:"charts"`
}

// Open handles POST /api/v1/projects/{projectID}/sessions.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	projectID := common.ProjectID(chi.URLParam(r, "projectID"))

	var req OpenSessionRequest
	if err := decodeJSON(w, r, h.maxBody, &req, true); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if req.Query == "" {
		req.Query = r.URL.Query().Get("q")
	}

	view, err := h.svc.Open(r.Context(), projectID, req.Query)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /api/v1/sessions/{sessionID}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Charts handles GET /api/v1/sessions/{sessionID}/charts.
func (h *SessionHandler) Charts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	charts, err := h.svc.Charts(r.Context(), id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	view, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ChartsResponse{Query: view.State.Query, Charts: charts})
}

// Apply handles POST /api/v1/sessions/{sessionID}/events.  The body is one
// event envelope: {"type": "set_smoothing", "weight": 0.6}.
func (h *SessionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, h.maxBody)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	ev, err := scalar.DecodeEvent(body)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	view, err := h.svc.Apply(r.Context(), chi.URLParam(r, "sessionID"), ev)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Reload handles POST /api/v1/sessions/{sessionID}/reload.
func (h *SessionHandler) Reload(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Reload(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SaveView handles POST /api/v1/sessions/{sessionID}/views.
func (h *SessionHandler) SaveView(w http.ResponseWriter, r *http.Request) {
	var req SaveViewRequest
	if err := decodeJSON(w, r, h.maxBody, &req, true); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	view, err := h.svc.SaveView(r.Context(), chi.URLParam(r, "sessionID"), req.Name)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Restore handles POST /api/v1/sessions/{sessionID}/restore/{viewID}.
func (h *SessionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.RestoreView(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "viewID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Export handles POST /api/v1/sessions/{sessionID}/export/{metric}.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")
	if metric == "" {
		writeAppError(w, h.logger, errors.NewValidationError("metric is required"))
		return
	}
	res, err := h.svc.Export(r.Context(), chi.URLParam(r, "sessionID"), metric)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Close handles DELETE /api/v1/sessions/{sessionID}.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//Personal.AI order the ending
