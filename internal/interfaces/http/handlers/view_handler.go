package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	viewsapp "github.com/turtacn/ExpTrack/internal/application/savedview"
	domain "github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ExpTrack/pkg/types/common"
)

// ViewHandler exposes the saved-view registry of a project.
type ViewHandler struct {
	svc     viewsapp.Service
	metrics *prometheus.AppMetrics
	logger  logging.Logger
	maxBody int64
}

// NewViewHandler creates a ViewHandler.
func NewViewHandler(svc viewsapp.Service, metrics *prometheus.AppMetrics, logger logging.Logger, maxBody int64) *ViewHandler {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ViewHandler{svc: svc, metrics: metrics, logger: logger.Named("views"), maxBody: maxBody}
}

// CreateViewRequest is the body of POST /projects/{projectID}/views.
type CreateViewRequest struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// RenameViewRequest is the body of PATCH /projects/{projectID}/views/{viewID}.
type RenameViewRequest struct {
	Name string `json:"name"`
}

// ListViewsResponse wraps the views of a project, newest last.
type ListViewsResponse struct {
	Views []*domain.SavedView `json:"views"`
	Total int                 `json:"total"`
}

func projectParam(r *http.Request) common.ProjectID {
	return common.ProjectID(chi.URLParam(r, "projectID"))
}

// List handles GET /api/v1/projects/{projectID}/views.
func (h *ViewHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context(), projectParam(r))
	prometheus.RecordViewOperation(h.metrics, "list", err)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if views == nil {
		views = []*domain.SavedView{}
	}
	writeJSON(w, http.StatusOK, ListViewsResponse{Views: views, Total: len(views)})
}

// Create handles POST /api/v1/projects/{projectID}/views.
func (h *ViewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateViewRequest
	if err := decodeJSON(w, r, h.maxBody, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	view, err := h.svc.Save(r.Context(), &viewsapp.SaveInput{
		ProjectID: projectParam(r),
		Query:     req.Query,
		Name:      req.Name,
	})
	prometheus.RecordViewOperation(h.metrics, "save", err)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/projects/"+string(view.ProjectID)+"/views/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /api/v1/projects/{projectID}/views/{viewID}.
func (h *ViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), projectParam(r), chi.URLParam(r, "viewID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Rename handles PATCH /api/v1/projects/{projectID}/views/{viewID}.
func (h *ViewHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameViewRequest
	if err := decodeJSON(w, r, h.maxBody, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	view, err := h.svc.Rename(r.Context(), projectParam(r), chi.URLParam(r, "viewID"), req.Name)
	prometheus.RecordViewOperation(h.metrics, "rename", err)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /api/v1/projects/{projectID}/views/{viewID}.
func (h *ViewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), projectParam(r), chi.URLParam(r, "viewID"))
	prometheus.RecordViewOperation(h.metrics, "delete", err)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//Personal.AI order the ending
