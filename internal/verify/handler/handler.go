// Package handler is the HTTP surface of the verification engine.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"driveid/internal/platform/middleware"
	"driveid/internal/verify/models"
	"driveid/internal/verify/service"
	"driveid/internal/verify/workflow"
	"driveid/pkg/platform/httputil"
	"driveid/pkg/platform/sentinel"
)

// Service defines the verification operations the handler exposes.
type Service interface {
	Verify(ctx context.Context, req workflow.Request) (*models.WorkflowResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WorkflowResult, error)
	History(ctx context.Context, subjectRef string, limit int) ([]*models.WorkflowResult, error)
}

// Handler wires verification endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
	r.Get("/verifications/{id}", h.HandleGetVerification)
	r.Get("/subjects/{subjectRef}/verifications", h.HandleHistory)
}

// HandleVerify handles POST /verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	start := time.Now()

	var req workflow.Request
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Verify(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "verification run failed",
			"request_id", requestID,
			"subject_ref", req.SubjectRef,
			"error", err,
		)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	h.logger.InfoContext(ctx, "verification run completed",
		"request_id", requestID,
		"actor_id", middleware.GetActorID(ctx),
		"subject_ref", req.SubjectRef,
		"run_id", result.ID,
		"overall_status", result.OverallStatus,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleGetVerification handles GET /verifications/{id} requests.
func (h *Handler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "verification id must be a UUID")
		return
	}

	result, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "not_found", "verification run not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to load verification run",
			"request_id", middleware.GetRequestID(ctx),
			"run_id", id,
			"error", err,
		)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleHistory handles GET /subjects/{subjectRef}/verifications requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectRef := chi.URLParam(r, "subjectRef")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "bad_request", "limit must be an integer")
			return
		}
		limit = n
	}

	runs, err := h.service.History(ctx, subjectRef, limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "failed to list verification runs",
			"request_id", middleware.GetRequestID(ctx),
			"subject_ref", subjectRef,
			"error", err,
		)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if runs == nil {
		runs = []*models.WorkflowResult{}
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}
