// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP surface of the recommendation service:
// recommendation queries, interaction ingestion, training control, and
// health/status endpoints, all wrapped in a uniform JSON envelope.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gamestore/recsys/internal/logging"
	"github.com/gamestore/recsys/internal/metrics"
	"github.com/gamestore/recsys/internal/recommend"
	"github.com/gamestore/recsys/internal/storage"
)

// Handler serves the recommendation API.
type Handler struct {
	engine   *recommend.Engine
	store    *storage.MemoryStore
	eventLog *storage.EventLog // nil when durability is disabled
	validate *validator.Validate
}

// NewHandler creates the API handler. eventLog may be nil.
func NewHandler(engine *recommend.Engine, store *storage.MemoryStore, eventLog *storage.EventLog) *Handler {
	return &Handler{
		engine:   engine,
		store:    store,
		eventLog: eventLog,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// recommendRequest is the POST /recommendations payload.
type recommendRequest struct {
	UserID     string `json:"user_id" validate:"required,max=128"`
	Query      string `json:"query" validate:"max=512"`
	WindowDays int    `json:"window_days" validate:"gte=0,lte=365"`
	K          int    `json:"k" validate:"gte=0,lte=1000"`
}

// interactionRequest is the POST /interactions payload.
type interactionRequest struct {
	UserID string  `json:"user_id" validate:"required,max=128"`
	ItemID string  `json:"item_id" validate:"required,max=128"`
	Type   string  `json:"type" validate:"required,oneof=view favorite purchase"`
	Rating float64 `json:"rating" validate:"gte=0,lte=5"`
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req recommendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "malformed request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		UserID:     req.UserID,
		Query:      req.Query,
		WindowDays: req.WindowDays,
		K:          req.K,
		RequestID:  requestIDFrom(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrUnknownUser):
			respondError(w, http.StatusNotFound, codeUnknownUser, "user not found", nil)
		case errors.Is(err, recommend.ErrEmptyCatalog):
			respondError(w, http.StatusServiceUnavailable, codeEmptyCatalog, "catalog is empty", nil)
		default:
			respondError(w, http.StatusInternalServerError, codeInternal, "recommendation failed", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: resp.Metadata.RequestID,
			LatencyMS: time.Since(start).Milliseconds(),
		},
	})
}

// Interaction handles POST /api/v1/interactions. The event is made
// durable before it is applied, so an accepted event survives a crash.
func (h *Handler) Interaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req interactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "malformed request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	itype, ok := recommend.ParseInteractionType(req.Type)
	if !ok {
		respondError(w, http.StatusBadRequest, codeValidation, "unknown interaction type", nil)
		return
	}

	event := recommend.Interaction{
		UserID:    req.UserID,
		ItemID:    req.ItemID,
		Type:      itype,
		Rating:    req.Rating,
		Timestamp: time.Now().UTC(),
	}

	if h.eventLog != nil {
		if err := h.eventLog.Append(event); err != nil {
			respondError(w, http.StatusInternalServerError, codeInternal, "failed to persist interaction", err)
			return
		}
	}
	if err := h.store.Apply(event); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "failed to apply interaction", err)
		return
	}

	metrics.RecordEvent(itype.String())

	respondJSON(w, http.StatusAccepted, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"user_id": event.UserID,
			"item_id": event.ItemID,
			"type":    itype.String(),
		},
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestIDFrom(r.Context()),
			LatencyMS: time.Since(start).Milliseconds(),
		},
	})
}

// Train handles POST /api/v1/train, forcing a synchronous retrain.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.engine.Train(r.Context()); err != nil {
		if errors.Is(err, recommend.ErrTrainingInProgress) {
			respondError(w, http.StatusConflict, codeTrainingInProgress, "training already in progress", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "training failed", err)
		return
	}

	status := h.engine.Status()
	metrics.SetModelVersion(status.ModelVersion)

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   status,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestIDFrom(r.Context()),
			LatencyMS: time.Since(start).Milliseconds(),
		},
	})
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   h.engine.Status(),
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestIDFrom(r.Context()),
		},
	})
}

// HealthLive handles GET /health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     map[string]string{"state": "alive"},
		Metadata: Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthReady handles GET /health/ready. Ready means the catalog is
// loaded; an untrained model is still ready, it trains on first use.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	items, users, events := h.store.Counts()
	if items == 0 {
		respondError(w, http.StatusServiceUnavailable, codeEmptyCatalog, "catalog not loaded", nil)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"state":  "ready",
			"items":  items,
			"users":  users,
			"events": events,
		},
		Metadata: Metadata{Timestamp: time.Now().UTC()},
	})
}

// logRequestOutcome is shared by the access-log middleware.
func logRequestOutcome(r *http.Request, status int, duration time.Duration) {
	logging.Debug().
		Str("method", r.Method).
		Str("path", sanitizeLogValue(r.URL.Path)).
		Int("status", status).
		Dur("duration", duration).
		Msg("Request completed")
}
