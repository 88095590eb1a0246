// Package handler exposes the audit trail for inspection. Read-only.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"parasol/internal/audit"
	"parasol/internal/platform/middleware"
	"parasol/internal/transport/http/shared"
	id "parasol/pkg/domain"
	dErrors "parasol/pkg/domain-errors"
	"parasol/pkg/requestcontext"
)

const defaultLimit = 100

// Handler handles audit trail endpoints.
type Handler struct {
	logger       *slog.Logger
	trail        *audit.Publisher
	admin        id.ParticipantID
	jwtValidator middleware.JWTValidator
}

// New creates a new audit Handler. The trail is admin-only.
func New(trail *audit.Publisher, admin id.ParticipantID, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		trail:        trail,
		admin:        admin,
		jwtValidator: jwtValidator,
	}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		router.Get("/audit/events", h.handleListRecent)
		router.Get("/audit/events/{identity}", h.handleListByIdentity)
	})
}

// EventResponse is the caller-facing view of one trail entry.
type EventResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Identity  string    `json:"identity,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

func (h *Handler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.Caller(ctx) != h.admin {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "only the admin may read the audit trail"))
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	events, err := h.trail.ListRecent(ctx, limit)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEventResponses(events))
}

func (h *Handler) handleListByIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.Caller(ctx) != h.admin {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "only the admin may read the audit trail"))
		return
	}

	identity, err := id.ParseParticipantID(chi.URLParam(r, "identity"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	events, err := h.trail.ListByIdentity(ctx, identity)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEventResponses(events))
}

func toEventResponses(events []audit.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			ID:        e.ID.String(),
			Timestamp: e.Timestamp,
			Action:    e.Action,
			Identity:  e.Identity.String(),
			Amount:    e.Amount,
			Reason:    e.Reason,
			RequestID: e.RequestID,
		})
	}
	return out
}
