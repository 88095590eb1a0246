// Package handler exposes the policy ledger over HTTP. It stays thin:
// decode, delegate to the service, translate errors.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parasol/internal/ledger"
	"parasol/internal/platform/middleware"
	"parasol/internal/transport/http/shared"
	id "parasol/pkg/domain"
	dErrors "parasol/pkg/domain-errors"
	"parasol/pkg/requestcontext"
)

// Service defines the ledger operations the HTTP layer needs.
type Service interface {
	Register(ctx context.Context, identity id.ParticipantID, premium uint64) (ledger.Policy, error)
	UpdateThresholds(ctx context.Context, caller id.ParticipantID, t ledger.Thresholds) error
	AcceptFunds(ctx context.Context, identity id.ParticipantID, amount uint64) error
	GetPolicy(ctx context.Context, identity id.ParticipantID) (ledger.Policy, error)
	ListPolicies(ctx context.Context) ([]ledger.Policy, error)
	Thresholds(ctx context.Context) (ledger.Thresholds, error)
	Balance(ctx context.Context) (uint64, error)
	Admin() id.ParticipantID
}

// Handler handles policy, threshold, and escrow endpoints.
type Handler struct {
	logger       *slog.Logger
	ledger       Service
	jwtValidator middleware.JWTValidator
}

// New creates a new ledger Handler.
func New(ledger Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		ledger:       ledger,
		jwtValidator: jwtValidator,
	}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		router.Post("/policies", h.handleRegister)
		router.Get("/policies", h.handleListPolicies)
		router.Get("/policies/{identity}", h.handleGetPolicy)
		router.Put("/thresholds", h.handleUpdateThresholds)
		router.Get("/thresholds", h.handleGetThresholds)
		router.Post("/funds", h.handleDeposit)
		router.Get("/funds", h.handleGetBalance)
		router.Get("/admin", h.handleGetAdmin)
	})
}

// handleRegister creates a policy for the authenticated caller and escrows
// the premium.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	policy, err := h.ledger.Register(ctx, caller, req.Premium)
	if err != nil {
		h.logger.WarnContext(ctx, "registration rejected",
			"identity", caller.String(),
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toPolicyResponse(policy))
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.ledger.ListPolicies(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPolicyResponses(policies))
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	identity, err := id.ParseParticipantID(chi.URLParam(r, "identity"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	policy, err := h.ledger.GetPolicy(r.Context(), identity)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPolicyResponse(policy))
}

// handleUpdateThresholds replaces both breach cutoffs. The service enforces
// the admin check.
func (h *Handler) handleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req UpdateThresholdsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	err := h.ledger.UpdateThresholds(ctx, caller, ledger.Thresholds{
		Rainfall:    req.Rainfall,
		Temperature: req.Temperature,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "threshold update rejected",
			"caller", caller.String(),
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	t, err := h.ledger.Thresholds(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, ThresholdsResponse{
		Rainfall:    t.Rainfall,
		Temperature: t.Temperature,
	})
}

// handleDeposit credits escrow from any authenticated sender.
func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.ledger.AcceptFunds(ctx, caller, req.Amount); err != nil {
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.Balance(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
}

func (h *Handler) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, AdminResponse{Admin: h.ledger.Admin().String()})
}
