// Package handler exposes the claim cycle trigger over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"parasol/internal/payout"
	"parasol/internal/platform/middleware"
	"parasol/internal/transport/http/shared"
	id "parasol/pkg/domain"
	"parasol/pkg/requestcontext"
)

// Processor defines the payout operation the HTTP layer needs.
type Processor interface {
	RunClaimCycle(ctx context.Context, caller id.ParticipantID) (*payout.CycleReport, error)
}

// Handler handles the claim cycle endpoint.
type Handler struct {
	logger       *slog.Logger
	processor    Processor
	jwtValidator middleware.JWTValidator
}

// New creates a new payout Handler.
func New(processor Processor, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		processor:    processor,
		jwtValidator: jwtValidator,
	}
}

// Register registers the payout routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		router.Post("/claims/cycle", h.handleRunClaimCycle)
	})
}

// PaymentResponse is one settled payout within a cycle report.
type PaymentResponse struct {
	Identity string `json:"identity"`
	Amount   uint64 `json:"amount"`
}

// SkipResponse is one passed-over policy within a cycle report.
type SkipResponse struct {
	Identity string `json:"identity"`
	Reason   string `json:"reason"`
}

// CycleResponse is the caller-facing cycle report.
type CycleResponse struct {
	Verdict     string            `json:"verdict"`
	Rainfall    uint64            `json:"rainfall"`
	Temperature uint64            `json:"temperature"`
	Paid        []PaymentResponse `json:"paid"`
	Skipped     []SkipResponse    `json:"skipped"`
	CompletedAt time.Time         `json:"completed_at"`
}

func (h *Handler) handleRunClaimCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	report, err := h.processor.RunClaimCycle(ctx, caller)
	if err != nil {
		h.logger.WarnContext(ctx, "claim cycle rejected",
			"caller", caller.String(),
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	resp := CycleResponse{
		Verdict:     string(report.Verdict),
		Rainfall:    report.Measured.Rainfall,
		Temperature: report.Measured.Temperature,
		Paid:        make([]PaymentResponse, 0, len(report.Paid)),
		Skipped:     make([]SkipResponse, 0, len(report.Skipped)),
		CompletedAt: report.CompletedAt,
	}
	for _, paid := range report.Paid {
		resp.Paid = append(resp.Paid, PaymentResponse{Identity: paid.Identity.String(), Amount: paid.Amount})
	}
	for _, skipped := range report.Skipped {
		resp.Skipped = append(resp.Skipped, SkipResponse{Identity: skipped.Identity.String(), Reason: skipped.Reason})
	}

	shared.WriteJSON(w, http.StatusOK, resp)
}
