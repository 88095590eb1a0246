package handler

import (
	"time"

	"parasol/internal/ledger"
)

// RegisterRequest creates a policy for the authenticated caller.
type RegisterRequest struct {
	Premium uint64 `json:"premium"`
}

// UpdateThresholdsRequest replaces both breach cutoffs atomically.
type UpdateThresholdsRequest struct {
	Rainfall    uint64 `json:"rainfall"`
	Temperature uint64 `json:"temperature"`
}

// DepositRequest credits escrow without creating a policy.
type DepositRequest struct {
	Amount uint64 `json:"amount"`
}

// PolicyResponse is the caller-facing view of a policy.
type PolicyResponse struct {
	Identity     string    `json:"identity"`
	Premium      uint64    `json:"premium"`
	ClaimPaid    bool      `json:"claim_paid"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ThresholdsResponse is the caller-facing view of the breach configuration.
type ThresholdsResponse struct {
	Rainfall    uint64 `json:"rainfall"`
	Temperature uint64 `json:"temperature"`
}

// BalanceResponse reports the escrow balance.
type BalanceResponse struct {
	Balance uint64 `json:"balance"`
}

// AdminResponse reports the fixed admin identity.
type AdminResponse struct {
	Admin string `json:"admin"`
}

func toPolicyResponse(p ledger.Policy) PolicyResponse {
	return PolicyResponse{
		Identity:     p.Identity.String(),
		Premium:      p.Premium,
		ClaimPaid:    p.ClaimPaid,
		RegisteredAt: p.RegisteredAt,
	}
}

func toPolicyResponses(policies []ledger.Policy) []PolicyResponse {
	out := make([]PolicyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPolicyResponse(p))
	}
	return out
}
