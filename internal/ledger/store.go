package ledger

import (
	"context"

	id "parasol/pkg/domain"
)

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code. Implementations return pkg/sentinel errors for infrastructure
// facts; the service layer translates them into domain errors.
//
// Individual operations are atomic. Cross-operation atomicity (the claim
// cycle's scan-and-mutate) is provided by the service's single-writer lock,
// not by the store.
type Store interface {
	// Insert adds a new policy and appends its identity to the ordered
	// registry. Returns sentinel.ErrConflict when the identity is already
	// registered.
	Insert(ctx context.Context, policy Policy) error

	// Get returns the policy for an identity, or sentinel.ErrNotFound.
	Get(ctx context.Context, identity id.ParticipantID) (Policy, error)

	// List returns all policies in registration order. The claim cycle
	// iterates this bounded collection only, never an identity space.
	List(ctx context.Context) ([]Policy, error)

	// SetClaimPaid flips the claim flag for a registered policy. Clearing
	// the flag is only legal within a claim cycle that marked it and saw
	// the transfer fail before acknowledgment.
	SetClaimPaid(ctx context.Context, identity id.ParticipantID, paid bool) error

	// Thresholds returns the current breach configuration.
	Thresholds(ctx context.Context) (Thresholds, error)

	// SetThresholds replaces both threshold fields atomically.
	SetThresholds(ctx context.Context, t Thresholds) error

	// Balance returns the ledger-held escrow balance.
	Balance(ctx context.Context) (uint64, error)

	// CreditFunds adds to the escrow balance.
	CreditFunds(ctx context.Context, amount uint64) error

	// DebitFunds subtracts from the escrow balance. Returns
	// sentinel.ErrInvalidState when the balance would go negative.
	DebitFunds(ctx context.Context, amount uint64) error
}
