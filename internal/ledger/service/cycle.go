package service

import (
	"context"
	"errors"

	"parasol/internal/ledger"
	id "parasol/pkg/domain"
	dErrors "parasol/pkg/domain-errors"
	"parasol/pkg/sentinel"
)

// Cycle is an exclusive view of ledger state handed to the payout processor
// for the duration of one claim cycle. While a Cycle is open the service
// lock is held, so no register or threshold update can interleave with the
// cycle's policy scan. The caller must call End exactly once.
type Cycle struct {
	svc   *Service
	ended bool
}

// BeginCycle acquires the single-writer lock and returns the cycle handle.
func (s *Service) BeginCycle() *Cycle {
	s.mu.Lock()
	return &Cycle{svc: s}
}

// End releases the ledger for other operations.
func (c *Cycle) End() {
	if c.ended {
		return
	}
	c.ended = true
	c.svc.mu.Unlock()
}

// Thresholds returns the breach configuration in force for this cycle.
func (c *Cycle) Thresholds(ctx context.Context) (ledger.Thresholds, error) {
	t, err := c.svc.store.Thresholds(ctx)
	if err != nil {
		return ledger.Thresholds{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load thresholds")
	}
	return t, nil
}

// Policies returns the registered set in registration order. This is the
// whole iteration space of a claim cycle: work is bounded by the number of
// registrations, never by the identity domain.
func (c *Cycle) Policies(ctx context.Context) ([]ledger.Policy, error) {
	policies, err := c.svc.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	return policies, nil
}

// Balance returns the escrow balance as seen inside the cycle.
func (c *Cycle) Balance(ctx context.Context) (uint64, error) {
	balance, err := c.svc.store.Balance(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	return balance, nil
}

// MarkClaimPaid flips the monotonic claim flag. The processor calls this
// before the transfer acknowledgment so a retried or reentrant transfer can
// never pay the same policy twice.
func (c *Cycle) MarkClaimPaid(ctx context.Context, identity id.ParticipantID) error {
	if err := c.svc.store.SetClaimPaid(ctx, identity, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark claim paid")
	}
	return nil
}

// ClearClaimPaid reverts a mark set earlier in this same cycle whose
// transfer failed before acknowledgment. Legal only under the open cycle:
// the lock guarantees nobody observed the transient mark.
func (c *Cycle) ClearClaimPaid(ctx context.Context, identity id.ParticipantID) error {
	if err := c.svc.store.SetClaimPaid(ctx, identity, false); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear claim mark")
	}
	return nil
}

// DebitFunds removes a settled payout from escrow. Only called after the
// transfer acknowledged Ok, so a failed transfer never loses escrowed funds.
func (c *Cycle) DebitFunds(ctx context.Context, amount uint64) error {
	if err := c.svc.store.DebitFunds(ctx, amount); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeInsufficientFunds, "escrow balance below payout")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit escrow")
	}
	c.svc.publishBalance(ctx)
	return nil
}
