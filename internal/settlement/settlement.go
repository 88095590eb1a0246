// Package settlement abstracts the rail that moves payout value to a
// participant. The ledger only debits escrow after a transfer acknowledges
// Ok, so a failed transfer never loses escrowed funds.
package settlement

import (
	"context"
	"log/slog"
	"sync"

	id "parasol/pkg/domain"
)

// Rail executes a single fund transfer. A non-nil error means the transfer
// did not happen; the caller keeps the escrow and may retry in a future
// claim cycle.
type Rail interface {
	Transfer(ctx context.Context, to id.ParticipantID, amount uint64) error
}

// MemoryRail credits an in-process account book. It is the default rail for
// tests and single-node deployments where payouts are tracked as internal
// balances rather than external settlement.
type MemoryRail struct {
	mu       sync.RWMutex
	accounts map[id.ParticipantID]uint64
}

func NewMemoryRail() *MemoryRail {
	return &MemoryRail{accounts: make(map[id.ParticipantID]uint64)}
}

func (r *MemoryRail) Transfer(_ context.Context, to id.ParticipantID, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[to] += amount
	return nil
}

// AccountBalance returns the total credited to one participant.
func (r *MemoryRail) AccountBalance(to id.ParticipantID) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accounts[to]
}

// LogRail records transfers without moving value. A stand-in for deployments
// where the real rail is reconciled out-of-band from the audit trail.
type LogRail struct {
	logger *slog.Logger
}

func NewLogRail(logger *slog.Logger) *LogRail {
	return &LogRail{logger: logger}
}

func (r *LogRail) Transfer(ctx context.Context, to id.ParticipantID, amount uint64) error {
	r.logger.InfoContext(ctx, "settlement transfer",
		"to", to.String(),
		"amount", amount,
	)
	return nil
}
