// Package oracle abstracts the external data feed that reports measured
// weather conditions. The ledger consumes it as a pure data source: one
// atomic snapshot per fetch, no staleness policy of its own.
package oracle

import (
	"context"
	"time"
)

// Measurement is a single atomic snapshot of the measured conditions.
type Measurement struct {
	Rainfall    uint64    `json:"rainfall"`
	Temperature uint64    `json:"temperature"`
	ObservedAt  time.Time `json:"observed_at,omitzero"`
}

// Source supplies measurement snapshots. Fetch is synchronous from the
// caller's perspective; implementations wrap failures in
// sentinel.ErrUnavailable so the payout processor can abort cleanly.
type Source interface {
	Fetch(ctx context.Context) (Measurement, error)
}

// Static is a fixed source for tests and local runs.
type Static struct {
	Measurement Measurement
	Err         error
}

func (s *Static) Fetch(_ context.Context) (Measurement, error) {
	if s.Err != nil {
		return Measurement{}, s.Err
	}
	return s.Measurement, nil
}
