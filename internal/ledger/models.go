// Package ledger owns the durable state of the payout ledger: the ordered
// policy registry, the breach thresholds, the admin identity, and the
// escrowed funds. All mutation goes through the service layer; nothing else
// touches Policy fields.
package ledger

import (
	"time"

	id "parasol/pkg/domain"
)

// Policy is one participant's insurance record.
//
// Invariants: Premium is set once at registration and never mutates;
// ClaimPaid only ever transitions false -> true; at most one Policy exists
// per identity.
type Policy struct {
	Identity     id.ParticipantID
	Premium      uint64
	ClaimPaid    bool
	RegisteredAt time.Time
}

// Thresholds is the process-wide breach configuration. Both fields are
// always replaced together, atomically, and only by the admin.
type Thresholds struct {
	Rainfall    uint64
	Temperature uint64
}
