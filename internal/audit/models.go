// Package audit is the append-only trail of ledger state changes. Every
// event is emitted in the same operation boundary as the mutation it
// describes, after the mutation is confirmed, and never duplicated on retry.
package audit

import (
	"time"

	"github.com/google/uuid"

	id "parasol/pkg/domain"
)

// Actions recorded on the trail.
const (
	ActionPolicyRegistered   = "policy_registered"
	ActionThresholdsUpdated  = "thresholds_updated"
	ActionFundsAccepted      = "funds_accepted"
	ActionClaimPaid          = "claim_paid"
	ActionClaimSkipped       = "claim_skipped"
	ActionClaimCycleComplete = "claim_cycle_completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Action    string
	Identity  id.ParticipantID
	Amount    uint64
	Reason    string
	RequestID string
}
