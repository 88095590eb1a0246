// Package payout runs the claim cycle: one admin-triggered
// evaluation-and-payout pass over all eligible policies. It composes the
// oracle, the claim evaluator, the settlement rail, and the ledger's
// exclusive cycle view.
package payout

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"parasol/internal/audit"
	"parasol/internal/claim"
	ledgersvc "parasol/internal/ledger/service"
	"parasol/internal/oracle"
	"parasol/internal/payout/cyclelock"
	"parasol/internal/platform/metrics"
	"parasol/internal/settlement"
	id "parasol/pkg/domain"
	dErrors "parasol/pkg/domain-errors"
	"parasol/pkg/requestcontext"
)

// Skip reasons recorded when a policy is passed over without payout.
const (
	SkipOverflow          = "overflow"
	SkipInsufficientFunds = "insufficient_funds"
	SkipTransferFailed    = "transfer_failed"
)

// Payment records one settled payout.
type Payment struct {
	Identity id.ParticipantID
	Amount   uint64
}

// Skip records one policy passed over during a breach cycle. Skipped
// policies keep ClaimPaid false and stay eligible for future cycles.
type Skip struct {
	Identity id.ParticipantID
	Reason   string
}

// CycleReport summarizes one claim cycle. Paid preserves registration
// order.
type CycleReport struct {
	Verdict     claim.Verdict
	Measured    oracle.Measurement
	Paid        []Payment
	Skipped     []Skip
	CompletedAt time.Time
}

// Processor executes claim cycles against the ledger.
type Processor struct {
	ledger  *ledgersvc.Service
	oracle  oracle.Source
	rail    settlement.Rail
	lock    cyclelock.Lock
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures optional processor collaborators.
type Option func(*Processor)

// WithCycleLock adds a cross-process cycle lock (Redis in multi-instance
// deployments).
func WithCycleLock(lock cyclelock.Lock) Option {
	return func(p *Processor) { p.lock = lock }
}

func WithAudit(publisher *audit.Publisher) Option {
	return func(p *Processor) { p.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// New constructs a payout processor.
func New(ledger *ledgersvc.Service, source oracle.Source, rail settlement.Rail, opts ...Option) (*Processor, error) {
	if ledger == nil {
		return nil, errors.New("ledger service is required")
	}
	if source == nil {
		return nil, errors.New("oracle source is required")
	}
	if rail == nil {
		return nil, errors.New("settlement rail is required")
	}
	p := &Processor{ledger: ledger, oracle: source, rail: rail}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// RunClaimCycle fetches one oracle snapshot, renders the breach verdict,
// and on breach pays every still-eligible policy exactly once, in
// registration order. Only the admin may trigger a cycle.
//
// Oracle failure aborts with zero mutation. Per-policy resource failures
// (overflow, insufficient escrow, transfer rejection) skip that policy and
// continue, preserving forward progress for solvent policies.
func (p *Processor) RunClaimCycle(ctx context.Context, caller id.ParticipantID) (*CycleReport, error) {
	if caller != p.ledger.Admin() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the admin may trigger a claim cycle")
	}

	if p.lock != nil {
		acquired, err := p.lock.Acquire(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire cycle lock")
		}
		if !acquired {
			return nil, dErrors.New(dErrors.CodeInternal, "another claim cycle is in flight")
		}
		defer func() {
			if err := p.lock.Release(ctx); err != nil {
				p.logger.ErrorContext(ctx, "failed to release cycle lock", "error", err)
			}
		}()
	}

	started := time.Now()

	// The oracle may block; fetch before taking the ledger lock so a slow
	// feed never stalls registrations. Verdict and scan still see one
	// consistent ledger state because both happen under the open cycle.
	measured, err := p.oracle.Fetch(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeOracleUnavailable, "oracle snapshot unavailable")
	}

	cycle := p.ledger.BeginCycle()
	defer cycle.End()

	thresholds, err := cycle.Thresholds(ctx)
	if err != nil {
		return nil, err
	}

	report := &CycleReport{
		Verdict:  claim.Evaluate(measured, thresholds),
		Measured: measured,
	}
	if report.Verdict == claim.VerdictNoBreach {
		report.CompletedAt = requestcontext.Now(ctx)
		p.metrics.IncrementClaimCycles(string(report.Verdict))
		p.metrics.ObserveCycleDuration(time.Since(started).Seconds())
		p.logger.InfoContext(ctx, "claim cycle completed without breach",
			"rainfall", measured.Rainfall,
			"temperature", measured.Temperature,
		)
		return report, nil
	}

	policies, err := cycle.Policies(ctx)
	if err != nil {
		return nil, err
	}

	for _, policy := range policies {
		if policy.ClaimPaid {
			continue
		}
		p.settleOne(ctx, cycle, policy.Identity, policy.Premium, report)
	}

	report.CompletedAt = requestcontext.Now(ctx)
	p.metrics.IncrementClaimCycles(string(report.Verdict))
	p.metrics.ObserveCycleDuration(time.Since(started).Seconds())
	p.emit(ctx, audit.Event{
		Action: audit.ActionClaimCycleComplete,
		Amount: uint64(len(report.Paid)),
		Reason: string(report.Verdict),
	})
	p.logger.InfoContext(ctx, "claim cycle completed",
		"verdict", report.Verdict,
		"paid", len(report.Paid),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

func (p *Processor) settleOne(ctx context.Context, cycle *ledgersvc.Cycle, identity id.ParticipantID, premium uint64, report *CycleReport) {
	payout, ok := doublePremium(premium)
	if !ok {
		p.skip(ctx, report, identity, SkipOverflow)
		return
	}

	balance, err := cycle.Balance(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to read escrow balance", "identity", identity.String(), "error", err)
		p.skip(ctx, report, identity, SkipInsufficientFunds)
		return
	}
	if balance < payout {
		p.skip(ctx, report, identity, SkipInsufficientFunds)
		return
	}

	// Mark before the transfer acknowledgment: even if the rail could
	// reenter the cycle, this policy is already ineligible.
	if err := cycle.MarkClaimPaid(ctx, identity); err != nil {
		p.logger.ErrorContext(ctx, "failed to mark claim paid", "identity", identity.String(), "error", err)
		p.skip(ctx, report, identity, SkipTransferFailed)
		return
	}

	if err := p.rail.Transfer(ctx, identity, payout); err != nil {
		// The transfer never happened: revert the mark under the still-open
		// cycle so the policy stays eligible, and keep the escrow.
		if clearErr := cycle.ClearClaimPaid(ctx, identity); clearErr != nil {
			p.logger.ErrorContext(ctx, "failed to clear claim mark after transfer failure",
				"identity", identity.String(),
				"error", clearErr,
			)
		}
		p.logger.WarnContext(ctx, "transfer rejected by settlement rail",
			"identity", identity.String(),
			"amount", payout,
			"error", err,
		)
		p.skip(ctx, report, identity, SkipTransferFailed)
		return
	}

	if err := cycle.DebitFunds(ctx, payout); err != nil {
		// Transfer acknowledged but escrow accounting failed; surface loudly
		// rather than hiding a balance mismatch.
		p.logger.ErrorContext(ctx, "failed to debit escrow after transfer",
			"identity", identity.String(),
			"amount", payout,
			"error", err,
		)
	}

	p.metrics.IncrementClaimsPaid()
	p.emit(ctx, audit.Event{
		Action:   audit.ActionClaimPaid,
		Identity: identity,
		Amount:   payout,
	})
	report.Paid = append(report.Paid, Payment{Identity: identity, Amount: payout})
}

func (p *Processor) skip(ctx context.Context, report *CycleReport, identity id.ParticipantID, reason string) {
	p.metrics.IncrementPayoutsSkipped(reason)
	p.emit(ctx, audit.Event{
		Action:   audit.ActionClaimSkipped,
		Identity: identity,
		Reason:   reason,
	})
	report.Skipped = append(report.Skipped, Skip{Identity: identity, Reason: reason})
}

func (p *Processor) emit(ctx context.Context, event audit.Event) {
	if err := p.audit.Emit(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"identity", event.Identity.String(),
			"error", err,
		)
	}
}

// doublePremium computes the fixed 2x payout with an explicit overflow
// check; silent wrapping would mint value out of nothing.
func doublePremium(premium uint64) (uint64, bool) {
	if premium > math.MaxUint64/2 {
		return 0, false
	}
	return premium * 2, true
}
