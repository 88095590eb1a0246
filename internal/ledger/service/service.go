// Package service mediates every mutation of ledger state. It enforces the
// registration and threshold invariants, owns the single-writer lock that
// keeps claim cycles atomic with respect to other callers, and emits the
// audit trail.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"parasol/internal/audit"
	"parasol/internal/ledger"
	"parasol/internal/platform/metrics"
	id "parasol/pkg/domain"
	dErrors "parasol/pkg/domain-errors"
	"parasol/pkg/requestcontext"
	"parasol/pkg/sentinel"
)

// Service is the PolicyLedger: the only component allowed to mutate the
// policy registry, thresholds, and escrow balance.
//
// A single mutex serializes every operation, including the whole claim
// cycle via BeginCycle. The host gives us no serial execution guarantee, so
// the lock is what makes the cycle's scan-and-mutate all-or-nothing for
// outside observers.
type Service struct {
	mu      sync.Mutex
	store   ledger.Store
	admin   id.ParticipantID
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithAudit(publisher *audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the ledger service. The admin identity is fixed for the
// lifetime of the service; there is no operation that changes it.
func New(store ledger.Store, admin id.ParticipantID, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	if admin.IsZero() {
		return nil, errors.New("admin identity is required")
	}
	s := &Service{store: store, admin: admin}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Register creates a policy for a new participant and escrows the premium.
// Fails before any mutation: a duplicate identity or zero premium leaves
// the ledger exactly as it was.
func (s *Service) Register(ctx context.Context, identity id.ParticipantID, premium uint64) (ledger.Policy, error) {
	if identity.IsZero() {
		return ledger.Policy{}, dErrors.New(dErrors.CodeInvalidInput, "participant identity is required")
	}
	if premium == 0 {
		return ledger.Policy{}, dErrors.New(dErrors.CodeZeroPremium, "premium must be greater than zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	policy := ledger.Policy{
		Identity:     identity,
		Premium:      premium,
		ClaimPaid:    false,
		RegisteredAt: requestcontext.Now(ctx),
	}
	if err := s.store.Insert(ctx, policy); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return ledger.Policy{}, dErrors.New(dErrors.CodeAlreadyRegistered, "identity already holds a policy")
		}
		return ledger.Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register policy")
	}
	if err := s.store.CreditFunds(ctx, premium); err != nil {
		return ledger.Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to escrow premium")
	}
	s.publishBalance(ctx)
	s.metrics.IncrementPoliciesRegistered()
	s.emit(ctx, audit.Event{
		Action:   audit.ActionPolicyRegistered,
		Identity: identity,
		Amount:   premium,
	})
	return policy, nil
}

// UpdateThresholds atomically replaces both breach cutoffs. Admin only.
func (s *Service) UpdateThresholds(ctx context.Context, caller id.ParticipantID, t ledger.Thresholds) error {
	if caller != s.admin {
		return dErrors.New(dErrors.CodeUnauthorized, "only the admin may update thresholds")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetThresholds(ctx, t); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update thresholds")
	}
	s.emit(ctx, audit.Event{
		Action: audit.ActionThresholdsUpdated,
		Reason: thresholdsReason(t),
	})
	return nil
}

// AcceptFunds is the passive receive path: it credits escrow without
// touching the registry. A zero amount is a harmless no-op.
func (s *Service) AcceptFunds(ctx context.Context, identity id.ParticipantID, amount uint64) error {
	if amount == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.CreditFunds(ctx, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to accept funds")
	}
	s.publishBalance(ctx)
	s.metrics.IncrementFundsAccepted()
	s.emit(ctx, audit.Event{
		Action:   audit.ActionFundsAccepted,
		Identity: identity,
		Amount:   amount,
	})
	return nil
}

// GetPolicy returns the policy registered for an identity.
func (s *Service) GetPolicy(ctx context.Context, identity id.ParticipantID) (ledger.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	policy, err := s.store.Get(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ledger.Policy{}, dErrors.New(dErrors.CodeNotFound, "no policy for identity")
		}
		return ledger.Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}
	return policy, nil
}

// ListPolicies returns every policy in registration order.
func (s *Service) ListPolicies(ctx context.Context) ([]ledger.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	policies, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	return policies, nil
}

// Thresholds returns the current breach configuration.
func (s *Service) Thresholds(ctx context.Context) (ledger.Thresholds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Thresholds(ctx)
	if err != nil {
		return ledger.Thresholds{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load thresholds")
	}
	return t, nil
}

// Balance returns the ledger-held escrow balance.
func (s *Service) Balance(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.store.Balance(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	return balance, nil
}

// Admin returns the immutable admin identity.
func (s *Service) Admin() id.ParticipantID {
	return s.admin
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"identity", event.Identity.String(),
			"error", err,
		)
	}
}

func (s *Service) publishBalance(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if balance, err := s.store.Balance(ctx); err == nil {
		s.metrics.SetEscrowBalance(balance)
	}
}

func thresholdsReason(t ledger.Thresholds) string {
	return "rainfall=" + strconv.FormatUint(t.Rainfall, 10) +
		" temperature=" + strconv.FormatUint(t.Temperature, 10)
}
