package ledger

import (
	"context"
	"sync"

	id "parasol/pkg/domain"
	"parasol/pkg/sentinel"
)

// InMemoryStore keeps the initial implementation lightweight and testable.
// It intentionally favors clarity over performance: a map for lookup plus an
// order slice so the claim cycle scans registered identities
// deterministically.
type InMemoryStore struct {
	mu         sync.RWMutex
	policies   map[id.ParticipantID]*Policy
	order      []id.ParticipantID
	thresholds Thresholds
	balance    uint64
}

// NewInMemoryStore constructs an empty store seeded with the initial
// threshold configuration.
func NewInMemoryStore(initial Thresholds) *InMemoryStore {
	return &InMemoryStore{
		policies:   make(map[id.ParticipantID]*Policy),
		thresholds: initial,
	}
}

func (s *InMemoryStore) Insert(_ context.Context, policy Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.policies[policy.Identity]; exists {
		return sentinel.ErrConflict
	}
	p := policy
	s.policies[policy.Identity] = &p
	s.order = append(s.order, policy.Identity)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, identity id.ParticipantID) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.policies[identity]; ok {
		return *p, nil
	}
	return Policy{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Policy, 0, len(s.order))
	for _, identity := range s.order {
		out = append(out, *s.policies[identity])
	}
	return out, nil
}

func (s *InMemoryStore) SetClaimPaid(_ context.Context, identity id.ParticipantID, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[identity]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.ClaimPaid = paid
	return nil
}

func (s *InMemoryStore) Thresholds(_ context.Context) (Thresholds, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds, nil
}

func (s *InMemoryStore) SetThresholds(_ context.Context, t Thresholds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = t
	return nil
}

func (s *InMemoryStore) Balance(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance, nil
}

func (s *InMemoryStore) CreditFunds(_ context.Context, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance += amount
	return nil
}

func (s *InMemoryStore) DebitFunds(_ context.Context, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balance < amount {
		return sentinel.ErrInvalidState
	}
	s.balance -= amount
	return nil
}
