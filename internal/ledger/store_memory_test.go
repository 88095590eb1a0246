package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	id "parasol/pkg/domain"
	"parasol/pkg/sentinel"
)

// =============================================================================
// In-Memory Store Test Suite
// =============================================================================

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore(Thresholds{Rainfall: 50, Temperature: 35})
}

func (s *InMemoryStoreSuite) TestInsert() {
	ctx := context.Background()

	s.Run("stores a new policy", func() {
		err := s.store.Insert(ctx, Policy{Identity: "alice", Premium: 100})
		s.NoError(err)

		got, err := s.store.Get(ctx, "alice")
		s.NoError(err)
		s.Equal(uint64(100), got.Premium)
		s.False(got.ClaimPaid)
	})

	s.Run("duplicate identity returns conflict", func() {
		err := s.store.Insert(ctx, Policy{Identity: "alice", Premium: 999})
		s.ErrorIs(err, sentinel.ErrConflict)

		// The original policy is untouched.
		got, err := s.store.Get(ctx, "alice")
		s.NoError(err)
		s.Equal(uint64(100), got.Premium)
	})
}

func (s *InMemoryStoreSuite) TestGet() {
	ctx := context.Background()

	s.Run("missing identity returns not found", func() {
		_, err := s.store.Get(ctx, "nobody")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestListPreservesRegistrationOrder() {
	ctx := context.Background()

	var want []id.ParticipantID
	for i := 0; i < 10; i++ {
		identity := id.ParticipantID(fmt.Sprintf("participant-%d", i))
		want = append(want, identity)
		s.Require().NoError(s.store.Insert(ctx, Policy{Identity: identity, Premium: 1}))
	}

	policies, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(policies, len(want))
	for i, policy := range policies {
		s.Equal(want[i], policy.Identity)
	}
}

func (s *InMemoryStoreSuite) TestSetClaimPaid() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, Policy{Identity: "alice", Premium: 100}))

	s.Run("marks and clears the flag", func() {
		s.NoError(s.store.SetClaimPaid(ctx, "alice", true))
		got, err := s.store.Get(ctx, "alice")
		s.NoError(err)
		s.True(got.ClaimPaid)

		s.NoError(s.store.SetClaimPaid(ctx, "alice", false))
		got, err = s.store.Get(ctx, "alice")
		s.NoError(err)
		s.False(got.ClaimPaid)
	})

	s.Run("missing identity returns not found", func() {
		s.ErrorIs(s.store.SetClaimPaid(ctx, "nobody", true), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestThresholds() {
	ctx := context.Background()

	s.Run("returns the seeded configuration", func() {
		t, err := s.store.Thresholds(ctx)
		s.NoError(err)
		s.Equal(Thresholds{Rainfall: 50, Temperature: 35}, t)
	})

	s.Run("replaces both cutoffs atomically", func() {
		s.NoError(s.store.SetThresholds(ctx, Thresholds{Rainfall: 10, Temperature: 45}))
		t, err := s.store.Thresholds(ctx)
		s.NoError(err)
		s.Equal(Thresholds{Rainfall: 10, Temperature: 45}, t)
	})
}

func (s *InMemoryStoreSuite) TestFunds() {
	ctx := context.Background()

	s.Run("credits accumulate", func() {
		s.NoError(s.store.CreditFunds(ctx, 100))
		s.NoError(s.store.CreditFunds(ctx, 50))
		balance, err := s.store.Balance(ctx)
		s.NoError(err)
		s.Equal(uint64(150), balance)
	})

	s.Run("debit beyond balance is refused", func() {
		err := s.store.DebitFunds(ctx, 151)
		s.ErrorIs(err, sentinel.ErrInvalidState)

		balance, err := s.store.Balance(ctx)
		s.NoError(err)
		s.Equal(uint64(150), balance)
	})

	s.Run("debit within balance succeeds", func() {
		s.NoError(s.store.DebitFunds(ctx, 150))
		balance, err := s.store.Balance(ctx)
		s.NoError(err)
		s.Equal(uint64(0), balance)
	})
}
