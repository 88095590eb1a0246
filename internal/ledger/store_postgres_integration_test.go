//go:build integration

package ledger_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"parasol/internal/ledger"
	id "parasol/pkg/domain"
	"parasol/pkg/sentinel"
	"parasol/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *ledger.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = ledger.NewPostgresStore(s.postgres.DB)
	s.Require().NoError(s.store.Init(context.Background(), ledger.Thresholds{Rainfall: 50, Temperature: 35}))
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "policies", "ledger_state"))
	// Reseed the singleton state row.
	s.Require().NoError(s.store.Init(ctx, ledger.Thresholds{Rainfall: 50, Temperature: 35}))
}

func newPolicy(identity string, premium uint64) ledger.Policy {
	return ledger.Policy{
		Identity:     id.ParticipantID(identity),
		Premium:      premium,
		RegisteredAt: time.Now(),
	}
}

// TestConcurrentDuplicateInsert verifies that concurrent registrations of the
// same identity result in exactly one policy.
func (s *PostgresStoreSuite) TestConcurrentDuplicateInsert() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Insert(ctx, newPolicy("contended", 100))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one insert should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict")

	policies, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(policies, 1)
}

// TestListOrder verifies that List returns policies in insert order via the
// position sequence.
func (s *PostgresStoreSuite) TestListOrder() {
	ctx := context.Background()

	identities := []string{"first", "second", "third", "fourth"}
	for _, identity := range identities {
		s.Require().NoError(s.store.Insert(ctx, newPolicy(identity, 10)))
	}

	policies, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(policies, len(identities))
	for i, policy := range policies {
		s.Equal(id.ParticipantID(identities[i]), policy.Identity)
	}
}

func (s *PostgresStoreSuite) TestClaimPaidRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, newPolicy("alice", 100)))

	s.Require().NoError(s.store.SetClaimPaid(ctx, "alice", true))
	policy, err := s.store.Get(ctx, "alice")
	s.Require().NoError(err)
	s.True(policy.ClaimPaid)

	s.Require().NoError(s.store.SetClaimPaid(ctx, "alice", false))
	policy, err = s.store.Get(ctx, "alice")
	s.Require().NoError(err)
	s.False(policy.ClaimPaid)

	s.ErrorIs(s.store.SetClaimPaid(ctx, "ghost", true), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestThresholdsRoundTrip() {
	ctx := context.Background()

	t, err := s.store.Thresholds(ctx)
	s.Require().NoError(err)
	s.Equal(ledger.Thresholds{Rainfall: 50, Temperature: 35}, t)

	s.Require().NoError(s.store.SetThresholds(ctx, ledger.Thresholds{Rainfall: 5, Temperature: 45}))
	t, err = s.store.Thresholds(ctx)
	s.Require().NoError(err)
	s.Equal(ledger.Thresholds{Rainfall: 5, Temperature: 45}, t)
}

// TestConcurrentDebits verifies the balance guard holds under concurrent
// debits: total debited never exceeds the starting balance.
func (s *PostgresStoreSuite) TestConcurrentDebits() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreditFunds(ctx, 1000))

	const goroutines = 50
	var wg sync.WaitGroup
	var succeeded atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.DebitFunds(ctx, 100); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(10), succeeded.Load(), "only ten debits of 100 fit in 1000")

	balance, err := s.store.Balance(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), balance)
}

func (s *PostgresStoreSuite) TestDebitBeyondBalance() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreditFunds(ctx, 50))
	s.ErrorIs(s.store.DebitFunds(ctx, 51), sentinel.ErrInvalidState)

	balance, err := s.store.Balance(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(50), balance)
}
