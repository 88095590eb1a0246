//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"parasol/internal/audit"
	"parasol/pkg/testutil/containers"
)

type AuditPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestAuditPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditPostgresSuite))
}

func (s *AuditPostgresSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = audit.NewPostgresStore(s.postgres.DB)
	s.Require().NoError(s.store.Init(context.Background()))
}

func (s *AuditPostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func event(action string, at time.Time) audit.Event {
	return audit.Event{
		ID:        uuid.New(),
		Timestamp: at,
		Action:    action,
		Identity:  "alice",
		Amount:    100,
		RequestID: uuid.NewString(),
	}
}

// TestIdempotentAppend verifies that re-appending the same event ID leaves a
// single row.
func (s *AuditPostgresSuite) TestIdempotentAppend() {
	ctx := context.Background()
	e := event(audit.ActionClaimPaid, time.Now().UTC())

	s.Require().NoError(s.store.Append(ctx, e))
	s.Require().NoError(s.store.Append(ctx, e))

	events, err := s.store.ListByIdentity(ctx, "alice")
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *AuditPostgresSuite) TestListByIdentityChronological() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 5; i++ {
		e := event(audit.ActionFundsAccepted, base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.Append(ctx, e))
	}

	events, err := s.store.ListByIdentity(ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(events, 5)
	for i := 1; i < len(events); i++ {
		s.False(events[i].Timestamp.Before(events[i-1].Timestamp), "events must be oldest first")
	}
}

func (s *AuditPostgresSuite) TestListRecentNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 10; i++ {
		e := event(audit.ActionPolicyRegistered, base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.Append(ctx, e))
	}

	events, err := s.store.ListRecent(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(base.Add(9*time.Second), events[0].Timestamp.UTC())
}
