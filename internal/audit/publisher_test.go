package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "parasol/pkg/domain"
	"parasol/pkg/requestcontext"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captureSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *captureSink) Emit(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) captured() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestPublisherEmitStampsEvent(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	err := publisher.Emit(ctx, Event{
		Action:   ActionPolicyRegistered,
		Identity: id.ParticipantID("alice"),
		Amount:   100,
	})
	require.NoError(t, err)

	events := store.All()
	require.Len(t, events, 1)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, ActionPolicyRegistered, events[0].Action)
}

func TestPublisherEmitFansOutAfterAppend(t *testing.T) {
	store := NewInMemoryStore()
	sink := &captureSink{}
	publisher := NewPublisher(store, sink)

	err := publisher.Emit(context.Background(), Event{Action: ActionClaimPaid, Amount: 200})
	require.NoError(t, err)
	require.Len(t, sink.captured(), 1)
	assert.Equal(t, store.All()[0].ID, sink.captured()[0].ID)
}

func TestPublisherSinkFailureSurfaces(t *testing.T) {
	store := NewInMemoryStore()
	sink := &captureSink{err: errors.New("broker down")}
	publisher := NewPublisher(store, sink)

	err := publisher.Emit(context.Background(), Event{Action: ActionClaimPaid})
	require.Error(t, err)
	// The durable append still happened.
	assert.Len(t, store.All(), 1)
}

func TestNilPublisherIsNoOp(t *testing.T) {
	var publisher *Publisher
	assert.NoError(t, publisher.Emit(context.Background(), Event{Action: ActionFundsAccepted}))
}

func TestChannelSinkDropsWhenFull(t *testing.T) {
	inbox := make(chan Event, 1)
	sink := NewChannelSink(inbox, testLogger())

	require.NoError(t, sink.Emit(context.Background(), Event{Action: ActionClaimPaid}))
	require.NoError(t, sink.Emit(context.Background(), Event{Action: ActionClaimSkipped}))
	assert.Len(t, inbox, 1)
}

func TestWorkerForwardsToSink(t *testing.T) {
	inbox := make(chan Event, 4)
	sink := &captureSink{}
	worker := NewWorker(sink, inbox, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	inbox <- Event{Action: ActionClaimPaid}
	inbox <- Event{Action: ActionClaimCycleComplete}

	assert.Eventually(t, func() bool {
		return len(sink.captured()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
