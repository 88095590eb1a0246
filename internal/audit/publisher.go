package audit

import (
	"context"

	"github.com/google/uuid"

	id "parasol/pkg/domain"
	"parasol/pkg/requestcontext"
)

// Store is the append-only persistence for the trail.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByIdentity(ctx context.Context, identity id.ParticipantID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink receives a copy of every event for out-of-process consumers.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. Optional
// sinks (Kafka) receive a copy after the store append succeeds.
type Publisher struct {
	store Store
	sinks []Sink
}

func NewPublisher(store Store, sinks ...Sink) *Publisher {
	return &Publisher{store: store, sinks: sinks}
}

// Emit stamps the event and appends it to the trail. A nil Publisher is a
// no-op so services can run without auditing wired (tests, tooling).
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// ListByIdentity returns the trail for one participant.
func (p *Publisher) ListByIdentity(ctx context.Context, identity id.ParticipantID) ([]Event, error) {
	return p.store.ListByIdentity(ctx, identity)
}

// ListRecent returns the most recent events, newest first.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
