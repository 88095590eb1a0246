package audit

import (
	"context"
	"log/slog"
)

// ChannelSink enqueues events for a background Worker. The store append is
// synchronous and never dropped; channel-fed sinks are best-effort copies,
// so a full inbox drops the copy rather than stalling the ledger operation.
type ChannelSink struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewChannelSink(inbox chan<- Event, logger *slog.Logger) *ChannelSink {
	return &ChannelSink{inbox: inbox, logger: logger}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) error {
	select {
	case s.inbox <- event:
	default:
		s.logger.WarnContext(ctx, "audit sink inbox full, dropping copy",
			"action", event.Action,
			"event_id", event.ID.String(),
		)
	}
	return nil
}

// Worker drains a sink inbox in the background so slow external sinks never
// block the operation that emitted the event.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run forwards events until the context is canceled. Sink failures are
// logged and skipped; the durable trail already holds the event.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Emit(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit sink emit failed",
					"action", event.Action,
					"event_id", event.ID.String(),
					"error", err,
				)
			}
		}
	}
}
