package events

import (
	"context"
	"log/slog"
)

// Async decouples event emission from delivery: market operations enqueue
// and move on, a worker drains to the wrapped publisher. A full buffer drops
// the event with a log line rather than stalling a settlement.
type Async struct {
	next   Publisher
	inbox  chan Event
	logger *slog.Logger
}

func NewAsync(next Publisher, buffer int, logger *slog.Logger) *Async {
	return &Async{
		next:   next,
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (a *Async) Publish(_ context.Context, event Event) error {
	select {
	case a.inbox <- event:
	default:
		a.logger.Warn("event buffer full, dropping notification",
			"type", string(event.Type),
			"name", event.Name,
		)
	}
	return nil
}

// Run drains the inbox until ctx is cancelled. Delivery failures are logged
// and the worker keeps going; notifications are observability, not state.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-a.inbox:
			if err := a.next.Publish(ctx, event); err != nil {
				a.logger.ErrorContext(ctx, "event delivery failed",
					"type", string(event.Type),
					"name", event.Name,
					"error", err.Error(),
				)
			}
		}
	}
}
