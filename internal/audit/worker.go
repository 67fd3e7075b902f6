package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and persists them. It returns
// when the inbox is closed or the context ends.
type Worker struct {
	stores []Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(stores []Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{stores: stores, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := appendAll(ctx, w.stores, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
