package audit

import (
	"context"
	"log/slog"
)

// LogStore writes events to a structured logger. It is the fallback sink when
// no broker is configured.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStore{logger: logger.With("component", "audit")}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"category", string(event.Category),
		"action", string(event.Action),
		"outcome", event.Outcome,
		"subject_hash", event.SubjectHash,
		"request_id", event.RequestID,
		"lookup_id", event.LookupID,
		"timestamp", event.Timestamp,
	)
	return nil
}
