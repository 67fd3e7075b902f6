package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Publisher captures structured audit events and fans them out to every
// configured store. In async mode events are queued and appended by a
// background worker; Close drains the queue.
type Publisher struct {
	stores []Store
	logger *slog.Logger
	now    func() time.Time

	buffer int
	inbox  chan Event
	done   chan struct{}
	once   sync.Once
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithAsyncBuffer queues up to size events for background delivery.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = size
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	return NewFanoutPublisher([]Store{store}, opts...)
}

// NewFanoutPublisher delivers each event to every store in order.
func NewFanoutPublisher(stores []Store, opts ...Option) *Publisher {
	p := &Publisher{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, s := range stores {
		if s != nil {
			p.stores = append(p.stores, s)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.inbox = make(chan Event, p.buffer)
		p.done = make(chan struct{})
		w := NewWorker(p.stores, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if p == nil {
		return nil
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = p.now()
	}
	if base.Category == "" {
		base.Category = base.Action.Category()
	}
	if p.inbox != nil {
		select {
		case p.inbox <- base:
			return nil
		default:
			p.logger.WarnContext(ctx, "audit buffer full, appending synchronously", "action", base.Action)
		}
	}
	return appendAll(ctx, p.stores, base)
}

// Close stops the background worker after draining queued events. It is a
// no-op in sync mode.
func (p *Publisher) Close() {
	if p == nil || p.inbox == nil {
		return
	}
	p.once.Do(func() {
		close(p.inbox)
		<-p.done
	})
}

func appendAll(ctx context.Context, stores []Store, event Event) error {
	var errs []error
	for _, s := range stores {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
