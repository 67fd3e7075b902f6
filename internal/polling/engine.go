// Package polling runs the registry's submit-then-poll protocol.
//
// Every remote operation the registry exposes (record search, certificate
// issuance, individual INN resolution) follows the same shape: one submit
// call, then repeated polls until the remote reports the result is ready.
// Any call may be answered with a CAPTCHA demand. The engine never solves the
// challenge; it backs off linearly and retries the same call.
//
// Exhausting the attempt ceiling is not an error: the last received response
// is returned so callers can inspect whatever partial state it carries.
package polling

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"egrul/internal/platform/metrics"
	"egrul/pkg/requestcontext"
)

// Sleeper pauses a run between attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Engine executes polling runs. It holds no per-run state and is safe to share
// between concurrent lookups.
type Engine struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	sleeper Sleeper
	tracer  trace.Tracer
}

type Option func(e *Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithSleeper(s Sleeper) Option {
	return func(e *Engine) {
		e.sleeper = s
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:  slog.Default(),
		sleeper: timerSleeper{},
		tracer:  otel.Tracer("egrul/polling"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pause blocks for d using the engine's sleeper. Clients use it for fixed
// delays outside a run.
func (e *Engine) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return e.sleeper.Sleep(ctx, d)
}

// Spec describes one remote operation.
type Spec[R any] struct {
	// Operation names the run in logs, metrics and spans.
	Operation string

	// Submit starts the operation. A non-nil error ends the run as failed
	// unless IsCaptcha reports the accompanying response as a challenge.
	Submit func(ctx context.Context) (R, error)

	// Poll checks on the submitted operation. Nil makes the run submit-only.
	Poll func(ctx context.Context, submitted R) (R, error)

	IsReady   func(R) bool
	IsCaptcha func(R) bool

	// RequestID extracts the remote's token from the submit response.
	RequestID func(R) string

	MaxAttempts int
	Backoff     Backoff

	// OnTransition observes state changes.
	OnTransition func(from, to State)
}

func (s Spec[R]) withDefaults() Spec[R] {
	if s.Operation == "" {
		s.Operation = "poll"
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = DefaultMaxAttempts
	}
	if s.Backoff == nil {
		s.Backoff = Linear(DefaultUnit)
	}
	if s.IsReady == nil {
		s.IsReady = func(R) bool { return true }
	}
	if s.IsCaptcha == nil {
		s.IsCaptcha = func(R) bool { return false }
	}
	return s
}

// Run executes spec on e. It blocks until the run is ready, fails, or exhausts
// its attempts.
func Run[R any](ctx context.Context, e *Engine, spec Spec[R]) Result[R] {
	if e == nil {
		e = New()
	}
	spec = spec.withDefaults()

	ctx, span := e.tracer.Start(ctx, "polling."+spec.Operation)
	defer span.End()

	start := time.Now()
	r := &runner[R]{
		engine: e,
		spec:   spec,
		job:    Job{State: StateSubmitting, AttemptsRemaining: spec.MaxAttempts},
	}
	res := r.run(ctx)
	res.Elapsed = time.Since(start)

	span.SetAttributes(
		attribute.String("polling.outcome", res.Outcome.String()),
		attribute.Int("polling.submits", res.Submits),
		attribute.Int("polling.polls", res.Polls),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	e.metrics.ObservePollRun(spec.Operation, res.Outcome.String(), res.Elapsed)
	return res
}

type runner[R any] struct {
	engine *Engine
	spec   Spec[R]
	job    Job

	submits int
	polls   int
	sleeps  int
}

func (r *runner[R]) run(ctx context.Context) Result[R] {
	submitted, res, ok := r.submit(ctx)
	if !ok {
		return res
	}
	if r.spec.RequestID != nil {
		r.job.RequestID = r.spec.RequestID(submitted)
	}
	if r.spec.Poll == nil {
		r.transition(StateReady)
		return r.result(OutcomeReady, submitted, nil)
	}
	return r.poll(ctx, submitted)
}

func (r *runner[R]) submit(ctx context.Context) (R, Result[R], bool) {
	op := r.spec.Operation
	captcha := 0
	for {
		resp, err := r.spec.Submit(ctx)
		r.submits++
		r.engine.metrics.IncrementAttempt(op, "submit")

		if r.spec.IsCaptcha(resp) {
			captcha++
			r.job.AttemptsRemaining = r.spec.MaxAttempts - captcha
			if captcha >= r.spec.MaxAttempts {
				r.logger(ctx).Warn("challenge persisted through all submit attempts",
					"operation", op,
					"attempts", captcha,
				)
				return resp, r.exhausted(OutcomeChallenged, resp), false
			}
			r.engine.metrics.IncrementCaptchaBackoff(op)
			if err := r.backoff(ctx, captcha, StateSubmitting, "challenge"); err != nil {
				return resp, r.fail(ctx, resp, err), false
			}
			continue
		}

		if err != nil {
			return resp, r.fail(ctx, resp, err), false
		}
		return resp, Result[R]{}, true
	}
}

func (r *runner[R]) poll(ctx context.Context, submitted R) Result[R] {
	op := r.spec.Operation
	r.transition(StatePolling)
	r.job.AttemptsRemaining = r.spec.MaxAttempts

	last := submitted
	attempts, captcha := 0, 0
	for {
		resp, err := r.spec.Poll(ctx, submitted)
		r.polls++
		r.engine.metrics.IncrementAttempt(op, "poll")

		if r.spec.IsCaptcha(resp) {
			last = resp
			captcha++
			if captcha >= r.spec.MaxAttempts {
				r.logger(ctx).Warn("challenge persisted through all poll attempts",
					"operation", op,
					"request_id", r.job.RequestID,
					"attempts", captcha,
				)
				return r.exhausted(OutcomeChallenged, last)
			}
			r.engine.metrics.IncrementCaptchaBackoff(op)
			if err := r.backoff(ctx, captcha, StatePolling, "challenge"); err != nil {
				return r.fail(ctx, last, err)
			}
			continue
		}

		if err != nil && !IsTransport(err) {
			return r.fail(ctx, resp, err)
		}

		attempts++
		r.job.AttemptsRemaining = r.spec.MaxAttempts - attempts
		if err != nil {
			r.logger(ctx).Warn("poll round trip failed",
				"operation", op,
				"request_id", r.job.RequestID,
				"attempt", attempts,
				"error", err,
			)
		} else {
			last = resp
			if r.spec.IsReady(resp) {
				r.transition(StateReady)
				return r.result(OutcomeReady, resp, nil)
			}
		}

		if attempts >= r.spec.MaxAttempts {
			r.logger(ctx).Warn("poll attempts exhausted before ready",
				"operation", op,
				"request_id", r.job.RequestID,
				"attempts", attempts,
			)
			return r.exhausted(OutcomeWaiting, last)
		}
		if err := r.backoff(ctx, attempts, StatePolling, "wait"); err != nil {
			return r.fail(ctx, last, err)
		}
	}
}

func (r *runner[R]) backoff(ctx context.Context, attempt int, resume State, reason string) error {
	d := r.spec.Backoff(attempt)
	r.transition(StateAwaitingBackoff)
	r.sleeps++
	r.logger(ctx).Info("backing off",
		"operation", r.spec.Operation,
		"reason", reason,
		"attempt", attempt,
		"delay", d,
	)
	if err := r.engine.sleeper.Sleep(ctx, d); err != nil {
		return err
	}
	r.transition(resume)
	return nil
}

func (r *runner[R]) fail(ctx context.Context, resp R, err error) Result[R] {
	r.logger(ctx).Error("polling run failed",
		"operation", r.spec.Operation,
		"request_id", r.job.RequestID,
		"state", r.job.State.String(),
		"error", err,
	)
	r.transition(StateFailed)
	return r.result(OutcomeFailed, resp, err)
}

func (r *runner[R]) exhausted(outcome Outcome, resp R) Result[R] {
	r.job.Exhausted = true
	r.job.AttemptsRemaining = 0
	return r.result(outcome, resp, nil)
}

func (r *runner[R]) transition(to State) {
	from := r.job.State
	if from == to {
		return
	}
	r.job.State = to
	if r.spec.OnTransition != nil {
		r.spec.OnTransition(from, to)
	}
}

func (r *runner[R]) result(outcome Outcome, resp R, err error) Result[R] {
	return Result[R]{
		Outcome:  outcome,
		Response: resp,
		Err:      err,
		Job:      r.job,
		Submits:  r.submits,
		Polls:    r.polls,
		Sleeps:   r.sleeps,
	}
}

func (r *runner[R]) logger(ctx context.Context) *slog.Logger {
	l := r.engine.logger
	if id := requestcontext.LookupID(ctx); id != "" {
		l = l.With("lookup_id", id)
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		l = l.With("http_request_id", id)
	}
	return l
}
