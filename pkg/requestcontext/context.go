// Package requestcontext carries request-scoped identifiers that are not tied
// to HTTP. The HTTP middleware and the batch runner set them; the registry,
// the tax ID client and the audit publisher read them so one lookup can be
// followed across log lines and audit events.
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	requestIDKey key = iota
	lookupIDKey
	clientIPKey
	requestTimeKey
)

func value[T any](ctx context.Context, k key) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

// RequestID is the caller-facing correlation ID, or "" when unset.
func RequestID(ctx context.Context) string {
	id, _ := value[string](ctx, requestIDKey)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// LookupID identifies one registry session. Several lookups can share a
// request ID.
func LookupID(ctx context.Context) string {
	id, _ := value[string](ctx, lookupIDKey)
	return id
}

func WithLookupID(ctx context.Context, lookupID string) context.Context {
	return context.WithValue(ctx, lookupIDKey, lookupID)
}

func ClientIP(ctx context.Context) string {
	ip, _ := value[string](ctx, clientIPKey)
	return ip
}

func WithClientIP(ctx context.Context, clientIP string) context.Context {
	return context.WithValue(ctx, clientIPKey, clientIP)
}

// Now returns the time the request started, or the wall clock outside a
// request.
func Now(ctx context.Context) time.Time {
	if t, ok := value[time.Time](ctx, requestTimeKey); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
