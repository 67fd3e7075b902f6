package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithLookupID(ctx, "lookup-1")
	ctx = WithClientIP(ctx, "10.0.0.1")
	ctx = WithTime(ctx, started)

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "lookup-1", LookupID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, started, Now(ctx))
}

func TestAccessors_Unset(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, LookupID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestKeysDoNotCollideWithPlainStrings(t *testing.T) {
	ctx := context.WithValue(context.Background(), "request_id", "spoofed") //nolint:staticcheck

	assert.Empty(t, RequestID(ctx))
}
