package polling

import "time"

// DefaultUnit is the linear backoff step used by the registry clients.
const DefaultUnit = 10 * time.Second

// DefaultMaxAttempts bounds submit retries and poll calls.
const DefaultMaxAttempts = 10

// Backoff maps a 1-based attempt index to a wait duration.
type Backoff func(attempt int) time.Duration

// Linear waits attempt × unit, spacing requests out further the longer the
// remote keeps the run waiting.
func Linear(unit time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return time.Duration(attempt) * unit
	}
}

// Constant waits the same duration after every attempt.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration {
		return d
	}
}
