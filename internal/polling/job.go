package polling

import "time"

// State is the position of a run in the submit/poll state machine.
type State int

const (
	StateSubmitting State = iota
	StateAwaitingBackoff
	StatePolling
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateAwaitingBackoff:
		return "awaiting_backoff"
	case StatePolling:
		return "polling"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Job tracks one in-flight remote operation.
type Job struct {
	RequestID         string
	AttemptsRemaining int
	State             State
	// Exhausted is set when the attempt ceiling ended the run. The state is left
	// where the run stopped: exhaustion is a best-effort return, not a failure.
	Exhausted bool
}

// Outcome tags the final result of a run.
type Outcome int

const (
	OutcomeReady Outcome = iota
	// OutcomeWaiting: attempts ran out while the remote still reported not-ready.
	OutcomeWaiting
	// OutcomeChallenged: attempts ran out while the remote still demanded a CAPTCHA.
	OutcomeChallenged
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomeWaiting:
		return "waiting"
	case OutcomeChallenged:
		return "challenged"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of a run. Response always holds the last
// response received from the remote, whatever the outcome; callers inspect it
// for partial state when the run did not reach Ready.
type Result[R any] struct {
	Outcome  Outcome
	Response R
	Err      error
	Job      Job

	Submits int
	Polls   int
	Sleeps  int
	Elapsed time.Duration
}

// Ready reports whether the run reached the ready state.
func (r Result[R]) Ready() bool {
	return r.Outcome == OutcomeReady
}
