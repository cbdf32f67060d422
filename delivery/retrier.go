package delivery

import "time"

// Decision is what the engine does after an attempt.
type Decision int

const (
	// Delivered means the brand accepted the envelope.
	Delivered Decision = iota

	// Retry means the attempt failed transiently and attempts remain.
	Retry

	// DLQ means the delivery is finished without success and is recorded
	// in the dead letter queue.
	DLQ
)

// Classify maps an attempt result to an outcome.
//
// Matrix:
//   - 2xx with a valid body → delivered
//   - 2xx with any other body → invalid_response
//   - 410 → gone
//   - 429 → failed (retryable)
//   - other 4xx → rejected
//   - 5xx or 0 (transport error) → failed
func Classify(res Result) Outcome {
	code := res.StatusCode

	if code >= 200 && code < 300 {
		if res.InvalidResponse || res.Error != "" {
			return OutcomeInvalidResponse
		}
		return OutcomeDelivered
	}

	if code == 410 {
		return OutcomeGone
	}

	if code == 429 {
		return OutcomeFailed
	}

	if code >= 400 && code < 500 {
		return OutcomeRejected
	}

	return OutcomeFailed
}

// Retrier decides whether to try again and how long to wait.
type Retrier struct {
	maxAttempts int
	schedule    []time.Duration
}

// NewRetrier creates a retrier. maxAttempts below 1 means a single attempt.
func NewRetrier(maxAttempts int, schedule []time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{maxAttempts: maxAttempts, schedule: schedule}
}

// MaxAttempts returns the attempt bound.
func (r *Retrier) MaxAttempts() int { return r.maxAttempts }

// Decide returns the decision after the given 1-based attempt.
func (r *Retrier) Decide(outcome Outcome, attempt int) Decision {
	switch outcome {
	case OutcomeDelivered:
		return Delivered
	case OutcomeFailed:
		if attempt < r.maxAttempts {
			return Retry
		}
		return DLQ
	default:
		return DLQ
	}
}

// Backoff returns the wait before the attempt following attempt. The last
// schedule entry repeats; an empty schedule means no wait.
func (r *Retrier) Backoff(attempt int) time.Duration {
	if len(r.schedule) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(r.schedule) {
		idx = len(r.schedule) - 1
	}
	return r.schedule[idx]
}
