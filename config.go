package assetsync

import (
	"time"

	"github.com/xraph/assetsync/event"
)

// Config holds the configuration for a Syncer.
type Config struct {
	// Concurrency bounds how many brands one fan-out delivers to at once.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// RequestTimeout is the HTTP timeout per brand delivery attempt.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// PublishTimeout bounds each bus publish.
	PublishTimeout time.Duration `json:"publish_timeout" yaml:"publish_timeout"`

	// StoreTimeout bounds each registry store call.
	StoreTimeout time.Duration `json:"store_timeout" yaml:"store_timeout"`

	// FetchTimeout is the HTTP timeout for asset metadata requests.
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`

	// MaxAttempts is the number of in-request attempts for a failing brand.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetrySchedule defines the backoff between attempts.
	RetrySchedule []time.Duration `json:"retry_schedule" yaml:"retry_schedule"`

	// OptimisticLocking rejects brand saves carrying a stale version.
	// Off by default: the last writer wins.
	OptimisticLocking bool `json:"optimistic_locking" yaml:"optimistic_locking"`

	// HighPriorityThreshold stops rule evaluation after a match at or above it.
	HighPriorityThreshold int `json:"high_priority_threshold" yaml:"high_priority_threshold"`

	// Runtime fills the runtime context fields a request leaves empty.
	Runtime event.Runtime `json:"runtime" yaml:"runtime"`
}

// DefaultRetrySchedule keeps in-request retries short.
var DefaultRetrySchedule = []time.Duration{
	500 * time.Millisecond,
	2 * time.Second,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:           10,
		RequestTimeout:        10 * time.Second,
		PublishTimeout:        5 * time.Second,
		StoreTimeout:          3 * time.Second,
		FetchTimeout:          10 * time.Second,
		MaxAttempts:           3,
		RetrySchedule:         DefaultRetrySchedule,
		HighPriorityThreshold: 100,
		Runtime: event.Runtime{
			Namespace:  "assetsync",
			ActionName: "agency",
		},
	}
}
