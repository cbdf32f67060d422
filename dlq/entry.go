package dlq

import (
	"encoding/json"
	"time"

	"github.com/xraph/assetsync/id"
	"github.com/xraph/assetsync/internal/entity"
)

// Entry is a brand delivery that did not succeed.
type Entry struct {
	entity.Entity

	// ID is the unique TypeID for this DLQ entry.
	ID id.ID `json:"id"`

	BrandID   string `json:"brandId"`
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`

	// URL is the brand endpoint at the time of failure.
	URL string `json:"url"`

	// Envelope is the canonical JSON that failed to deliver.
	Envelope json.RawMessage `json:"envelope"`

	Outcome    string `json:"outcome"`
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode,omitempty"`

	// Response is the brand response body, capped at 1 KiB.
	Response string `json:"response,omitempty"`

	// Attempts counts delivery attempts including replays.
	Attempts int `json:"attempts"`

	FailedAt time.Time `json:"failedAt"`

	// ReplayedAt is set once a replay succeeds.
	ReplayedAt *time.Time `json:"replayedAt,omitempty"`
}

// ListOpts configures filtering and pagination for DLQ listing.
type ListOpts struct {
	Offset    int
	Limit     int
	BrandID   string
	EventType string
	From      *time.Time
	To        *time.Time

	// IncludeReplayed also returns entries that were replayed successfully.
	IncludeReplayed bool
}

func (o ListOpts) match(e *Entry) bool {
	if o.BrandID != "" && e.BrandID != o.BrandID {
		return false
	}
	if o.EventType != "" && e.EventType != o.EventType {
		return false
	}
	if o.From != nil && e.FailedAt.Before(*o.From) {
		return false
	}
	if o.To != nil && e.FailedAt.After(*o.To) {
		return false
	}
	if !o.IncludeReplayed && e.ReplayedAt != nil {
		return false
	}
	return true
}
