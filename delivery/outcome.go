package delivery

// Outcome classifies a finished brand delivery.
type Outcome string

const (
	// OutcomeDelivered is a 2xx with a well-formed response body.
	OutcomeDelivered Outcome = "delivered"

	// OutcomeRejected is a 4xx other than 410 and 429. It will not self-correct.
	OutcomeRejected Outcome = "rejected"

	// OutcomeFailed is a 5xx, a 429 or a transport error.
	OutcomeFailed Outcome = "failed"

	// OutcomeInvalidResponse is a 2xx whose body lacks eventType or routingResult.
	OutcomeInvalidResponse Outcome = "invalid_response"

	// OutcomeGone is a 410: the brand endpoint no longer exists.
	OutcomeGone Outcome = "gone"
)

// SkipReason explains why a brand was not attempted.
type SkipReason string

const (
	SkipNotRegistered SkipReason = "not_registered"
	SkipLookupFailed  SkipReason = "lookup_failed"
	SkipDisabled      SkipReason = "disabled"
	SkipCancelled     SkipReason = "cancelled"
	SkipInvalidEvent  SkipReason = "invalid_event"
)

// Result holds the outcome of a single delivery attempt.
type Result struct {
	StatusCode int
	Error      string
	Response   string
	LatencyMs  int

	// InvalidResponse is set for a 2xx whose body has the wrong shape.
	InvalidResponse bool

	// EventType and RoutingResult come from a well-formed brand response.
	EventType     string
	RoutingResult map[string]any

	// Headers are the request headers with credentials redacted.
	Headers map[string]string
}

// Failure describes a delivery that did not succeed, for the DLQ.
type Failure struct {
	BrandID    string
	EventID    string
	EventType  string
	URL        string
	Envelope   []byte
	Outcome    Outcome
	Error      string
	StatusCode int
	Response   string
	Attempts   int
}
