package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xraph/assetsync/event"
	"github.com/xraph/assetsync/registry"
	"github.com/xraph/assetsync/signature"
)

const (
	maxResponseBody = 1024    // stored/logged response cap
	maxParseBody    = 1 << 20 // brand responses larger than this are invalid

	// DefaultUserAgent is sent when no other agent is configured.
	DefaultUserAgent = "AssetSync/1.0"
)

// Header names sent with every delivery.
const (
	HeaderBrandID            = "X-Brand-Id"
	HeaderBrandSecret        = "X-Brand-Secret"
	HeaderEventID            = "X-Event-Id"
	HeaderEventType          = "X-Event-Type"
	HeaderAgencyID           = "X-Agency-Id"
	HeaderSignature          = "X-Signature"
	HeaderSignatureTimestamp = "X-Signature-Timestamp"
)

// Sender performs the HTTP delivery of an envelope to a brand.
type Sender struct {
	client    *http.Client
	agencyID  string
	userAgent string
	now       func() time.Time
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithAgencyID sets the X-Agency-Id header value.
func WithAgencyID(agencyID string) SenderOption {
	return func(s *Sender) { s.agencyID = agencyID }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) SenderOption {
	return func(s *Sender) { s.userAgent = ua }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) SenderOption {
	return func(s *Sender) { s.client = c }
}

// NewSender creates a sender with the given HTTP timeout.
func NewSender(timeout time.Duration, opts ...SenderOption) *Sender {
	s := &Sender{
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers env to the brand endpoint and returns the result.
func (s *Sender) Send(ctx context.Context, b *registry.Brand, env *event.Envelope) Result {
	body, err := env.JSON()
	if err != nil {
		return Result{Error: fmt.Sprintf("marshal envelope: %v", err)}
	}
	return s.SendRaw(ctx, b, body, env.ID, env.Type)
}

// SendRaw delivers an already-encoded envelope. It is used by DLQ replay.
func (s *Sender) SendRaw(ctx context.Context, b *registry.Brand, body []byte, eventID, eventType string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return Result{Error: fmt.Sprintf("create request: %v", err)}
	}

	req.Header.Set("Content-Type", event.ContentTypeJSON)
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set(HeaderBrandID, b.ID)
	req.Header.Set(HeaderBrandSecret, b.Secret)
	req.Header.Set(HeaderEventID, eventID)
	req.Header.Set(HeaderEventType, eventType)
	if s.agencyID != "" {
		req.Header.Set(HeaderAgencyID, s.agencyID)
	}

	ts := s.now().Unix()
	req.Header.Set(HeaderSignature, signature.Sign(body, b.Secret, ts))
	req.Header.Set(HeaderSignatureTimestamp, strconv.FormatInt(ts, 10))

	headers := SanitizeHeaders(req.Header)

	start := time.Now()
	resp, err := s.client.Do(req) //nolint:gosec // G704: URL is the brand's registered endpoint.
	latency := int(time.Since(start).Milliseconds())

	if err != nil {
		return Result{Error: err.Error(), LatencyMs: latency, Headers: headers}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxParseBody+1))
	res := Result{
		StatusCode: resp.StatusCode,
		Response:   truncate(respBody, maxResponseBody),
		LatencyMs:  latency,
		Headers:    headers,
	}
	if readErr != nil {
		res.Error = fmt.Sprintf("read response: %v", readErr)
		return res
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return res
	}

	if len(respBody) > maxParseBody {
		res.InvalidResponse = true
		res.Error = "invalid response: body too large"
		return res
	}

	eventType, routing, err := ParseBrandResponse(respBody)
	if err != nil {
		res.InvalidResponse = true
		res.Error = err.Error()
		return res
	}
	res.EventType = eventType
	res.RoutingResult = routing

	return res
}

// ParseBrandResponse checks that body is a JSON object with a string
// eventType and an object routingResult.
func ParseBrandResponse(body []byte) (string, map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return "", nil, fmt.Errorf("invalid response: not a JSON object")
	}

	eventType, ok := doc["eventType"].(string)
	if !ok {
		return "", nil, fmt.Errorf("invalid response: eventType missing or not a string")
	}

	routing, ok := doc["routingResult"].(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("invalid response: routingResult missing or not an object")
	}

	return eventType, routing, nil
}

// SanitizeHeaders flattens h for logging with credentials redacted.
func SanitizeHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		key := http.CanonicalHeaderKey(k)
		if sensitive(key) {
			out[key] = "[REDACTED]"
			continue
		}
		out[key] = strings.Join(v, ", ")
	}
	return out
}

func sensitive(key string) bool {
	switch key {
	case "Authorization", HeaderBrandSecret, HeaderSignature:
		return true
	}
	return false
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
