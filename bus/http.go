package bus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xraph/assetsync/event"
)

// HTTP posts envelopes to an ingress endpoint of the bus.
type HTTP struct {
	url    string
	token  string
	client *http.Client
}

var _ Publisher = (*HTTP)(nil)

// NewHTTP creates a publisher posting to url. token, when set, is sent as a
// bearer token.
func NewHTTP(url, token string, timeout time.Duration) *HTTP {
	return &HTTP{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

// Publish posts the envelope; any non-2xx status is an error.
func (h *HTTP) Publish(ctx context.Context, env *event.Envelope) error {
	body, err := env.JSON()
	if err != nil {
		return fmt.Errorf("bus: http: encode %s: %w", env.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bus: http: create request: %w", err)
	}
	req.Header.Set("Content-Type", ContentTypeCloudEvents)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req) //nolint:gosec // G107: ingress URL comes from configuration.
	if err != nil {
		return fmt.Errorf("bus: http: publish %s: %w", env.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bus: http: publish %s: status %d: %s", env.ID, resp.StatusCode, msg)
	}
	return nil
}

// Close releases idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
