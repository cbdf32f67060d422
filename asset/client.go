package asset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrFetchFailed is returned when the asset document cannot be retrieved.
	ErrFetchFailed = errors.New("asset: fetch failed")

	// ErrHostNotAllowed is returned when a notification names a host other
	// than the configured DAM base URL.
	ErrHostNotAllowed = errors.New("asset: host not allowed")
)

const maxErrorBody = 1024

// Fetcher retrieves asset metadata from the DAM.
type Fetcher interface {
	Fetch(ctx context.Context, host, path string) (*Asset, error)
}

// Client fetches asset documents over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL pins the client to one DAM origin. Notifications without a
// host use it; notifications naming another origin are refused.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithToken sets the bearer token. It is only sent to the WithBaseURL origin.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a client with the given request timeout.
func NewClient(timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{client: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Fetcher = (*Client)(nil)

// Fetch GETs <host><path>.json and decodes the asset document.
func (c *Client) Fetch(ctx context.Context, host, path string) (*Asset, error) {
	host, err := c.resolveHost(host)
	if err != nil {
		return nil, err
	}
	if host == "" || path == "" {
		return nil, fmt.Errorf("%w: host and path are required", ErrFetchFailed)
	}

	target := strings.TrimRight(host, "/") + "/" + strings.TrimLeft(path, "/") + ".json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" && c.baseURL != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req) //nolint:gosec // G107: host is checked against the base URL.
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %s: status %d: %s", ErrFetchFailed, target, resp.StatusCode, body)
	}

	var a Asset
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrFetchFailed, target, err)
	}
	if a.Path == "" {
		a.Path = path
	}

	return &a, nil
}

// resolveHost applies the base URL policy to a notification host.
func (c *Client) resolveHost(host string) (string, error) {
	switch {
	case host == "":
		return c.baseURL, nil
	case c.baseURL == "":
		return host, nil
	case !sameOrigin(host, c.baseURL):
		return "", fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	default:
		return c.baseURL, nil
	}
}

func sameOrigin(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) && strings.EqualFold(ua.Host, ub.Host)
}
