package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/multiverse/internal/universe"
)

// API is the set of HTTP calls the client core depends on.
// *Client implements it; tests substitute fakes.
type API interface {
	Health(ctx context.Context) error
	CreateUniverse(ctx context.Context, rec universe.Record) error
	ResetMultiverse(ctx context.Context) error
	MergeMultiverse(ctx context.Context) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the multiverse HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultServer    = "http://127.0.0.1:8080"
	defaultUserAgent = "multiverse/0.1"
	requestTimeout   = 5 * time.Second
	updatesPath      = "/ws/updates"

	// maxErrorBody caps how much of a failed response is kept for display.
	maxErrorBody = 4 << 10
)

// APIError is returned for non-2xx responses. Body is the trimmed response
// text, which is what gets shown to the user.
type APIError struct {
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Body)
}

// Message returns the text to show in an alert.
func (e *APIError) Message() string {
	if e.Body != "" {
		return e.Body
	}
	return http.StatusText(e.Status)
}

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NewClient builds a Client for the given server address. Accepts host:port
// or a full http(s) URL.
func NewClient(server string) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns a copy of the server URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// UpdatesURL derives the push channel address from the server origin,
// switching http to ws and https to wss.
func (c *Client) UpdatesURL() string {
	return UpdatesURL(c.baseURL)
}

// UpdatesURL derives the push channel address for base.
func UpdatesURL(base *url.URL) string {
	u := *base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + updatesPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// Health pings GET /api/health.
func (c *Client) Health(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodGet, "/api/health", nil)
}

// CreateUniverse submits a new universe via POST /api/universe.
func (c *Client) CreateUniverse(ctx context.Context, rec universe.Record) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid universe: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/api/universe", rec)
}

// ResetMultiverse asks the server to destroy every universe (POST /api/bigbang).
func (c *Client) ResetMultiverse(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, "/api/bigbang", struct{}{})
}

// MergeMultiverse asks the server to merge all universes (POST /api/merge).
func (c *Client) MergeMultiverse(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, "/api/merge", struct{}{})
}

func (c *Client) do(ctx context.Context, method, path string, body any) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse server %q: scheme must be http or https", server)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server %q: missing host", server)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
