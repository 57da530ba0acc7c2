package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/five82/multiverse/internal/universe"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultServer {
		t.Fatalf("url = %q, want %q", u.String(), defaultServer)
	}

	u, err = parseBaseURL("example.com:1234")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "example.com:1234" {
		t.Fatalf("url = %q, want http://example.com:1234", u.String())
	}

	u, err = parseBaseURL("https://example.com/app?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("ftp://example.com"); err == nil {
		t.Fatalf("parseBaseURL(ftp) returned nil error, want error")
	}
}

func TestUpdatesURL_SwitchesScheme(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws/updates"},
		{"https://life.example.com", "wss://life.example.com/ws/updates"},
		{"10.0.0.1:9000", "ws://10.0.0.1:9000/ws/updates"},
	}
	for _, tt := range tests {
		c, err := NewClient(tt.server)
		if err != nil {
			t.Fatalf("NewClient(%q) returned error: %v", tt.server, err)
		}
		if got := c.UpdatesURL(); got != tt.want {
			t.Fatalf("UpdatesURL(%q) = %q, want %q", tt.server, got, tt.want)
		}
	}
	base, _ := url.Parse("https://h/sub/")
	if got := UpdatesURL(base); got != "wss://h/sub/ws/updates" {
		t.Fatalf("UpdatesURL with path = %q", got)
	}
}

func TestClient_CallsEndpoints(t *testing.T) {
	t.Parallel()

	type call struct {
		method, path, contentType, userAgent string
		body                                  []byte
	}
	calls := make(chan call, 8)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls <- call{r.Method, r.URL.Path, r.Header.Get("Content-Type"), r.Header.Get("User-Agent"), body}
		switch r.URL.Path {
		case "/api/health":
			_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		case "/api/universe":
			w.WriteHeader(http.StatusCreated)
		case "/api/bigbang", "/api/merge":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	if err := c.Health(ctx); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	got := <-calls
	if got.method != http.MethodGet || got.path != "/api/health" || len(got.body) != 0 {
		t.Fatalf("Health call = %+v, want GET /api/health without body", got)
	}
	if !strings.HasPrefix(got.userAgent, "multiverse/") {
		t.Fatalf("User-Agent = %q, want multiverse/*", got.userAgent)
	}

	grid := universe.NewGrid(2)
	grid[0][1] = true
	if err := c.CreateUniverse(ctx, universe.Record{Colour: 0x112233, Cells: grid}); err != nil {
		t.Fatalf("CreateUniverse returned error: %v", err)
	}
	got = <-calls
	if got.method != http.MethodPost || got.path != "/api/universe" || got.contentType != "application/json" {
		t.Fatalf("CreateUniverse call = %+v", got)
	}
	var sent struct {
		Colour string   `json:"colour"`
		Cells  [][]bool `json:"cells"`
	}
	if err := json.Unmarshal(got.body, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent.Colour != "#112233" || len(sent.Cells) != 2 || !sent.Cells[0][1] {
		t.Fatalf("CreateUniverse body = %s", got.body)
	}

	if err := c.ResetMultiverse(ctx); err != nil {
		t.Fatalf("ResetMultiverse returned error: %v", err)
	}
	if got = <-calls; got.path != "/api/bigbang" || string(got.body) != "{}" {
		t.Fatalf("ResetMultiverse call = %+v, want POST /api/bigbang {}", got)
	}

	if err := c.MergeMultiverse(ctx); err != nil {
		t.Fatalf("MergeMultiverse returned error: %v", err)
	}
	if got = <-calls; got.path != "/api/merge" || string(got.body) != "{}" {
		t.Fatalf("MergeMultiverse call = %+v, want POST /api/merge {}", got)
	}
}

func TestClient_ErrorCarriesResponseBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "multiverse is full", http.StatusConflict)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	err = c.MergeMultiverse(context.Background())
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("MergeMultiverse error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message() != "multiverse is full" {
		t.Fatalf("APIError = %+v, want 409 with body", apiErr)
	}
	if !strings.Contains(err.Error(), "returned status 409") {
		t.Fatalf("error text = %q, want status", err.Error())
	}
}

func TestClient_CreateUniverseRejectsEmptyGrid(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.CreateUniverse(context.Background(), universe.Record{Colour: 1}); err == nil {
		t.Fatalf("CreateUniverse returned nil error, want error")
	}
}

func TestClient_NetworkErrorIsWrapped(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	err = c.Health(context.Background())
	if err == nil || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("Health error = %v, want execute request error", err)
	}
	if _, ok := AsAPIError(err); ok {
		t.Fatalf("network error reported as APIError")
	}
}

func TestAPIError_MessageFallsBackToStatusText(t *testing.T) {
	e := &APIError{Path: "/api/merge", Status: http.StatusBadGateway}
	if e.Message() != "Bad Gateway" {
		t.Fatalf("Message = %q, want Bad Gateway", e.Message())
	}
}
