package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/multiverse/internal/config"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.input), &out, "Make a big mess?")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Make a big mess? (yes/no): ", out.String())
	}
}

func TestApplyOverrides(t *testing.T) {
	require.NoError(t, healthCmd.ParseFlags([]string{"--server", "http://example.test:9000", "--log-level", "DEBUG"}))

	cfg := config.Default()
	require.NoError(t, applyOverrides(healthCmd, &cfg))
	assert.Equal(t, "http://example.test:9000", cfg.Server)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)

	require.NoError(t, healthCmd.ParseFlags([]string{"--log-level", "loud"}))
	cfg = config.Default()
	err := applyOverrides(healthCmd, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

type recordingServer struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.paths = append(r.paths, req.Method+" "+req.URL.Path)
	r.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (r *recordingServer) requests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.toml"), "--log-level", "error"))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHealthCommand(t *testing.T) {
	srv := &recordingServer{}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	out, err := execute(t, "", "health", "--server", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "is healthy")
	assert.Equal(t, []string{"GET /api/health"}, srv.requests())
}

func TestHealthCommand_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "warming up", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	_, err := execute(t, "", "health", "--server", server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not healthy")
}

func TestBigBangCommand_AsksFirst(t *testing.T) {
	srv := &recordingServer{}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	out, err := execute(t, "no\n", "bigbang", "--server", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to destroy everything?")
	assert.Contains(t, out, "Aborted")
	assert.Empty(t, srv.requests())

	out, err = execute(t, "yes\n", "merge", "--server", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Make a big mess?")
	assert.Contains(t, out, "Done.")
	assert.Equal(t, []string{"POST /api/merge"}, srv.requests())

	out, err = execute(t, "", "bigbang", "--yes", "--server", server.URL)
	require.NoError(t, err)
	assert.NotContains(t, out, "Are you sure")
	assert.Equal(t, []string{"POST /api/merge", "POST /api/bigbang"}, srv.requests())
}
