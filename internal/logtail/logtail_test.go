package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func writeLines(t *testing.T, n int) string {
	t.Helper()
	var content strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&content, "Line %d\n", i)
	}
	path := filepath.Join(t.TempDir(), "multiverse.log")
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestRead(t *testing.T) {
	path := writeLines(t, 10)

	tests := []struct {
		name     string
		maxLines int
		first    string
		count    int
	}{
		{"zero", 0, "", 0},
		{"negative", -1, "", 0},
		{"partial", 5, "Line 6", 5},
		{"exact", 10, "Line 1", 10},
		{"more than exists", 20, "Line 1", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if len(got) != tt.count {
				t.Fatalf("Read returned %d lines, want %d", len(got), tt.count)
			}
			if tt.count > 0 {
				if got[0].Text != tt.first || got[len(got)-1].Text != "Line 10" {
					t.Fatalf("Read = %v, want %s..Line 10", texts(got), tt.first)
				}
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		hasLevel bool
		level    logrus.Level
	}{
		{`time="2026-01-02T15:04:05Z" level=info msg="push channel connected" url="ws://h/ws/updates"`, true, logrus.InfoLevel},
		{`time="2026-01-02T15:04:05Z" level=warning msg="dropping malformed snapshot"`, true, logrus.WarnLevel},
		{`time="2026-01-02T15:04:05Z" level=error msg="save failed"`, true, logrus.ErrorLevel},
		{`level=bogus msg=x`, false, 0},
		{`plain text`, false, 0},
	}
	for _, tt := range tests {
		got := Parse(tt.input)
		if got.Text != tt.input {
			t.Fatalf("Parse(%q).Text = %q", tt.input, got.Text)
		}
		if got.HasLevel != tt.hasLevel || (tt.hasLevel && got.Level != tt.level) {
			t.Fatalf("Parse(%q) = %+v, want level %v (%v)", tt.input, got, tt.level, tt.hasLevel)
		}
	}
}
