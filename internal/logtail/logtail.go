package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/sirupsen/logrus"
)

// Line is one log line and the logrus level it was written at, if any.
type Line struct {
	Text     string
	Level    logrus.Level
	HasLevel bool
}

var levelRe = regexp.MustCompile(`\blevel=(\w+)`)

// Parse extracts the level from a logrus text formatter line.
func Parse(text string) Line {
	line := Line{Text: text}
	if m := levelRe.FindStringSubmatch(text); m != nil {
		if lvl, err := logrus.ParseLevel(m[1]); err == nil {
			line.Level = lvl
			line.HasLevel = true
		}
	}
	return line
}

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error: the client may not have logged yet.
func Read(path string, maxLines int) ([]Line, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	start := 0
	if count == maxLines {
		start = next
	}
	lines := make([]Line, count)
	for i := range lines {
		lines[i] = Parse(ring[(start+i)%maxLines])
	}
	return lines, nil
}
