package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/multiverse/internal/connection"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	space := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Surface)).Render("  ")

	parts := []string{
		styles.Logo.Render("multiverse"),
		m.connectionBadge(styles),
		styles.MutedText.Render("Confirmed:") + styles.Text.Render(fmt.Sprintf(" %d", len(m.view.Confirmed))),
	}
	if n := len(m.view.Editable); n > 0 {
		parts = append(parts, styles.MutedText.Render("Editing:")+styles.AccentText.Render(fmt.Sprintf(" %d", n)))
	}
	if !m.view.LastSnapshotAt.IsZero() && m.width >= 80 {
		parts = append(parts, styles.FaintText.Render("updated "+m.view.LastSnapshotAt.Format("15:04:05")))
	}
	if m.view.LastError != nil {
		parts = append(parts, styles.DangerText.Render(truncate("bad snapshot: "+m.view.LastError.Error(), max(m.width/3, 20))))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, space))
}

// connectionBadge summarizes the push channel. A channel that closed once is
// reconnecting; one that failed to come back is offline.
func (m Model) connectionBadge(styles Styles) string {
	switch m.view.Connection {
	case connection.StateOpen:
		return styles.SuccessText.Render("● live")
	case connection.StateConnecting:
		if m.view.ConsecutiveClosed > 0 {
			return styles.WarningText.Render("● reconnecting")
		}
		return styles.WarningText.Render("● connecting")
	case connection.StateStopped:
		return styles.MutedText.Render("● stopped")
	}
	if m.view.IsOffline() {
		return styles.DangerText.Render("● offline")
	}
	return styles.WarningText.Render("● reconnecting")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func formatCursor(c cell) string {
	return fmt.Sprintf("(%d,%d)", c.x, c.y)
}
