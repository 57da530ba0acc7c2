package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/five82/multiverse/internal/logtail"
)

const logFetchLimit = 400

type logLinesMsg struct {
	lines []logtail.Line
	err   error
}

func readLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, logFetchLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

// initLogViewport sizes the log pane below the header and title and above
// the footer, inside the box borders.
func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(max(m.width-4, 1), max(m.height-5, 1))
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	if msg.err != nil {
		m.logLines = []logtail.Line{logtail.Parse("level=error msg=\"read log: " + msg.err.Error() + "\"")}
	} else {
		m.logLines = msg.lines
	}
	atBottom := m.logViewport.AtBottom()
	m.logViewport.SetContent(m.renderLogContent())
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogContent() string {
	if len(m.logLines) == 0 {
		return m.theme.Styles().MutedText.Render("No log lines yet.")
	}
	styles := m.theme.Styles()
	out := make([]string, len(m.logLines))
	for i, line := range m.logLines {
		style := styles.Text
		if line.HasLevel {
			switch {
			case line.Level <= logrus.ErrorLevel:
				style = styles.DangerText
			case line.Level == logrus.WarnLevel:
				style = styles.WarningText
			case line.Level >= logrus.DebugLevel:
				style = styles.FaintText
			}
		}
		out[i] = style.Render(line.Text)
	}
	return strings.Join(out, "\n")
}

func (m Model) renderLogs() string {
	title := m.theme.Styles().AccentText.Render("Log " + m.logPath)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Width(max(m.width-2, 1)).
		Render(m.logViewport.View())
	return lipgloss.JoinVertical(lipgloss.Left, title, box)
}
