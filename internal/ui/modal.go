package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs. Modals take every key while
// open. Update returns the updated modal, a command, and whether it closed.
type Modal interface {
	Update(msg tea.KeyMsg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// alertModal blocks input until the user acknowledges it.
type alertModal struct {
	title   string
	message string
}

func newAlert(title, message string) alertModal {
	return alertModal{title: title, message: message}
}

func (a alertModal) Update(msg tea.KeyMsg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit, true
	case "enter", "esc", " ":
		return a, nil, true
	}
	return a, nil, false
}

func (a alertModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.DangerText.Render(a.title),
		"",
		styles.Text.Render(a.message),
		"",
		styles.FaintText.Render("enter to dismiss"),
	)
	return placeModal(theme, theme.Danger, body, width, height)
}

// confirmModal asks a yes/no question and runs onYes when confirmed.
type confirmModal struct {
	title    string
	question string
	onYes    tea.Cmd
}

func newConfirm(title, question string, onYes tea.Cmd) confirmModal {
	return confirmModal{title: title, question: question, onYes: onYes}
}

func (c confirmModal) Update(msg tea.KeyMsg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Confirm):
		return c, c.onYes, true
	case key.Matches(msg, keys.Cancel):
		return c, nil, true
	case msg.String() == "ctrl+c":
		return c, tea.Quit, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.WarningText.Bold(true).Render(c.title),
		"",
		styles.Text.Render(c.question),
		"",
		styles.FaintText.Render("y confirm · n cancel"),
	)
	return placeModal(theme, theme.Warning, body, width, height)
}

func placeModal(theme Theme, border, body string, width, height int) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(min(50, max(width-4, 20))).
		Render(body)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
