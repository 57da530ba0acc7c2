package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors for the chrome and the universe grids.
type Theme struct {
	Name string

	// Base colors
	Background string
	Surface    string
	Border     string

	// Text colors
	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string

	// Grid colors
	DeadCell     string // dead cell of a confirmed universe
	EditableCell string // dead cell of an editable universe
	Cursor       string // editor cursor over a dead cell
	CursorAlive  string // editor cursor over a live cell
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		FaintText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header lipgloss.Style
	Footer lipgloss.Style
	Logo   lipgloss.Style
	Panel  lipgloss.Style
}

// WithBackground returns a copy of Styles whose text styles carry bg, so
// segments joined on a colored bar leave no gaps.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	s.Text = s.Text.Background(bg)
	s.MutedText = s.MutedText.Background(bg)
	s.FaintText = s.FaintText.Background(bg)
	s.AccentText = s.AccentText.Background(bg)
	s.SuccessText = s.SuccessText.Background(bg)
	s.WarningText = s.WarningText.Background(bg)
	s.DangerText = s.DangerText.Background(bg)
	s.Logo = s.Logo.Background(bg)
	return s
}

var themes = map[string]Theme{
	"Night": nightTheme(),
	"Day":   dayTheme(),
	"Slate": slateTheme(),
}

var themeOrder = []string{"Night", "Day", "Slate"}

// GetTheme returns a theme by name, falling back to Night.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func nightTheme() Theme {
	// Grid colors from the web client.
	return Theme{
		Name: "Night",

		Background: "#1a1a1a",
		Surface:    "#242424",
		Border:     "#434343",

		Text:    "#e0e0e0",
		Muted:   "#9e9e9e",
		Faint:   "#6b6b6b",
		Accent:  "#4fc3f7",
		Success: "#81c784",
		Warning: "#ffd54f",
		Danger:  "#e57373",

		DeadCell:     "#2c2c2c",
		EditableCell: "#434343",
		Cursor:       "#8a8a8a",
		CursorAlive:  "#ffffff",
	}
}

func dayTheme() Theme {
	return Theme{
		Name: "Day",

		Background: "#fafafa",
		Surface:    "#eeeeee",
		Border:     "#bdbdbd",

		Text:    "#212121",
		Muted:   "#616161",
		Faint:   "#9e9e9e",
		Accent:  "#0277bd",
		Success: "#2e7d32",
		Warning: "#ef6c00",
		Danger:  "#c62828",

		DeadCell:     "#e0e0e0",
		EditableCell: "#c8c8c8",
		Cursor:       "#757575",
		CursorAlive:  "#000000",
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",

		Background: "#020617", // slate-950
		Surface:    "#0f172a", // slate-900
		Border:     "#334155", // slate-700

		Text:    "#f1f5f9", // slate-100
		Muted:   "#94a3b8", // slate-400
		Faint:   "#64748b", // slate-500
		Accent:  "#38bdf8", // sky-400
		Success: "#22c55e", // green-500
		Warning: "#f59e0b", // amber-500
		Danger:  "#ef4444", // red-500

		DeadCell:     "#1e293b", // slate-800
		EditableCell: "#334155", // slate-700
		Cursor:       "#64748b", // slate-500
		CursorAlive:  "#f8fafc", // slate-50
	}
}
