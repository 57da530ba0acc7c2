package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/multiverse/internal/universe"
)

// halfBlock packs two grid rows into one terminal line: the foreground
// paints the upper cell, the background the lower one.
const halfBlock = "▀"

// cell addresses a grid cell as cells[x][y].
type cell struct{ x, y int }

// gridPalette colors one universe.
type gridPalette struct {
	alive       string
	dead        string
	pad         string // below the last row of an odd-height grid
	cursor      string
	cursorAlive string
}

func paletteFor(u universe.Universe, t Theme) gridPalette {
	dead := t.DeadCell
	if u.Editable() {
		dead = t.EditableCell
	}
	return gridPalette{
		alive:       u.Colour().Hex(),
		dead:        dead,
		pad:         t.Background,
		cursor:      t.Cursor,
		cursorAlive: t.CursorAlive,
	}
}

// renderGrid draws g with half blocks, one column per cell and one line per
// two rows. cursor may be nil.
func renderGrid(g universe.Grid, p gridPalette, cursor *cell) string {
	styles := make(map[[2]string]lipgloss.Style)
	style := func(fg, bg string) lipgloss.Style {
		k := [2]string{fg, bg}
		s, ok := styles[k]
		if !ok {
			s = lipgloss.NewStyle().Foreground(lipgloss.Color(fg)).Background(lipgloss.Color(bg))
			styles[k] = s
		}
		return s
	}
	color := func(x, y int) string {
		alive := g[x][y]
		if cursor != nil && cursor.x == x && cursor.y == y {
			if alive {
				return p.cursorAlive
			}
			return p.cursor
		}
		if alive {
			return p.alive
		}
		return p.dead
	}

	lines := make([]string, 0, (g.Rows()+1)/2)
	for x := 0; x < g.Rows(); x += 2 {
		var b strings.Builder
		for y := 0; y < len(g[x]); y++ {
			lower := p.pad
			if x+1 < g.Rows() && y < len(g[x+1]) {
				lower = color(x+1, y)
			}
			b.WriteString(style(color(x, y), lower).Render(halfBlock))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// layoutRows groups universe indexes into display rows of at most perRow.
// A universe larger than size (a merged one) always gets a row to itself.
func layoutRows(us []universe.Universe, perRow, size int) [][]int {
	if perRow < 1 {
		perRow = 1
	}
	var rows [][]int
	var cur []int
	for i, u := range us {
		g := u.Cells()
		big := g.Rows() > size || g.Cols() > size
		if len(cur) > 0 && (len(cur) == perRow || big) {
			rows = append(rows, cur)
			cur = nil
		}
		cur = append(cur, i)
		if big {
			rows = append(rows, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		rows = append(rows, cur)
	}
	return rows
}

// renderGallery draws every universe, confirmed first, in rows.
func (m Model) renderGallery() string {
	us := m.view.Universes()
	if len(us) == 0 {
		styles := m.theme.Styles()
		return styles.MutedText.Render("The multiverse is empty. Press n to create a universe.")
	}

	size := 0
	if m.store != nil {
		size = m.store.Size()
	}
	gap := strings.Repeat(" ", 2)

	var blocks []string
	for _, row := range layoutRows(us, m.perRow, size) {
		parts := make([]string, 0, len(row)*2)
		for j, idx := range row {
			if j > 0 {
				parts = append(parts, gap)
			}
			parts = append(parts, m.renderTile(us[idx]))
		}
		blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}
	return strings.Join(blocks, "\n\n")
}

// renderTile draws one universe with a caption naming its color and status.
func (m Model) renderTile(u universe.Universe) string {
	styles := m.theme.Styles()
	g := u.Cells()

	caption := lipgloss.NewStyle().Foreground(lipgloss.Color(u.Colour().Hex())).Render(u.Colour().Hex())
	switch v := u.(type) {
	case universe.EditableUniverse:
		if v.Saving {
			caption += " " + styles.WarningText.Render("saving")
		} else {
			caption += " " + styles.AccentText.Render("editing")
		}
	case universe.ConfirmedUniverse:
		if v.Optimistic {
			caption += " " + styles.FaintText.Render("pending")
		}
	}
	caption = lipgloss.NewStyle().MaxWidth(max(g.Cols(), 1)).Render(caption)

	return lipgloss.JoinVertical(lipgloss.Left, renderGrid(g, paletteFor(u, m.theme), nil), caption)
}
