package universe

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Grid holds cell liveness indexed as cells[x][y], x being the row.
type Grid [][]bool

// NewGrid returns an n×n grid with every cell dead.
func NewGrid(n int) Grid {
	if n <= 0 {
		return nil
	}
	g := make(Grid, n)
	for x := range g {
		g[x] = make([]bool, n)
	}
	return g
}

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the length of the first row, zero for an empty grid.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// InBounds reports whether (x, y) addresses a cell.
func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && x < len(g) && y >= 0 && y < len(g[x])
}

// Alive counts live cells.
func (g Grid) Alive() int {
	n := 0
	for _, row := range g {
		for _, cell := range row {
			if cell {
				n++
			}
		}
	}
	return n
}

// Clone deep-copies the grid.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	dup := make(Grid, len(g))
	for i, row := range g {
		dup[i] = append([]bool(nil), row...)
	}
	return dup
}

// Equal reports whether both grids have the same shape and cells.
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if len(g[i]) != len(other[i]) {
			return false
		}
		for j := range g[i] {
			if g[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// ErrRaggedGrid is returned for grids whose rows differ in length.
var ErrRaggedGrid = errors.New("grid rows differ in length")

// Validate checks that the grid is non-empty and rectangular.
func (g Grid) Validate() error {
	if len(g) == 0 || len(g[0]) == 0 {
		return errors.New("grid is empty")
	}
	width := len(g[0])
	for i, row := range g {
		if len(row) != width {
			return fmt.Errorf("row %d has %d cells, want %d: %w", i, len(row), width, ErrRaggedGrid)
		}
	}
	return nil
}

// Handle identifies an editable universe until it is saved or dropped.
type Handle uuid.UUID

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return uuid.UUID(h) == uuid.Nil
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Universe is the read-only view shared by both variants.
type Universe interface {
	Colour() Colour
	Cells() Grid
	Editable() bool
}

// EditableUniverse is locally owned and mutable until saved or dropped.
type EditableUniverse struct {
	Handle Handle
	Color  Colour
	Grid   Grid
	Saving bool // a save request is in flight; toggles are rejected
}

// Colour returns the colour allocated when the universe was created.
func (u EditableUniverse) Colour() Colour { return u.Color }

// Cells returns the grid. The store hands out clones, so callers may keep it.
func (u EditableUniverse) Cells() Grid { return u.Grid }

// Editable always reports true.
func (u EditableUniverse) Editable() bool { return true }

// Record returns the wire form of the universe.
func (u EditableUniverse) Record() Record {
	return Record{Colour: u.Color, Cells: u.Grid.Clone()}
}

// Clone deep-copies the universe.
func (u EditableUniverse) Clone() EditableUniverse {
	u.Grid = u.Grid.Clone()
	return u
}

// ConfirmedUniverse is server-authoritative and read-only. It has no stable
// identity across snapshots, only its position in the latest one.
type ConfirmedUniverse struct {
	Index      int
	Color      Colour
	Grid       Grid
	Optimistic bool // saved locally, not yet seen in a snapshot
}

// Colour returns the colour the server recorded for the universe.
func (u ConfirmedUniverse) Colour() Colour { return u.Color }

// Cells returns the grid from the latest snapshot.
func (u ConfirmedUniverse) Cells() Grid { return u.Grid }

// Editable always reports false.
func (u ConfirmedUniverse) Editable() bool { return false }

// Clone deep-copies the universe.
func (u ConfirmedUniverse) Clone() ConfirmedUniverse {
	u.Grid = u.Grid.Clone()
	return u
}

var (
	_ Universe = EditableUniverse{}
	_ Universe = ConfirmedUniverse{}
)
