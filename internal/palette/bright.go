package palette

import (
	"math/rand/v2"

	"github.com/five82/multiverse/internal/universe"
)

// BrightColours is the fixed palette used by the palette preset.
var BrightColours = []universe.Colour{
	0xfa725a,
	0xfdcb58,
	0x1738ea,
	0x0099ff,
	0xffa0ab,
	0xcd09ec,
	0xff9507,
	0xa1ff6c,
	0x0cf632,
	0x5b09fa,
	0xcd60f8,
	0x0277fd,
}

// Bright picks uniformly from a fixed list, never repeating the previous
// entry back to back.
type Bright struct {
	colours []universe.Colour
	rng     *rand.Rand
}

// NewBright copies colours so later edits to the slice do not leak in.
func NewBright(colours []universe.Colour, rng *rand.Rand) *Bright {
	return &Bright{colours: append([]universe.Colour(nil), colours...), rng: rng}
}

// Next implements Strategy.
func (b *Bright) Next(previous *universe.Colour) (universe.Colour, error) {
	switch len(b.colours) {
	case 0:
		return 0, ErrExhausted
	case 1:
		return b.colours[0], nil
	}
	exclude := -1
	if previous != nil {
		exclude = b.indexOf(*previous)
	}
	if exclude < 0 {
		return b.colours[b.rng.IntN(len(b.colours))], nil
	}
	// Draw from n-1 slots and skip over the excluded one.
	i := b.rng.IntN(len(b.colours) - 1)
	if i >= exclude {
		i++
	}
	return b.colours[i], nil
}

func (b *Bright) indexOf(c universe.Colour) int {
	for i, candidate := range b.colours {
		if candidate == c {
			return i
		}
	}
	return -1
}
