package palette

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/five82/multiverse/internal/universe"
)

// ErrExhausted is returned when a strategy cannot satisfy its constraints
// within its attempt budget.
var ErrExhausted = errors.New("colour allocation exhausted")

// Strategy picks a colour given the previously issued one (nil on first use).
type Strategy interface {
	Next(previous *universe.Colour) (universe.Colour, error)
}

// Allocator remembers the last issued colour and feeds it to its strategy.
// It is owned by one session and safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	strategy Strategy
	last     *universe.Colour
}

// NewAllocator wraps strategy.
func NewAllocator(strategy Strategy) *Allocator {
	return &Allocator{strategy: strategy}
}

// Next returns a colour distinct from the previously issued one.
func (a *Allocator) Next() (universe.Colour, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, err := a.strategy.Next(a.last)
	if err != nil {
		return 0, err
	}
	a.last = &c
	return c, nil
}

// Last returns the last issued colour, if any.
func (a *Allocator) Last() (universe.Colour, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return 0, false
	}
	return *a.last, true
}

// Preset names accepted by New.
const (
	PresetGeneral    = "general"
	PresetBrightBand = "bright-band"
	PresetPalette    = "palette"
)

// Options configure New.
type Options struct {
	Preset       string
	LuminanceMin float64
	LuminanceMax float64
	MinDistance  float64
	MaxAttempts  int
	Rand         *rand.Rand // nil uses a randomly seeded source
}

// New builds a strategy from a preset. For the luminance presets, zero
// bounds fall back to the preset's band.
func New(opts Options) (Strategy, error) {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	switch opts.Preset {
	case PresetPalette:
		return NewBright(BrightColours, rng), nil
	case "", PresetGeneral, PresetBrightBand:
		lo, hi := 0.1, 0.9
		if opts.Preset == PresetBrightBand {
			lo = 0.6
		}
		if opts.LuminanceMin != 0 || opts.LuminanceMax != 0 {
			lo, hi = opts.LuminanceMin, opts.LuminanceMax
		}
		return NewLuminance(LuminanceOptions{
			Min:         lo,
			Max:         hi,
			MinDistance: opts.MinDistance,
			MaxAttempts: opts.MaxAttempts,
		}, rng)
	default:
		return nil, fmt.Errorf("unknown palette preset %q", opts.Preset)
	}
}
