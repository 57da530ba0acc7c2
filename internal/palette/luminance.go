package palette

import (
	"fmt"
	"math/rand/v2"

	"github.com/five82/multiverse/internal/universe"
)

const (
	DefaultMinDistance = 100
	DefaultMaxAttempts = 10000
)

// LuminanceOptions bound the colours produced by the Luminance strategy.
// Min and Max are exclusive.
type LuminanceOptions struct {
	Min         float64
	Max         float64
	MinDistance float64 // zero uses DefaultMinDistance
	MaxAttempts int     // zero uses DefaultMaxAttempts
}

// Luminance rejection-samples uniform RGB colours.
type Luminance struct {
	opts LuminanceOptions
	rng  *rand.Rand
}

// NewLuminance validates opts and returns the strategy.
func NewLuminance(opts LuminanceOptions, rng *rand.Rand) (*Luminance, error) {
	if opts.Min < 0 || opts.Max > 1 || opts.Min >= opts.Max {
		return nil, fmt.Errorf("luminance band (%v, %v) must satisfy 0 <= min < max <= 1", opts.Min, opts.Max)
	}
	if opts.MinDistance < 0 {
		return nil, fmt.Errorf("min distance %v must not be negative", opts.MinDistance)
	}
	if opts.MinDistance == 0 {
		opts.MinDistance = DefaultMinDistance
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Luminance{opts: opts, rng: rng}, nil
}

// Options returns the effective options.
func (l *Luminance) Options() LuminanceOptions {
	return l.opts
}

// Next samples until the luminance lies inside the band and, when previous
// is set, the colour is farther than MinDistance from it.
func (l *Luminance) Next(previous *universe.Colour) (universe.Colour, error) {
	for range l.opts.MaxAttempts {
		c := universe.Colour(l.rng.Uint32N(uint32(universe.MaxColour) + 1))
		if l.accepts(c, previous) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("no colour in luminance (%v, %v) after %d attempts: %w",
		l.opts.Min, l.opts.Max, l.opts.MaxAttempts, ErrExhausted)
}

func (l *Luminance) accepts(c universe.Colour, previous *universe.Colour) bool {
	lum := c.Luminance()
	if lum <= l.opts.Min || lum >= l.opts.Max {
		return false
	}
	if previous != nil && c.Distance(*previous) <= l.opts.MinDistance {
		return false
	}
	return true
}
