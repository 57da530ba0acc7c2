package universe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Colour is a 24-bit RGB value.
type Colour uint32

// MaxColour is the largest valid Colour (white).
const MaxColour Colour = 0xFFFFFF

// RGB builds a Colour from its channels.
func RGB(r, g, b uint8) Colour {
	return Colour(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Channels returns the red, green and blue components.
func (c Colour) Channels() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Luminance returns the relative luminance in [0, 1] using sRGB weights.
func (c Colour) Luminance() float64 {
	r, g, b := c.Channels()
	return (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 255
}

// Distance returns the Euclidean distance between two colours in RGB space.
func (c Colour) Distance(other Colour) float64 {
	r1, g1, b1 := c.Channels()
	r2, g2, b2 := other.Channels()
	dr := float64(r1) - float64(r2)
	dg := float64(g1) - float64(g2)
	db := float64(b1) - float64(b2)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Hex formats the colour as #rrggbb.
func (c Colour) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c&MaxColour))
}

func (c Colour) String() string {
	return c.Hex()
}

// ParseColour accepts #rrggbb, #rgb and the same forms without the leading #.
func ParseColour(value string) (Colour, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(trimmed) {
	case 3:
		var b strings.Builder
		for _, r := range trimmed {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		trimmed = b.String()
	case 6:
	default:
		return 0, fmt.Errorf("parse colour %q: want #rgb or #rrggbb", value)
	}
	n, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse colour %q: %w", value, err)
	}
	return Colour(n), nil
}

// MarshalJSON encodes the colour as a hex string.
func (c Colour) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

// UnmarshalJSON accepts a hex string or a 24-bit number.
func (c *Colour) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		parsed, err := ParseColour(text)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	var n uint32
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("colour must be a hex string or a number: %s", data)
	}
	if Colour(n) > MaxColour {
		return fmt.Errorf("colour %d exceeds 24 bits", n)
	}
	*c = Colour(n)
	return nil
}
