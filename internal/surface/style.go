package surface

import (
	"fmt"
	"image/color"
	"strings"
)

// Point is a coordinate in the surface's local space.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (p Point) sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Style is the stroke color and line width applied to new segments.
type Style struct {
	Color color.Color
	Width float32
}

// DefaultStyle is blue at 75% opacity, 3 units wide.
func DefaultStyle() Style {
	return Style{
		Color: color.NRGBA{B: 255, A: 191},
		Width: 3,
	}
}

// HexColor formats c as #rrggbbaa (non-premultiplied).
func HexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// ParseHexColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c color.NRGBA
	c.A = 255

	switch len(hex) {
	case 3:
		var r, g, b uint8
		if _, err := fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b); err != nil {
			return c, fmt.Errorf("parse color %q: %w", s, err)
		}
		c.R, c.G, c.B = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(hex, "%2x%2x%2x", &c.R, &c.G, &c.B); err != nil {
			return c, fmt.Errorf("parse color %q: %w", s, err)
		}
	case 8:
		if _, err := fmt.Sscanf(hex, "%2x%2x%2x%2x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return c, fmt.Errorf("parse color %q: %w", s, err)
		}
	default:
		return c, fmt.Errorf("parse color %q: want #rgb, #rrggbb or #rrggbbaa", s)
	}
	return c, nil
}
