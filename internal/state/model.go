package state

import (
	"time"

	"LocalSketch/internal/surface"
)

// Gesture is one finished stroke as it travels between peers.
type Gesture struct {
	ID     string          `json:"id"`
	Site   string          `json:"site"`
	Seq    uint64          `json:"seq"`
	Points []surface.Point `json:"points"`
	Color  string          `json:"color"` // #rrggbbaa
	Width  float32         `json:"width"`
	Time   time.Time       `json:"time"`
}

// Style decodes the gesture's color and width.
func (g Gesture) Style() (surface.Style, error) {
	c, err := surface.ParseHexColor(g.Color)
	if err != nil {
		return surface.Style{}, err
	}
	return surface.Style{Color: c, Width: g.Width}, nil
}
