// Package surface turns a drag gesture into stroked pixels on an offscreen
// canvas. A Surface owns its canvas and the points of the gesture in
// progress; each move appends one point and strokes exactly one new segment.
//
// A Surface is not safe for concurrent use. The host delivers events for one
// surface from a single goroutine.
package surface

import (
	"image"
	"image/color"
	"slices"
)

// Observer is told about every finished gesture.
type Observer interface {
	DidDraw(s *Surface, points []Point)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *Surface, points []Point)

func (f ObserverFunc) DidDraw(s *Surface, points []Point) { f(s, points) }

// Display shows the canvas. Publish is called after every change to the
// canvas with the rectangle that changed.
type Display interface {
	Publish(canvas *image.RGBA, dirty image.Rectangle)
}

type Surface struct {
	bounds   image.Rectangle
	canvas   *image.RGBA
	style    Style
	points   []Point
	tracking bool

	painter  segmentPainter
	observer Observer
	display  Display
}

// New allocates a surface with a canvas covering bounds.
func New(bounds image.Rectangle, style Style) *Surface {
	s := &Surface{painter: rasterPainter{}}
	s.Initialize(bounds, style)
	return s
}

// Initialize applies style and clears the points buffer. The canvas is only
// reallocated when bounds differ from the current ones.
func (s *Surface) Initialize(bounds image.Rectangle, style Style) {
	if s.painter == nil {
		s.painter = rasterPainter{}
	}
	if s.canvas == nil || bounds != s.bounds {
		s.bounds = bounds
		s.canvas = image.NewRGBA(bounds)
	}
	s.style = style
	s.points = s.points[:0]
	s.tracking = false
}

// SetObserver registers the single observer notified by End.
func (s *Surface) SetObserver(o Observer) { s.observer = o }

// SetDisplay registers where the canvas is published.
func (s *Surface) SetDisplay(d Display) { s.display = d }

// SetStrokeColor changes the color of segments drawn from now on.
func (s *Surface) SetStrokeColor(c color.Color) {
	s.mustInit()
	s.style.Color = c
}

// SetLineWidth changes the width of segments drawn from now on. Widths that
// are not positive are kept but draw nothing.
func (s *Surface) SetLineWidth(width float32) {
	s.mustInit()
	s.style.Width = width
}

// Reset replaces the canvas with an empty one and drops the points buffer.
// The style is kept.
func (s *Surface) Reset() {
	s.mustInit()
	s.canvas = image.NewRGBA(s.bounds)
	s.points = nil
	s.tracking = false
	s.publish(s.bounds)
}

// Resize reallocates the canvas for new bounds. Any gesture in progress is
// discarded.
func (s *Surface) Resize(bounds image.Rectangle) {
	s.mustInit()
	s.bounds = bounds
	s.Reset()
}

// Begin starts a gesture at p. Nothing is drawn until the first Move.
func (s *Surface) Begin(p Point) {
	s.mustInit()
	s.points = append(s.points[:0], p)
	s.tracking = true
}

// Move extends the gesture to p and strokes the segment from the previous
// point.
func (s *Surface) Move(p Point) {
	s.mustInit()
	if !s.tracking || len(s.points) == 0 {
		panic("surface: Move called outside a gesture")
	}
	last := s.points[len(s.points)-1]
	s.points = append(s.points, p)
	dirty := s.painter.strokeSegment(s.canvas, last, p, s.style)
	s.publish(dirty)
}

// End finishes the gesture and hands the collected points to the observer.
// The end position itself is not recorded.
func (s *Surface) End(_ Point) {
	s.mustInit()
	if !s.tracking {
		panic("surface: End called outside a gesture")
	}
	s.tracking = false
	if s.observer != nil {
		s.observer.DidDraw(s, s.Points())
	}
}

// Points returns a copy of the current (or last finished) gesture.
func (s *Surface) Points() []Point { return slices.Clone(s.points) }

// Canvas returns the live canvas. It is replaced by Reset and Resize.
func (s *Surface) Canvas() *image.RGBA { return s.canvas }

func (s *Surface) Bounds() image.Rectangle { return s.bounds }

func (s *Surface) Style() Style { return s.style }

// Tracking reports whether a gesture is in progress.
func (s *Surface) Tracking() bool { return s.tracking }

func (s *Surface) publish(dirty image.Rectangle) {
	if s.display != nil {
		s.display.Publish(s.canvas, dirty)
	}
}

func (s *Surface) mustInit() {
	if s.canvas == nil {
		panic("surface: used before Initialize")
	}
}
