package surface

import (
	"image"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

const miterLimit = 4

// segmentPainter strokes one straight segment into dst and returns the
// rectangle it touched.
type segmentPainter interface {
	strokeSegment(dst *image.RGBA, from, to Point, st Style) image.Rectangle
}

// rasterPainter rasterizes each segment in a scanner sized to the segment's
// own bounding box, so the cost does not depend on the canvas size or on how
// many segments came before it.
type rasterPainter struct{}

func (rasterPainter) strokeSegment(dst *image.RGBA, from, to Point, st Style) image.Rectangle {
	if from == to || st.Width <= 0 || st.Color == nil {
		return image.Rectangle{}
	}

	area := segmentBounds(from, to, st.Width).Intersect(dst.Bounds())
	if area.Empty() {
		return image.Rectangle{}
	}

	target := dst.SubImage(area).(*image.RGBA)
	w, h := area.Dx(), area.Dy()
	scanner := rasterx.NewScannerGV(w, h, target, area)
	stroker := rasterx.NewStroker(w, h, scanner)
	stroker.SetStroke(toFixed(st.Width), toFixed(miterLimit),
		rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round)
	stroker.SetColor(st.Color)

	origin := Point{X: float32(area.Min.X), Y: float32(area.Min.Y)}
	stroker.Start(toFixedPoint(from.sub(origin)))
	stroker.Line(toFixedPoint(to.sub(origin)))
	stroker.Stop(false)
	stroker.Draw()
	return area
}

// segmentBounds is the pixel rectangle covered by a round-capped segment.
func segmentBounds(from, to Point, width float32) image.Rectangle {
	pad := float64(width)/2 + 1
	minX := math.Min(float64(from.X), float64(to.X)) - pad
	minY := math.Min(float64(from.Y), float64(to.Y)) - pad
	maxX := math.Max(float64(from.X), float64(to.X)) + pad
	maxY := math.Max(float64(from.Y), float64(to.Y)) + pad
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

func toFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(float64(v) * 64))
}

func toFixedPoint(p Point) fixed.Point26_6 {
	return fixed.Point26_6{X: toFixed(p.X), Y: toFixed(p.Y)}
}

// StrokePolyline draws points as consecutive segments in st. It is meant for
// finished gestures that do not belong to a Surface, such as ones received
// from a peer.
func StrokePolyline(dst *image.RGBA, points []Point, st Style) image.Rectangle {
	var dirty image.Rectangle
	var p rasterPainter
	for i := 1; i < len(points); i++ {
		dirty = dirty.Union(p.strokeSegment(dst, points[i-1], points[i], st))
	}
	return dirty
}
