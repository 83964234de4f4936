package ui

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"slices"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"LocalSketch/internal/surface"
)

// inputSource is the kind of pointer that owns the current gesture.
type inputSource int

const (
	sourceNone inputSource = iota
	sourceMouse
	sourceTouch
)

// DrawingView is a fyne widget that shows a surface and feeds it pointer
// events. Gestures received from peers are drawn on a separate layer below
// the local canvas.
type DrawingView struct {
	widget.BaseWidget

	surface     *surface.Surface
	local       *canvas.Image
	remote      *image.RGBA
	remoteLayer *canvas.Image
	background  *canvas.Rectangle

	// gestures drawn on the remote layer, oldest first
	received []remoteGesture

	source  inputSource
	lastPos fyne.Position

	// OnDraw is called on the fyne goroutine when a gesture ends.
	OnDraw func(v *DrawingView, points []surface.Point)
	// OnReset is called after Reset cleared the local drawing.
	OnReset func(v *DrawingView)
}

type remoteGesture struct {
	site   string
	points []surface.Point
	style  surface.Style
}

var _ fyne.Widget = (*DrawingView)(nil)
var _ fyne.Draggable = (*DrawingView)(nil)
var _ desktop.Mouseable = (*DrawingView)(nil)
var _ mobile.Touchable = (*DrawingView)(nil)
var _ surface.Observer = (*DrawingView)(nil)
var _ surface.Display = (*DrawingView)(nil)

func NewDrawingView(style surface.Style) *DrawingView {
	v := &DrawingView{
		surface:    surface.New(image.Rectangle{}, style),
		remote:     image.NewRGBA(image.Rectangle{}),
		background: canvas.NewRectangle(color.White),
	}
	v.surface.SetObserver(v)
	v.surface.SetDisplay(v)
	v.local = newLayer(v.surface.Canvas())
	v.remoteLayer = newLayer(v.remote)
	v.ExtendBaseWidget(v)
	return v
}

func newLayer(img image.Image) *canvas.Image {
	layer := canvas.NewImageFromImage(img)
	layer.FillMode = canvas.ImageFillStretch
	layer.ScaleMode = canvas.ImageScalePixels
	return layer
}

// Surface exposes the underlying surface, mostly for tests and export.
func (v *DrawingView) Surface() *surface.Surface { return v.surface }

func (v *DrawingView) Style() surface.Style { return v.surface.Style() }

func (v *DrawingView) SetStrokeColor(c color.Color) { v.surface.SetStrokeColor(c) }

func (v *DrawingView) SetLineWidth(width float32) { v.surface.SetLineWidth(width) }

// Reset clears the local drawing. Remote gestures stay.
func (v *DrawingView) Reset() {
	v.source = sourceNone
	v.surface.Reset()
	if v.OnReset != nil {
		v.OnReset(v)
	}
}

// Resize reallocates both layers when the pixel size changes; a gesture in
// progress is dropped.
func (v *DrawingView) Resize(size fyne.Size) {
	v.BaseWidget.Resize(size)

	bounds := image.Rect(0, 0,
		int(math.Ceil(float64(size.Width))), int(math.Ceil(float64(size.Height))))
	if bounds == v.surface.Bounds() {
		return
	}
	v.source = sourceNone
	v.surface.Resize(bounds)
	v.redrawRemote()
}

// AddRemoteGesture draws a finished gesture from site on the remote layer.
// Call it on the fyne goroutine (fyne.Do from network code).
func (v *DrawingView) AddRemoteGesture(site string, points []surface.Point, style surface.Style) {
	v.received = append(v.received, remoteGesture{site: site, points: points, style: style})
	if dirty := surface.StrokePolyline(v.remote, points, style); !dirty.Empty() {
		v.remoteLayer.Refresh()
	}
}

// ClearSite removes the gestures received from site and redraws the rest in
// their original order.
func (v *DrawingView) ClearSite(site string) {
	n := len(v.received)
	v.received = slices.DeleteFunc(v.received, func(g remoteGesture) bool { return g.site == site })
	if len(v.received) == n {
		return
	}
	v.redrawRemote()
}

// ClearRemote drops everything peers have drawn.
func (v *DrawingView) ClearRemote() {
	v.received = nil
	v.redrawRemote()
}

func (v *DrawingView) redrawRemote() {
	v.remote = image.NewRGBA(v.surface.Bounds())
	for _, g := range v.received {
		surface.StrokePolyline(v.remote, g.points, g.style)
	}
	v.remoteLayer.Image = v.remote
	v.remoteLayer.Refresh()
}

// Snapshot flattens background, remote and local layers into one image.
func (v *DrawingView) Snapshot() *image.RGBA {
	bounds := v.surface.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, bounds, v.remote, bounds.Min, draw.Over)
	draw.Draw(out, bounds, v.surface.Canvas(), bounds.Min, draw.Over)
	return out
}

// Publish implements surface.Display.
func (v *DrawingView) Publish(img *image.RGBA, _ image.Rectangle) {
	v.local.Image = img
	v.local.Refresh()
}

// DidDraw implements surface.Observer.
func (v *DrawingView) DidDraw(_ *surface.Surface, points []surface.Point) {
	if v.OnDraw != nil {
		v.OnDraw(v, points)
	}
}

func toPoint(pos fyne.Position) surface.Point {
	return surface.Point{X: pos.X, Y: pos.Y}
}

// begin starts a gesture unless one is already in progress. Extra fingers
// are ignored until the first one lifts. A mouse press while the mouse owns
// the gesture means its release was lost, so that gesture is finished first.
func (v *DrawingView) begin(src inputSource, pos fyne.Position) {
	if v.surface.Tracking() {
		if src != sourceMouse || v.source != sourceMouse {
			return
		}
		v.end(sourceMouse, v.lastPos)
	}
	v.source = src
	v.lastPos = pos
	v.surface.Begin(toPoint(pos))
}

func (v *DrawingView) move(pos fyne.Position) {
	if v.source == sourceNone || !v.surface.Tracking() {
		return
	}
	v.lastPos = pos
	v.surface.Move(toPoint(pos))
}

func (v *DrawingView) end(src inputSource, pos fyne.Position) {
	if v.source != src || !v.surface.Tracking() {
		return
	}
	v.source = sourceNone
	v.surface.End(toPoint(pos))
}

func (v *DrawingView) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		v.begin(sourceMouse, e.Position)
	}
}

func (v *DrawingView) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		v.end(sourceMouse, e.Position)
	}
}

func (v *DrawingView) Dragged(e *fyne.DragEvent) {
	v.move(e.Position)
}

// DragEnd covers releases outside the widget, where MouseUp goes elsewhere.
func (v *DrawingView) DragEnd() {
	v.end(v.source, v.lastPos)
}

func (v *DrawingView) TouchDown(e *mobile.TouchEvent) {
	v.begin(sourceTouch, e.Position)
}

func (v *DrawingView) TouchUp(e *mobile.TouchEvent) {
	v.end(sourceTouch, e.Position)
}

// TouchCancel finishes the gesture with what has been drawn so far.
func (v *DrawingView) TouchCancel(*mobile.TouchEvent) {
	v.end(sourceTouch, v.lastPos)
}

func (v *DrawingView) CreateRenderer() fyne.WidgetRenderer {
	return &drawingViewRenderer{
		view:    v,
		objects: []fyne.CanvasObject{v.background, v.remoteLayer, v.local},
	}
}

type drawingViewRenderer struct {
	view    *DrawingView
	objects []fyne.CanvasObject
}

func (r *drawingViewRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *drawingViewRenderer) Layout(size fyne.Size) {
	for _, o := range r.objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
}

func (r *drawingViewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *drawingViewRenderer) Refresh() {
	for _, o := range r.objects {
		o.Refresh()
	}
}

func (r *drawingViewRenderer) Destroy() {}
