package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	minLineWidth = 1.0
	maxLineWidth = 50.0
)

// palette is offered next to whatever color the drawing started with.
var palette = []color.Color{
	color.Black,
	color.NRGBA{R: 255, A: 255},
	color.NRGBA{G: 160, A: 255},
	color.NRGBA{R: 255, G: 200, A: 255},
}

// colorSwatch is a tappable color square. The selected swatch gets a heavier
// outline in the theme's primary color.
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	selected bool
	onPick   func(*colorSwatch)
}

func newColorSwatch(c color.Color, pick func(*colorSwatch)) *colorSwatch {
	s := &colorSwatch{Color: c, onPick: pick}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) SetSelected(selected bool) {
	if s.selected == selected {
		return
	}
	s.selected = selected
	s.Refresh()
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.onPick != nil {
		s.onPick(s)
	}
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	r := &swatchRenderer{
		swatch:  s,
		fill:    canvas.NewRectangle(s.Color),
		outline: canvas.NewRectangle(color.Transparent),
	}
	r.Refresh()
	return r
}

type swatchRenderer struct {
	swatch  *colorSwatch
	fill    *canvas.Rectangle
	outline *canvas.Rectangle
}

func (r *swatchRenderer) Layout(size fyne.Size) {
	const inset = 3
	r.fill.Move(fyne.NewPos(inset, inset))
	r.fill.Resize(size.SubtractWidthHeight(2*inset, 2*inset))
	r.outline.Resize(size)
}

func (r *swatchRenderer) MinSize() fyne.Size { return fyne.NewSize(32, 32) }

func (r *swatchRenderer) Refresh() {
	r.fill.FillColor = r.swatch.Color
	if r.swatch.selected {
		r.outline.StrokeColor = theme.Color(theme.ColorNamePrimary)
		r.outline.StrokeWidth = 3
	} else {
		r.outline.StrokeColor = color.Gray{Y: 150}
		r.outline.StrokeWidth = 1
	}
	r.fill.Refresh()
	r.outline.Refresh()
}

func (r *swatchRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.fill, r.outline}
}

func (r *swatchRenderer) Destroy() {}

// Toolbar holds the controls that drive a DrawingView.
type Toolbar struct {
	view     *DrawingView
	swatches []*colorSwatch
	width    *widget.Slider
	Object   fyne.CanvasObject
}

// NewToolbar wires color swatches, a width slider and clear/export actions
// to view. Clear goes through view.Reset, so OnReset sees it. onExport may be
// nil.
func NewToolbar(view *DrawingView, onExport func()) *Toolbar {
	t := &Toolbar{view: view}

	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentClearIcon(), view.Reset),
		widget.NewToolbarAction(theme.DeleteIcon(), view.ClearRemote),
	)
	if onExport != nil {
		actions.Append(widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport))
	}

	colors := append([]color.Color{view.Style().Color}, palette...)
	colorBox := container.NewHBox()
	for _, c := range colors {
		s := newColorSwatch(c, t.pick)
		t.swatches = append(t.swatches, s)
		colorBox.Add(s)
	}
	t.swatches[0].SetSelected(true)

	t.width = widget.NewSlider(minLineWidth, maxLineWidth)
	t.width.Step = 0.5
	t.width.SetValue(float64(clampWidth(view.Style().Width)))
	t.width.OnChanged = func(val float64) {
		view.SetLineWidth(float32(val))
	}
	sliderBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), t.width)

	t.Object = container.NewHBox(
		actions,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Width:"),
		sliderBox,
		layout.NewSpacer(),
	)
	return t
}

func (t *Toolbar) pick(s *colorSwatch) {
	t.view.SetStrokeColor(s.Color)
	for _, other := range t.swatches {
		other.SetSelected(other == s)
	}
}

func clampWidth(w float32) float32 {
	return max(minLineWidth, min(maxLineWidth, w))
}
