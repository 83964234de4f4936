package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalSketch/internal/config"
	"LocalSketch/internal/surface"
)

func newTestView(t *testing.T) (*DrawingView, *[][]surface.Point) {
	t.Helper()
	test.NewTempApp(t)

	v := NewDrawingView(surface.DefaultStyle())
	v.Resize(fyne.NewSize(100, 100))

	var reports [][]surface.Point
	v.OnDraw = func(got *DrawingView, points []surface.Point) {
		assert.Same(t, v, got)
		reports = append(reports, points)
	}
	return v, &reports
}

func mouse(x, y float32, button desktop.MouseButton) *desktop.MouseEvent {
	e := &desktop.MouseEvent{Button: button}
	e.Position = fyne.NewPos(x, y)
	return e
}

func drag(x, y float32) *fyne.DragEvent {
	e := &fyne.DragEvent{}
	e.Position = fyne.NewPos(x, y)
	return e
}

func touch(x, y float32) *mobile.TouchEvent {
	e := &mobile.TouchEvent{}
	e.Position = fyne.NewPos(x, y)
	return e
}

func TestMouseGestureDrawsL(t *testing.T) {
	v, reports := newTestView(t)

	v.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	v.Dragged(drag(20, 10))
	v.Dragged(drag(20, 20))
	v.MouseUp(mouse(20, 20, desktop.MouseButtonPrimary))
	v.DragEnd()

	require.Len(t, *reports, 1)
	assert.Equal(t, []surface.Point{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}}, (*reports)[0])

	c := v.Surface().Canvas()
	assert.Same(t, c, v.local.Image)
	assert.NotZero(t, c.RGBAAt(15, 10).A)
	assert.NotZero(t, c.RGBAAt(20, 15).A)
	assert.Zero(t, c.RGBAAt(12, 18).A)
}

func TestSecondaryButtonIgnored(t *testing.T) {
	v, reports := newTestView(t)

	v.MouseDown(mouse(10, 10, desktop.MouseButtonSecondary))
	v.Dragged(drag(50, 50))
	v.MouseUp(mouse(50, 50, desktop.MouseButtonSecondary))

	assert.Empty(t, *reports)
	assert.False(t, v.Surface().Tracking())
}

func TestDragEndFinishesGestureReleasedOutside(t *testing.T) {
	v, reports := newTestView(t)

	v.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	v.Dragged(drag(30, 30))
	v.DragEnd()

	require.Len(t, *reports, 1)
	assert.Equal(t, []surface.Point{{X: 10, Y: 10}, {X: 30, Y: 30}}, (*reports)[0])
}

func TestFirstInputOwnsTheGesture(t *testing.T) {
	v, reports := newTestView(t)

	v.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	v.TouchDown(touch(80, 80))
	v.Dragged(drag(20, 10))
	v.TouchUp(touch(80, 80))
	assert.True(t, v.Surface().Tracking(), "touch cannot end a mouse gesture")
	v.MouseUp(mouse(20, 10, desktop.MouseButtonPrimary))

	require.Len(t, *reports, 1)
	assert.Equal(t, []surface.Point{{X: 10, Y: 10}, {X: 20, Y: 10}}, (*reports)[0])
}

func TestSecondFingerIsIgnored(t *testing.T) {
	v, reports := newTestView(t)

	v.TouchDown(touch(10, 10))
	v.Dragged(drag(20, 10))
	v.TouchDown(touch(80, 80))
	assert.Equal(t, []surface.Point{{X: 10, Y: 10}, {X: 20, Y: 10}}, v.Surface().Points())
	v.TouchUp(touch(20, 10))

	require.Len(t, *reports, 1)
	assert.Equal(t, []surface.Point{{X: 10, Y: 10}, {X: 20, Y: 10}}, (*reports)[0])
}

func TestMousePressAfterLostReleaseFinishesGesture(t *testing.T) {
	v, reports := newTestView(t)

	v.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	v.Dragged(drag(30, 10))
	v.MouseDown(mouse(50, 50, desktop.MouseButtonPrimary))
	v.MouseUp(mouse(50, 50, desktop.MouseButtonPrimary))

	require.Len(t, *reports, 2)
	assert.Equal(t, []surface.Point{{X: 10, Y: 10}, {X: 30, Y: 10}}, (*reports)[0])
	assert.Equal(t, []surface.Point{{X: 50, Y: 50}}, (*reports)[1])
}

func TestTouchGesture(t *testing.T) {
	v, reports := newTestView(t)

	v.TouchDown(touch(5, 5))
	v.Dragged(drag(25, 5))
	v.TouchCancel(touch(0, 0))

	require.Len(t, *reports, 1)
	assert.Equal(t, []surface.Point{{X: 5, Y: 5}, {X: 25, Y: 5}}, (*reports)[0])
}

func TestTapReportsSinglePoint(t *testing.T) {
	v, reports := newTestView(t)

	v.MouseDown(mouse(40, 40, desktop.MouseButtonPrimary))
	v.MouseUp(mouse(40, 40, desktop.MouseButtonPrimary))

	require.Len(t, *reports, 1)
	assert.Equal(t, []surface.Point{{X: 40, Y: 40}}, (*reports)[0])
}

func TestStrayEventsAreIgnored(t *testing.T) {
	v, reports := newTestView(t)

	assert.NotPanics(t, func() {
		v.Dragged(drag(10, 10))
		v.MouseUp(mouse(10, 10, desktop.MouseButtonPrimary))
		v.DragEnd()
		v.TouchUp(touch(1, 1))
	})
	assert.Empty(t, *reports)
}

func TestResizeDropsGestureAndReallocates(t *testing.T) {
	v, reports := newTestView(t)

	v.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	v.Dragged(drag(20, 20))
	v.Resize(fyne.NewSize(200, 150))
	v.Dragged(drag(30, 30))
	v.MouseUp(mouse(30, 30, desktop.MouseButtonPrimary))

	assert.Empty(t, *reports)
	assert.Equal(t, image.Rect(0, 0, 200, 150), v.Surface().Bounds())
	assert.Equal(t, image.Rect(0, 0, 200, 150), v.remote.Bounds())
	assert.Same(t, v.Surface().Canvas(), v.local.Image)
}

func TestResetKeepsStyleAndRemoteLayer(t *testing.T) {
	v, _ := newTestView(t)
	v.SetStrokeColor(color.NRGBA{R: 255, A: 255})
	v.SetLineWidth(5)
	v.AddRemoteGesture("peer", []surface.Point{{X: 0, Y: 50}, {X: 100, Y: 50}}, surface.Style{Color: color.Black, Width: 2})

	v.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	v.Dragged(drag(90, 10))
	v.Reset()

	assert.Zero(t, v.Surface().Canvas().RGBAAt(50, 10).A)
	assert.NotZero(t, v.remote.RGBAAt(50, 50).A)
	assert.Equal(t, surface.Style{Color: color.NRGBA{R: 255, A: 255}, Width: 5}, v.Style())
	assert.False(t, v.Surface().Tracking())
}

func TestRemoteGesturesStayOffTheLocalCanvas(t *testing.T) {
	v, _ := newTestView(t)

	v.AddRemoteGesture("peer", []surface.Point{{X: 10, Y: 80}, {X: 90, Y: 80}}, surface.Style{Color: color.NRGBA{G: 255, A: 255}, Width: 4})
	v.MouseDown(mouse(10, 20, desktop.MouseButtonPrimary))
	v.Dragged(drag(90, 20))
	v.MouseUp(mouse(90, 20, desktop.MouseButtonPrimary))

	assert.Zero(t, v.Surface().Canvas().RGBAAt(50, 80).A)
	assert.NotZero(t, v.remote.RGBAAt(50, 80).G)

	snap := v.Snapshot()
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, snap.RGBAAt(50, 50), "white background")
	assert.Greater(t, snap.RGBAAt(50, 20).B, snap.RGBAAt(50, 20).R, "local stroke")
	assert.Greater(t, snap.RGBAAt(50, 80).G, snap.RGBAAt(50, 80).R, "remote stroke")

	v.ClearRemote()
	assert.Zero(t, v.remote.RGBAAt(50, 80).A)
	assert.Same(t, v.remote, v.remoteLayer.Image)
}

func TestClearSiteKeepsOtherSites(t *testing.T) {
	v, _ := newTestView(t)
	red := surface.Style{Color: color.NRGBA{R: 255, A: 255}, Width: 4}
	green := surface.Style{Color: color.NRGBA{G: 255, A: 255}, Width: 4}

	v.AddRemoteGesture("a", []surface.Point{{X: 10, Y: 20}, {X: 90, Y: 20}}, red)
	v.AddRemoteGesture("b", []surface.Point{{X: 10, Y: 60}, {X: 90, Y: 60}}, green)
	v.AddRemoteGesture("a", []surface.Point{{X: 50, Y: 0}, {X: 50, Y: 99}}, red)

	v.ClearSite("a")
	assert.Zero(t, v.remote.RGBAAt(30, 20).A)
	assert.Zero(t, v.remote.RGBAAt(50, 40).A)
	assert.Equal(t, uint8(255), v.remote.RGBAAt(50, 60).G, "green drawn again over the cleared crossing")
	assert.Zero(t, v.remote.RGBAAt(50, 60).R)
	assert.Same(t, v.remote, v.remoteLayer.Image)

	before := v.remote
	v.ClearSite("unknown")
	assert.Same(t, before, v.remote, "nothing to clear")
}

func TestResizeRedrawsRemoteGestures(t *testing.T) {
	v, _ := newTestView(t)
	v.AddRemoteGesture("peer", []surface.Point{{X: 10, Y: 50}, {X: 90, Y: 50}}, surface.Style{Color: color.Black, Width: 4})

	v.Resize(fyne.NewSize(200, 150))
	assert.Equal(t, image.Rect(0, 0, 200, 150), v.remote.Bounds())
	assert.NotZero(t, v.remote.RGBAAt(50, 50).A)
}

func TestResetNotifiesAfterClearing(t *testing.T) {
	v, _ := newTestView(t)
	resets := 0
	v.OnReset = func(got *DrawingView) {
		assert.Same(t, v, got)
		assert.Empty(t, got.Surface().Points())
		resets++
	}

	v.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	v.Dragged(drag(20, 20))
	v.Reset()
	assert.Equal(t, 1, resets)

	v.Resize(fyne.NewSize(120, 120))
	assert.Equal(t, 1, resets, "resizing is not a clear")
}

func TestToolbarDrivesStyle(t *testing.T) {
	v, _ := newTestView(t)
	exported := 0
	tb := NewToolbar(v, func() { exported++ })

	require.Len(t, tb.swatches, len(palette)+1)
	assert.Equal(t, surface.DefaultStyle().Color, tb.swatches[0].Color)

	assert.True(t, tb.swatches[0].selected)

	test.Tap(tb.swatches[2])
	assert.Equal(t, palette[1], v.Style().Color)
	assert.True(t, tb.swatches[2].selected)
	assert.False(t, tb.swatches[0].selected)

	tb.width.OnChanged(12)
	assert.Equal(t, float32(12), v.Style().Width)
	assert.Equal(t, float64(3), tb.width.Value)
}

func TestClampWidth(t *testing.T) {
	assert.Equal(t, float32(1), clampWidth(-4))
	assert.Equal(t, float32(50), clampWidth(80))
	assert.Equal(t, float32(3), clampWidth(3))
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestShellExportsSnapshot(t *testing.T) {
	v, _ := newTestView(t)
	s := NewShell(fyne.CurrentApp(), config.WindowConfig{Title: "test", Width: 200, Height: 200}, v)
	v.Resize(fyne.NewSize(100, 100))

	v.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	v.Dragged(drag(90, 90))
	v.MouseUp(mouse(90, 90, desktop.MouseButtonPrimary))

	var out closeRecorder
	s.saveTo(&out, "sketch.png")
	assert.True(t, out.closed)
	assert.Equal(t, "Exported sketch.png", s.status.Text)

	img, err := png.Decode(&out.Buffer)
	require.NoError(t, err)
	assert.Equal(t, v.Surface().Bounds(), img.Bounds())

	var bad closeRecorder
	s.saveTo(&bad, "sketch.bmp")
	assert.True(t, bad.closed)
	assert.Contains(t, s.status.Text, "Export failed")
}
