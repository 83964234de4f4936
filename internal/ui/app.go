package ui

import (
	"fmt"
	"io"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"LocalSketch/internal/config"
	"LocalSketch/internal/export"
)

// Shell is the application window around a DrawingView.
type Shell struct {
	app     fyne.App
	window  fyne.Window
	view    *DrawingView
	toolbar *Toolbar
	status  *widget.Label
}

func NewShell(a fyne.App, cfg config.WindowConfig, view *DrawingView) *Shell {
	s := &Shell{
		app:    a,
		window: a.NewWindow(cfg.Title),
		view:   view,
		status: widget.NewLabel("Ready"),
	}
	s.window.Resize(fyne.NewSize(cfg.Width, cfg.Height))

	s.toolbar = NewToolbar(view, s.showExport)
	s.window.SetContent(container.NewBorder(s.toolbar.Object, s.status, nil, nil, view))
	return s
}

func (s *Shell) Window() fyne.Window { return s.window }

// SetStatus is safe to call from any goroutine.
func (s *Shell) SetStatus(text string) {
	fyne.Do(func() {
		s.status.SetText(text)
	})
}

// Run shows the window and blocks until it is closed.
func (s *Shell) Run() {
	s.window.ShowAndRun()
}

func (s *Shell) showExport() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, s.window)
			return
		}
		if writer == nil {
			return // cancelled
		}
		s.saveTo(writer, writer.URI().Name())
	}, s.window)
	d.SetFileName("sketch.png")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".pdf"}))
	d.Show()
}

// saveTo writes a snapshot of the view and closes w.
func (s *Shell) saveTo(w io.WriteCloser, name string) {
	defer func() {
		if err := w.Close(); err != nil {
			slog.Error("close export", "file", name, "err", err)
		}
	}()

	if err := export.Write(w, name, s.view.Snapshot()); err != nil {
		slog.Error("export failed", "file", name, "err", err)
		s.status.SetText("Export failed: " + err.Error())
		return
	}
	s.status.SetText(fmt.Sprintf("Exported %s", name))
	slog.Info("exported drawing", "file", name)
}
