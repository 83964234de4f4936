package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"LocalSketch/internal/config"
	relay "LocalSketch/internal/net"
	"LocalSketch/internal/state"
	"LocalSketch/internal/surface"
	"LocalSketch/internal/ui"
)

const dialTimeout = 10 * time.Second

// session ties the local window to the relay: local gestures go out, remote
// ones are drawn on the view's remote layer.
type session struct {
	view     *ui.DrawingView
	shell    *ui.Shell
	recorder *state.Recorder
	seen     *state.Seen
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	style, err := cfg.StrokeStyle()
	if err != nil {
		slog.Error("invalid style", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	view := ui.NewDrawingView(style)
	shell := ui.NewShell(app.NewWithID("io.localsketch"), cfg.Window, view)

	clock := &state.Clock{}
	recorder := state.NewRecorder(clock)
	s := &session{
		view:     view,
		shell:    shell,
		recorder: recorder,
		seen:     state.NewSeen(recorder.Site(), clock, state.DefaultSeenCapacity),
	}

	if len(os.Args) > 1 && relay.IsLink(os.Args[1]) {
		slog.Info("starting as client", "link", os.Args[1])
		go s.join(ctx, cfg.Share, os.Args[1])
	} else {
		slog.Info("starting as host")
		s.host(ctx, cfg.Share)
	}

	go func() {
		<-ctx.Done()
		fyne.Do(shell.Window().Close)
	}()
	shell.Run()
}

func (s *session) host(ctx context.Context, cfg config.ShareConfig) {
	hub := relay.NewHub()
	s.attachHub(hub)

	go func() {
		if err := hub.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port)); err != nil {
			slog.Error("relay stopped", "err", err)
			s.shell.SetStatus(fmt.Sprintf("Sharing unavailable: %v", err))
		}
	}()

	if cfg.Advertise {
		server, err := relay.Advertise(cfg.Port)
		if err != nil {
			slog.Warn("mDNS advertise failed", "err", err)
		} else {
			go func() {
				<-ctx.Done()
				if err := server.Shutdown(); err != nil {
					slog.Warn("mDNS shutdown", "err", err)
				}
			}()
		}
	}

	link := relay.ShareLink(relay.OutgoingIP(), cfg.Port)
	slog.Info("share link", "link", link)
	s.shell.SetStatus("Share link: " + link)
}

func (s *session) join(ctx context.Context, cfg config.ShareConfig, link string) {
	addr, err := relay.ParseLink(link)
	if errors.Is(err, relay.ErrNoHost) {
		s.shell.SetStatus("Looking for a host...")
		addr, err = relay.Discover(cfg.DiscoverTimeout)
	}
	if err != nil {
		s.shell.SetStatus(fmt.Sprintf("Connection failed: %v", err))
		return
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	client, err := relay.Dial(dialCtx, relay.GestureURL(addr))
	cancel()
	if err != nil {
		s.shell.SetStatus(fmt.Sprintf("Connection failed: %v", err))
		return
	}
	defer client.Close()
	stopClose := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stopClose()

	fyne.Do(func() { s.attachClient(client) })

	s.shell.SetStatus("Connected to host as " + client.LocalAddr())
	slog.Info("connected", "host", addr, "local", client.LocalAddr())

	if err := client.Listen(s.handlers()); err != nil && ctx.Err() == nil {
		s.shell.SetStatus(fmt.Sprintf("Disconnected from host: %v", err))
		return
	}
	s.shell.SetStatus("Host closed the session")
}

// attachHub makes the host relay its own gestures and clears and draw what
// peers send.
func (s *session) attachHub(hub *relay.Hub) {
	hub.Handlers = s.handlers()
	s.view.OnDraw = func(v *ui.DrawingView, points []surface.Point) {
		g, ok := s.record(v, points)
		if !ok {
			return
		}
		if err := hub.Broadcast(g, nil); err != nil {
			slog.Error("broadcast gesture", "id", g.ID, "err", err)
		}
	}
	s.view.OnReset = func(*ui.DrawingView) {
		if err := hub.BroadcastClear(s.recorder.Site(), nil); err != nil {
			slog.Error("broadcast clear", "err", err)
		}
	}
}

// attachClient sends local gestures and clears to the host. Call it on the
// fyne goroutine.
func (s *session) attachClient(client *relay.Client) {
	s.view.OnDraw = func(v *ui.DrawingView, points []surface.Point) {
		g, ok := s.record(v, points)
		if !ok {
			return
		}
		if err := client.Send(g); err != nil {
			slog.Error("send gesture", "id", g.ID, "err", err)
		}
	}
	s.view.OnReset = func(*ui.DrawingView) {
		if err := client.SendClear(s.recorder.Site()); err != nil {
			slog.Error("send clear", "err", err)
		}
	}
}

func (s *session) handlers() relay.Handlers {
	return relay.Handlers{Gesture: s.drawRemote, Clear: s.clearRemote}
}

// record stamps a finished local gesture. Taps draw nothing and are not
// shared.
func (s *session) record(v *ui.DrawingView, points []surface.Point) (state.Gesture, bool) {
	if len(points) < 2 {
		return state.Gesture{}, false
	}
	return s.recorder.Record(points, v.Style()), true
}

// drawRemote runs on relay goroutines.
func (s *session) drawRemote(g state.Gesture) {
	if !s.seen.Observe(g) {
		return
	}
	st, err := g.Style()
	if err != nil {
		slog.Warn("dropping remote gesture", "id", g.ID, "site", g.Site, "err", err)
		return
	}
	fyne.Do(func() {
		s.view.AddRemoteGesture(g.Site, g.Points, st)
	})
}

// clearRemote runs on relay goroutines.
func (s *session) clearRemote(site string) {
	if site == s.recorder.Site() {
		return
	}
	slog.Debug("peer cleared", "site", site)
	fyne.Do(func() {
		s.view.ClearSite(site)
	})
}
