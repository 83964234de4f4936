package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LocalSketch/internal/state"
)

// GesturePath is where the host accepts websocket peers.
const GesturePath = "/gestures"

const (
	TypeGesture = "gesture"
	// TypeClear asks every peer to drop the gestures of Site.
	TypeClear = "clear"

	sendQueue    = 64
	writeTimeout = 5 * time.Second
)

// ErrSendQueueFull is returned by Client sends when the writer is too far
// behind.
var ErrSendQueueFull = errors.New("send queue full")

// Message is the envelope exchanged on the wire, one JSON object per frame.
type Message struct {
	Type    string         `json:"type"`
	Gesture *state.Gesture `json:"gesture,omitempty"`
	Site    string         `json:"site,omitempty"`
}

func gestureMessage(g state.Gesture) Message {
	return Message{Type: TypeGesture, Gesture: &g}
}

func clearMessage(site string) Message {
	return Message{Type: TypeClear, Site: site}
}

// Handlers receive what peers send. Either field may be nil.
type Handlers struct {
	Gesture func(g state.Gesture)
	Clear   func(site string)
}

// dispatch hands msg to the matching handler and reports whether it was a
// known, well-formed message.
func (hs Handlers) dispatch(msg Message) bool {
	switch {
	case msg.Type == TypeGesture && msg.Gesture != nil:
		if hs.Gesture != nil {
			hs.Gesture(*msg.Gesture)
		}
	case msg.Type == TypeClear && msg.Site != "":
		if hs.Clear != nil {
			hs.Clear(msg.Site)
		}
	default:
		return false
	}
	return true
}

// Peer is one websocket client connected to the host.
type Peer struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

func (p *Peer) Addr() string { return p.addr }

// Hub is run by the host. It relays every gesture and clear a peer sends to
// all other peers and hands it to Handlers.
type Hub struct {
	peers    map[*Peer]struct{}
	mu       sync.RWMutex
	upgrader websocket.Upgrader

	// Handlers are called from the sending peer's read goroutine.
	Handlers Handlers
}

func NewHub() *Hub {
	return &Hub{
		peers: make(map[*Peer]struct{}),
		upgrader: websocket.Upgrader{
			// peers are other LocalSketch windows on the LAN, not browsers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Len returns the number of connected peers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	p := &Peer{conn: conn, send: make(chan []byte, sendQueue), addr: r.RemoteAddr}
	h.add(p)
	go h.writePump(p)
	h.readPump(p)
}

// Broadcast sends g to every peer except exclude (nil sends to all).
func (h *Hub) Broadcast(g state.Gesture, exclude *Peer) error {
	return h.send(gestureMessage(g), exclude)
}

// BroadcastClear tells every peer except exclude to drop site's gestures.
func (h *Hub) BroadcastClear(site string, exclude *Peer) error {
	return h.send(clearMessage(site), exclude)
}

func (h *Hub) send(msg Message, exclude *Peer) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	h.broadcast(data, exclude)
	return nil
}

func (h *Hub) broadcast(data []byte, exclude *Peer) {
	var slow []*Peer
	h.mu.RLock()
	for p := range h.peers {
		if p == exclude {
			continue
		}
		select {
		case p.send <- data:
		default:
			slow = append(slow, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range slow {
		slog.Warn("dropping slow peer", "peer", p.addr)
		h.remove(p)
	}
}

func (h *Hub) add(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[p] = struct{}{}
	slog.Info("peer connected", "peer", p.addr)
}

func (h *Hub) remove(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; !ok {
		return
	}
	delete(h.peers, p)
	close(p.send)
	slog.Info("peer disconnected", "peer", p.addr)
}

func (h *Hub) readPump(p *Peer) {
	defer h.remove(p)
	for {
		var msg Message
		if err := p.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("peer read ended", "peer", p.addr, "err", err)
			}
			return
		}
		if !h.Handlers.dispatch(msg) {
			slog.Debug("ignoring message", "peer", p.addr, "type", msg.Type)
			continue
		}
		if err := h.send(msg, p); err != nil {
			slog.Error("relay message", "peer", p.addr, "type", msg.Type, "err", err)
		}
	}
}

func (h *Hub) writePump(p *Peer) {
	defer p.conn.Close()
	for data := range p.send {
		_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("peer write failed", "peer", p.addr, "err", err)
			return
		}
	}
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	peers := make([]*Peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	for _, p := range peers {
		h.remove(p)
	}
}

// ListenAndServe serves the hub on addr until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle(GesturePath, h)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		h.closeAll()
	}()

	slog.Info("relay listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay listen on %s: %w", addr, err)
	}
	return nil
}

// Client is a peer's connection to the host. Sends are queued and written by
// one goroutine, so the host sees them in the order they were made.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	writerWG  sync.WaitGroup
}

// Dial connects to a host's gesture endpoint (ws://host:port/gestures).
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn: conn,
		send: make(chan []byte, sendQueue),
		done: make(chan struct{}),
	}
	c.writerWG.Add(1)
	go c.writePump()
	return c, nil
}

// LocalAddr is the client's side of the connection.
func (c *Client) LocalAddr() string { return c.conn.LocalAddr().String() }

// Send queues a local gesture for the host. It does not block.
func (c *Client) Send(g state.Gesture) error {
	return c.enqueue(gestureMessage(g))
}

// SendClear queues a clear of site's gestures.
func (c *Client) SendClear(site string) error {
	return c.enqueue(clearMessage(site))
}

func (c *Client) enqueue(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	select {
	case <-c.done:
		return fmt.Errorf("send %s: %w", msg.Type, net.ErrClosed)
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return fmt.Errorf("send %s: %w", msg.Type, net.ErrClosed)
	default:
		return fmt.Errorf("send %s: %w", msg.Type, ErrSendQueueFull)
	}
}

func (c *Client) writePump() {
	defer c.writerWG.Done()
	for {
		select {
		case data := <-c.send:
			if !c.write(data) {
				return
			}
		case <-c.done:
			// flush what was queued before Close
			for {
				select {
				case data := <-c.send:
					if !c.write(data) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (c *Client) write(data []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("host write failed", "err", err)
		return false
	}
	return true
}

// Listen dispatches everything the host relays until the connection ends. It
// returns nil when the host closes the connection normally.
func (c *Client) Listen(hs Handlers) error {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read from host: %w", err)
		}
		if !hs.dispatch(msg) {
			slog.Debug("ignoring message from host", "type", msg.Type)
		}
	}
}

// Close flushes queued sends and closes the connection. It is safe to call
// more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writerWG.Wait()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}
