// Package uihub pushes assistant activity to browser clients over websocket:
// phase changes drive a listening indicator and spoken responses show as
// captions.
package uihub

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/playmixer/nova/smarty"
)

const (
	KindEvent = "event"
	KindSay   = "say"

	writeTimeout = 2 * time.Second
	sendBuffer   = 16
)

type Message struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
	At   int64  `json:"at"`
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	origins  []string
	now      func() time.Time

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New creates a hub that accepts pages served from its own host and from
// the listed origins ("https://panel.lan" or a bare "panel.lan:8080").
func New(log *zap.Logger, origins ...string) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		log:     log,
		origins: origins,
		now:     time.Now,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// checkOrigin admits clients without an Origin header; only browsers send
// one.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, o := range h.origins {
		if strings.EqualFold(o, origin) || strings.EqualFold(o, u.Host) {
			return true
		}
	}
	h.log.Warn("origin rejected", zap.String("origin", origin))
	return false
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("client connected", zap.String("remote", r.RemoteAddr))

	go h.write(c)
	// Clients never send; reading only notices the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(c)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

func (h *Hub) write(c *client) {
	for m := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(m); err != nil {
			h.log.Debug("write", zap.Error(err))
			c.conn.Close()
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

// Broadcast queues m for every client. A client whose queue is full misses
// the message.
func (h *Hub) Broadcast(m Message) {
	if m.At == 0 {
		m.At = h.now().UnixMilli()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- m:
		default:
		}
	}
}

// Forward broadcasts assistant events until ctx is done or events closes.
func (h *Hub) Forward(ctx context.Context, events <-chan smarty.AssistantEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			h.Broadcast(Message{Kind: KindEvent, Text: e.String()})
		}
	}
}

// Speaker wraps another speaker and mirrors every response to the hub.
func (h *Hub) Speaker(next smarty.Speaker) smarty.Speaker {
	return smarty.SpeakerFunc(func(ctx context.Context, text string) error {
		h.Broadcast(Message{Kind: KindSay, Text: text})
		if next == nil {
			return nil
		}
		return next.Speak(ctx, text)
	})
}

// ListenAndServe serves the hub on addr at /ws until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	h.log.Info("ui hub listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
