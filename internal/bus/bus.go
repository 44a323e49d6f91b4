// Package bus serves the daemon's event stream to shells over websocket.
package bus

import (
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"echo/pkg/protocol"
)

const (
	Path       = "/ws"
	sendBuffer = 64
	writeWait  = 5 * time.Second
)

type Bus struct {
	upgrader websocket.Upgrader
	handler  func(protocol.Event)
	greeting func() []protocol.Event

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New returns a bus that hands inbound chat and control events to handler.
// greeting, when set, produces events sent to every new connection.
func New(handler func(protocol.Event), greeting func() []protocol.Event) *Bus {
	return &Bus{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		handler:  handler,
		greeting: greeting,
		clients:  make(map[*client]struct{}),
	}
}

// Publish broadcasts e. Clients that fall behind lose the event.
func (b *Bus) Publish(e protocol.Event) {
	payload, err := protocol.Encode(e)
	if err != nil {
		log.Error("Refusing to publish invalid event", "kind", e.Kind, "err", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- payload:
		default:
			log.Warn("Shell too slow, dropping event", "kind", e.Kind)
		}
	}
}

func (b *Bus) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Bus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	log.Info("Shell connected", "remote", r.RemoteAddr)

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if b.greeting != nil {
		for _, e := range b.greeting() {
			if payload, err := protocol.Encode(e); err == nil {
				c.send <- payload
			}
		}
	}

	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()

	go b.writeLoop(c)
	b.readLoop(c)

	b.mu.Lock()
	delete(b.clients, c)
	b.mu.Unlock()
	close(c.send)
	log.Info("Shell disconnected", "remote", r.RemoteAddr)
}

func (b *Bus) readLoop(c *client) {
	defer c.conn.Close()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !protocol.IsClosed(err) {
				log.Debug("Shell read failed", "err", err)
			}
			return
		}

		e, err := protocol.Decode(msg)
		if err != nil {
			log.Warn("Dropping malformed event", "msg", string(msg), "err", err)
			continue
		}
		if e.Kind != protocol.KindChat && e.Kind != protocol.KindControl {
			log.Warn("Shell sent a daemon-only event", "kind", e.Kind)
			continue
		}
		if b.handler != nil {
			b.handler(e)
		}
	}
}

func (b *Bus) writeLoop(c *client) {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Debug("Shell write failed", "err", err)
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// ListenAndServe serves the bus on addr until ctx is done.
func (b *Bus) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle(Path, b)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("Event bus listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
