// Package protocol is the JSON event format spoken between the daemon and
// its shells, plus a reconnecting websocket client for it.
package protocol

import (
	"context"
	log "log/slog"
	"time"
)

type ClientConfig struct {
	URL     string
	Reconn  time.Duration
	EmitOut func(Event)
}

type Client struct {
	ws      *WebSocket
	emitOut func(Event)
}

func NewClient(cfg ClientConfig) (*Client, error) {
	web, err := NewWebSocket(cfg.URL, cfg.Reconn)
	if err != nil {
		log.Error("Failed to init ws connection", "url", cfg.URL, "err", err)
		return nil, err
	}
	emit := cfg.EmitOut
	if emit == nil {
		emit = func(Event) {}
	}
	return &Client{ws: web, emitOut: emit}, nil
}

func (c *Client) Send(e Event) error {
	b, err := Encode(e)
	if err != nil {
		return err
	}
	if err := c.ws.Write(b); err != nil {
		log.Error("Failed to transmit", "kind", e.Kind, "err", err)
		return err
	}
	return nil
}

// Run reads events until ctx is done, reconnecting when the daemon goes away.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.ws.Close()
	}()

	for {
		in := c.ws.Read()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch in.Kind {
		case ConnClosed, ReadFailure:
			// gorilla connections are unusable after any read error.
			log.Warn("Connection lost, reconnecting", "url", c.ws.url, "err", in.Err)
			if err := c.ws.TryReconn(ctx); err != nil {
				return err
			}
			log.Info("Reconnected", "url", c.ws.url)

		case ReadOK:
			e, err := Decode(in.Msg)
			if err != nil {
				log.Warn("Dropping malformed event", "msg", string(in.Msg), "err", err)
				continue
			}
			c.emitOut(e)
		}
	}
}

func (c *Client) Close() error { return c.ws.Close() }
