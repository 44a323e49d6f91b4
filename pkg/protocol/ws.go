package protocol

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

type WebSocket struct {
	mu     sync.Mutex
	conn   *ws.Conn
	url    string
	reconn time.Duration
}

func NewWebSocket(url string, reconn time.Duration) (*WebSocket, error) {
	log.Debug("Dial websocket", "url", url)

	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	if reconn <= 0 {
		reconn = time.Second
	}
	return &WebSocket{conn: conn, url: url, reconn: reconn}, nil
}

func (web *WebSocket) current() *ws.Conn {
	web.mu.Lock()
	defer web.mu.Unlock()
	return web.conn
}

func (web *WebSocket) Write(payload []byte) error {
	web.mu.Lock()
	defer web.mu.Unlock()
	log.Debug("Write ws", "msg", string(payload))
	return web.conn.WriteMessage(ws.TextMessage, payload)
}

type IncomeKind uint

const (
	ConnClosed IncomeKind = iota
	ReadFailure
	ReadOK
)

type Income struct {
	Kind IncomeKind
	Msg  []byte
	Err  error
}

func (web *WebSocket) Read() Income {
	_, msg, err := web.current().ReadMessage()
	if err != nil {
		if IsClosed(err) {
			return Income{Kind: ConnClosed, Err: err}
		}
		return Income{Kind: ReadFailure, Err: err}
	}

	log.Debug("Read ws", "msg", string(msg))
	return Income{Kind: ReadOK, Msg: msg}
}

// TryReconn redials until it succeeds or ctx is done.
func (web *WebSocket) TryReconn(ctx context.Context) error {
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, web.url, nil)
		if err == nil {
			web.mu.Lock()
			old := web.conn
			web.conn = conn
			web.mu.Unlock()
			old.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(web.reconn):
		}
	}
}

func (web *WebSocket) Close() error {
	conn := web.current()
	_ = conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return conn.Close()
}

func IsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
