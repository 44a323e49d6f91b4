package bus

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"echo/pkg/protocol"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) protocol.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	e, err := protocol.Decode(msg)
	if err != nil {
		t.Fatalf("decode %s: %v", msg, err)
	}
	return e
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBus_GreetingAndPublish(t *testing.T) {
	t.Parallel()

	b := New(nil, func() []protocol.Event {
		return []protocol.Event{protocol.State("Idle")}
	})
	srv := httptest.NewServer(b)
	defer srv.Close()

	conn := dial(t, srv)
	if e := readEvent(t, conn); e.Kind != protocol.KindState || e.State != "Idle" {
		t.Fatalf("greeting = %+v", e)
	}

	waitFor(t, func() bool { return b.Clients() == 1 })
	b.Publish(protocol.Transcript("what time is it", "time_date"))

	e := readEvent(t, conn)
	if e.Kind != protocol.KindTranscript || e.Text != "what time is it" || e.Intent != "time_date" {
		t.Errorf("published = %+v", e)
	}
}

func TestBus_Inbound(t *testing.T) {
	t.Parallel()

	got := make(chan protocol.Event, 4)
	b := New(func(e protocol.Event) { got <- e }, nil)
	srv := httptest.NewServer(b)
	defer srv.Close()

	conn := dial(t, srv)
	send := func(raw string) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	send(`{"kind":"control","text":"dance"}`)
	send(`{"kind":"response","text":"spoofed"}`)
	send(`{"kind":"chat","text":"hello"}`)
	send(`{"kind":"control","text":"pause"}`)

	want := []protocol.Event{protocol.Chat("hello"), protocol.Control("pause")}
	for i, w := range want {
		select {
		case e := <-got:
			if e != w {
				t.Errorf("event %d = %+v, want %+v", i, e, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestBus_Disconnect(t *testing.T) {
	t.Parallel()

	b := New(nil, nil)
	srv := httptest.NewServer(b)
	defer srv.Close()

	conn := dial(t, srv)
	waitFor(t, func() bool { return b.Clients() == 1 })
	conn.Close()
	waitFor(t, func() bool { return b.Clients() == 0 })

	b.Publish(protocol.Status("nobody listening"))
}
