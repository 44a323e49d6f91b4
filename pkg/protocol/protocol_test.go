package protocol

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Event
		wantErr bool
	}{
		{"transcript", `{"kind":"transcript","text":"hi","intent":"ai_chat"}`, Transcript("hi", "ai_chat"), false},
		{"state", `{"kind":"state","state":"Paused"}`, State("Paused"), false},
		{"control", `{"kind":"control","text":"stop"}`, Control(ControlStop), false},
		{"chat", `{"kind":"chat","text":"tell me a joke"}`, Chat("tell me a joke"), false},
		{"unknown kind", `{"kind":"gossip"}`, Event{}, true},
		{"unknown control", `{"kind":"control","text":"explode"}`, Event{}, true},
		{"blank chat", `{"kind":"chat","text":"   "}`, Event{}, true},
		{"state without state", `{"kind":"state"}`, Event{}, true},
		{"not json", `kind=chat`, Event{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("error = %v, want ErrInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncode_RejectsInvalid(t *testing.T) {
	t.Parallel()

	if _, err := Encode(Event{Kind: KindChat}); !errors.Is(err, ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
	b, err := Encode(Response("Volume set to 50%"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `{"kind":"response","text":"Volume set to 50%"}`; string(b) != want {
		t.Errorf("encoded %s, want %s", b, want)
	}
}

func TestClient_SendAndReceive(t *testing.T) {
	t.Parallel()

	up := ws.Upgrader{}
	fromClient := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(ws.TextMessage, []byte(`{"kind":"bogus"}`))
		_ = conn.WriteMessage(ws.TextMessage, []byte(`{"kind":"response","text":"pong"}`))
		_, msg, err := conn.ReadMessage()
		if err == nil {
			fromClient <- string(msg)
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	got := make(chan Event, 4)
	c, err := NewClient(ClientConfig{
		URL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
		Reconn:  10 * time.Millisecond,
		EmitOut: func(e Event) { got <- e },
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	select {
	case e := <-got:
		if e != Response("pong") {
			t.Errorf("received %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	if err := c.Send(Control(ControlPause)); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case raw := <-fromClient:
		if raw != `{"kind":"control","text":"pause"}` {
			t.Errorf("server got %s", raw)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server got nothing")
	}
}
