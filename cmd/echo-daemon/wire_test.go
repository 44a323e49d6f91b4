package main

import (
	"context"
	"testing"

	"echo/internal/ai"
	"echo/internal/assistant"
	"echo/internal/config"
	"echo/internal/ipc"
	"echo/pkg/protocol"
)

type echoAsker struct{}

func (echoAsker) Ask(_ context.Context, prompt string) string { return "re: " + prompt }

func TestControlHandler(t *testing.T) {
	var published []protocol.Event
	s := assistant.New(assistant.Config{
		Chat: echoAsker{},
		Sink: func(e protocol.Event) { published = append(published, e) },
	})
	handle := controlHandler(s)
	ctx := context.Background()

	tests := []struct {
		name string
		msg  ipc.ControlMessage
		ok   bool
		text string
	}{
		{"status", ipc.ControlMessage{Cmd: "status"}, true, "Idle"},
		{"chat", ipc.ControlMessage{Cmd: "chat", Text: "hello"}, true, "re: hello"},
		{"blank chat", ipc.ControlMessage{Cmd: "chat", Text: "  "}, false, "nothing to say"},
		{"pause idle", ipc.ControlMessage{Cmd: "pause"}, false, assistant.ErrNotRunning.Error()},
		{"unknown", ipc.ControlMessage{Cmd: "dance"}, false, `unknown command "dance"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handle(ctx, tt.msg)
			if got.OK != tt.ok || got.Text != tt.text {
				t.Errorf("reply = %+v, want ok=%v text=%q", got, tt.ok, tt.text)
			}
		})
	}

	if len(published) != 1 || published[0].Kind != protocol.KindResponse {
		t.Errorf("chat should publish one response, got %+v", published)
	}
}

func TestNewCompleter_NoKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	c, err := newCompleter(context.Background(), config.Default().AI, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Errorf("completer = %T, want nil", c)
	}
}

func TestNewCompleter_FallsBackToOtherKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	c, err := newCompleter(context.Background(), config.Default().AI, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(*ai.OpenAI); !ok {
		t.Errorf("completer = %T, want *ai.OpenAI", c)
	}
}
