package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"echo/internal/ai"
	"echo/internal/assistant"
	"echo/internal/config"
	"echo/internal/ipc"
	"echo/internal/memory"
	"echo/internal/tts"
	"echo/internal/worker"
	"echo/pkg/protocol"
	"echo/pkg/stt"
)

// newCompleter prefers the configured engine and falls back to whichever
// key is set. No key at all yields a nil Completer.
func newCompleter(ctx context.Context, cfg config.AI, httpClient *http.Client) (ai.Completer, error) {
	geminiKey := os.Getenv("GEMINI_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")

	engine := cfg.Engine
	switch {
	case engine == "gemini" && geminiKey == "" && openaiKey != "":
		engine = "openai"
	case engine == "openai" && openaiKey == "" && geminiKey != "":
		engine = "gemini"
	}

	switch engine {
	case "gemini":
		if geminiKey == "" {
			return nil, nil
		}
		g, err := ai.NewGemini(ctx, geminiKey, cfg.Model, httpClient)
		if err != nil {
			return nil, err
		}
		log.Debug("Loaded AI backend", "engine", engine)
		return g, nil
	case "openai":
		if openaiKey == "" {
			return nil, nil
		}
		model := cfg.Model
		if strings.HasPrefix(model, "gemini") {
			model = ""
		}
		opts := []option.RequestOption{option.WithAPIKey(openaiKey)}
		if httpClient != nil {
			opts = append(opts, option.WithHTTPClient(httpClient))
		}
		client := openai.NewClient(opts...)
		log.Debug("Loaded AI backend", "engine", engine)
		return ai.NewOpenAI(client, model), nil
	default:
		return nil, fmt.Errorf("unknown AI engine %q", engine)
	}
}

func newChat(cfg config.Config, completer ai.Completer) *ai.Chat {
	return ai.NewChat(ai.ChatConfig{
		Completer:    completer,
		Memory:       memory.New(cfg.MemoryLimit),
		SystemPrompt: cfg.AI.SystemPrompt,
		Name:         cfg.Name,
		Timeout:      cfg.AI.Timeout,
	})
}

func nop() {}

// newSynthesizer returns a nil Synthesizer for engine "none" and on failure,
// which leaves the speaker printing replies as status lines.
func newSynthesizer(ctx context.Context, cfg config.TTS) (tts.Synthesizer, func(), error) {
	switch cfg.Engine {
	case "google":
		g, err := tts.NewGoogle(ctx)
		if err != nil {
			return nil, nop, err
		}
		return g, func() { _ = g.Close() }, nil
	case "espeak":
		return tts.NewEspeak(), nop, nil
	default:
		return nil, nop, nil
	}
}

func newTranscriber(ctx context.Context, cfg config.STT) (worker.Transcriber, func(), error) {
	switch cfg.Engine {
	case "whisper":
		w, err := stt.NewWhisper(cfg.WhisperModel, cfg.Language)
		if err != nil {
			return nil, nop, err
		}
		return w, func() { _ = w.Close() }, nil
	default:
		g, err := stt.NewGoogle(ctx, cfg.Language)
		if err != nil {
			return nil, nop, err
		}
		return g, func() { _ = g.Close() }, nil
	}
}

func controlHandler(s *assistant.Session) ipc.Handler {
	return func(ctx context.Context, msg ipc.ControlMessage) ipc.Reply {
		switch msg.Cmd {
		case protocol.ControlStart, protocol.ControlPause, protocol.ControlResume,
			protocol.ControlStop, protocol.ControlInterrupt:
			if err := s.Control(ctx, msg.Cmd); err != nil {
				return ipc.Reply{Text: err.Error()}
			}
			return ipc.Reply{OK: true, Text: s.Status()}
		case "chat":
			if strings.TrimSpace(msg.Text) == "" {
				return ipc.Reply{Text: "nothing to say"}
			}
			return ipc.Reply{OK: true, Text: s.Chat(ctx, msg.Text)}
		case "say":
			s.Say(msg.Text)
			return ipc.Reply{OK: true}
		case "status":
			return ipc.Reply{OK: true, Text: s.Status()}
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return ipc.Reply{Text: fmt.Sprintf("unknown command %q", msg.Cmd)}
		}
	}
}
