// Package assistant owns one running assistant: the voice worker, the
// speaker and the chat path, and fans their events out to a sink.
package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"echo/internal/worker"
	"echo/pkg/protocol"
)

var (
	ErrRunning    = errors.New("voice recognition is already running")
	ErrNotRunning = errors.New("voice recognition is not running")
)

type Speaker interface {
	Speak(text string)
	Interrupt()
	Speaking() bool
}

type Asker interface {
	Ask(ctx context.Context, prompt string) string
}

type Config struct {
	Worker   worker.Config // template for each new worker
	Speaker  Speaker
	Chat     Asker
	Sink     func(protocol.Event)
	StopWait time.Duration
}

type Session struct {
	cfg Config

	mu      sync.Mutex
	current *worker.Worker
}

func New(cfg Config) *Session {
	if cfg.Sink == nil {
		cfg.Sink = func(protocol.Event) {}
	}
	if cfg.StopWait <= 0 {
		cfg.StopWait = 3 * time.Second
	}
	return &Session{cfg: cfg}
}

func (s *Session) running() bool {
	if s.current == nil {
		return false
	}
	st := s.current.State()
	return st != worker.Stopped && st != worker.Stopping
}

// finished reports whether w has released the microphone.
func finished(w *worker.Worker) bool {
	select {
	case <-w.Done():
		return true
	default:
		return false
	}
}

// Start builds a fresh worker and starts it. A previous worker that is still
// winding down blocks the start, since both would share the microphone.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && !finished(s.current) {
		return ErrRunning
	}

	w := worker.New(s.cfg.Worker)
	if err := w.Start(ctx); err != nil {
		return err
	}
	s.current = w
	go s.pump(w)
	return nil
}

// pump forwards worker events and speaks every response.
func (s *Session) pump(w *worker.Worker) {
	for e := range w.Events() {
		s.cfg.Sink(e)
		if e.Kind == protocol.KindResponse && s.cfg.Speaker != nil {
			s.cfg.Speaker.Speak(e.Text)
		}
	}
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running() || !s.current.Pause() {
		return ErrNotRunning
	}
	s.cfg.Sink(protocol.State(worker.Paused.String()))
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running() || !s.current.Resume() {
		return ErrNotRunning
	}
	s.cfg.Sink(protocol.State(worker.Listening.String()))
	return nil
}

// Stop halts the worker and any speech, waiting a bounded time for the loop.
func (s *Session) Stop() error {
	s.Interrupt()

	s.mu.Lock()
	w := s.current
	s.mu.Unlock()

	if w == nil {
		return ErrNotRunning
	}
	w.Stop()
	if !w.Wait(s.cfg.StopWait) {
		log.Warn("Voice worker did not stop in time", "wait", s.cfg.StopWait)
	}
	return nil
}

func (s *Session) Interrupt() {
	if s.cfg.Speaker != nil {
		s.cfg.Speaker.Interrupt()
	}
}

// Chat answers typed input through the AI path only. The reply is published
// but not spoken.
func (s *Session) Chat(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var reply string
	if s.cfg.Chat == nil {
		reply = "AI chat is not available. Set GEMINI_API_KEY or OPENAI_API_KEY."
	} else {
		reply = s.cfg.Chat.Ask(ctx, text)
	}
	s.cfg.Sink(protocol.Response(reply))
	return reply
}

func (s *Session) Say(text string) {
	if s.cfg.Speaker != nil {
		s.cfg.Speaker.Speak(text)
	}
}

func (s *Session) State() worker.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return worker.Idle
	}
	return s.current.State()
}

func (s *Session) Status() string {
	st := s.State().String()
	if s.cfg.Speaker != nil && s.cfg.Speaker.Speaking() {
		st += ", speaking"
	}
	return st
}

// Control applies one control verb.
func (s *Session) Control(ctx context.Context, verb string) error {
	switch verb {
	case protocol.ControlStart:
		return s.Start(ctx)
	case protocol.ControlPause:
		return s.Pause()
	case protocol.ControlResume:
		return s.Resume()
	case protocol.ControlStop:
		return s.Stop()
	case protocol.ControlInterrupt:
		s.Interrupt()
		return nil
	default:
		return fmt.Errorf("unknown control %q", verb)
	}
}

// Handle serves an inbound bus event.
func (s *Session) Handle(ctx context.Context, e protocol.Event) {
	switch e.Kind {
	case protocol.KindChat:
		s.Chat(ctx, e.Text)
	case protocol.KindControl:
		if err := s.Control(ctx, e.Text); err != nil {
			s.cfg.Sink(protocol.Status(err.Error()))
		}
	}
}

// Greeting is what a newly connected shell needs to render current state.
func (s *Session) Greeting() []protocol.Event {
	return []protocol.Event{protocol.State(s.State().String())}
}
