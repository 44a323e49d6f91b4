// Package tts speaks replies: filter, synthesize to an audio artifact, play
// it back while watching the interrupt flag, then remove the artifact.
package tts

import (
	"context"
	log "log/slog"
	"os"
	"sync/atomic"
	"time"
)

type Voice struct {
	Name string
	Rate float64
}

// Synthesizer renders text into an audio file and returns its path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, v Voice) (string, error)
}

type Playback interface {
	Busy() bool
	Stop()
}

type Player interface {
	Play(path string) (Playback, error)
}

// Ducker lowers other audio while Echo talks.
type Ducker interface {
	Duck(ctx context.Context, factor float64, d time.Duration) error
	Unduck(ctx context.Context, d time.Duration) error
}

type Options struct {
	Synthesizer  Synthesizer // nil disables speech
	Player       Player
	Voice        Voice
	PollInterval time.Duration
	Ducker       Ducker
	DuckFactor   float64
	Status       func(string)
}

const (
	queueSize = 16
	fade      = 150 * time.Millisecond
)

type Speaker struct {
	opts  Options
	queue chan string

	interrupt atomic.Bool
	speaking  atomic.Bool
}

func New(opts Options) *Speaker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Status == nil {
		opts.Status = func(string) {}
	}
	return &Speaker{opts: opts, queue: make(chan string, queueSize)}
}

// Speak queues text. Replies that do not fit in the queue are dropped.
func (s *Speaker) Speak(text string) {
	select {
	case s.queue <- text:
	default:
		log.Warn("Speech queue full, dropping reply", "text", text)
	}
}

// Interrupt stops the current playback at its next poll.
func (s *Speaker) Interrupt() { s.interrupt.Store(true) }

func (s *Speaker) Speaking() bool { return s.speaking.Load() }

// Run plays queued replies one at a time until ctx is done.
func (s *Speaker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-s.queue:
			s.say(ctx, text)
		}
	}
}

func (s *Speaker) say(ctx context.Context, text string) {
	if s.opts.Synthesizer == nil || s.opts.Player == nil {
		s.opts.Status("TTS: " + text)
		return
	}

	clean := Filter(text)
	if clean == "" {
		return
	}

	s.interrupt.Store(false)
	s.speaking.Store(true)
	defer s.speaking.Store(false)

	path, err := s.opts.Synthesizer.Synthesize(ctx, clean, s.opts.Voice)
	if err != nil {
		log.Error("Synthesis failed", "err", err)
		s.opts.Status("TTS Error: " + text)
		return
	}
	defer func() { _ = os.Remove(path) }()

	if s.interrupt.Load() {
		log.Debug("Speech interrupted before playback")
		return
	}

	if s.opts.Ducker != nil {
		if err := s.opts.Ducker.Duck(ctx, s.opts.DuckFactor, fade); err != nil {
			log.Warn("Duck failed", "err", err)
		}
		defer func() {
			if err := s.opts.Ducker.Unduck(context.WithoutCancel(ctx), fade); err != nil {
				log.Warn("Unduck failed", "err", err)
			}
		}()
	}

	pb, err := s.opts.Player.Play(path)
	if err != nil {
		log.Error("Playback failed", "path", path, "err", err)
		s.opts.Status("TTS Error: " + text)
		return
	}

	tick := time.NewTicker(s.opts.PollInterval)
	defer tick.Stop()

	for pb.Busy() {
		if s.interrupt.Load() {
			log.Debug("Speech interrupted")
			pb.Stop()
			return
		}
		select {
		case <-ctx.Done():
			pb.Stop()
			return
		case <-tick.C:
		}
	}
}
