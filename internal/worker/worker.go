// Package worker runs the background speech loop: open the microphone,
// calibrate, then listen, transcribe and dispatch until stopped.
package worker

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"echo/internal/config"
	"echo/pkg/capture"
	"echo/pkg/protocol"
	"echo/pkg/stt"
)

type State int32

const (
	Idle State = iota
	Initializing
	Listening
	Paused
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Initializing:
		return "Initializing"
	case Listening:
		return "Listening"
	case Paused:
		return "Paused"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

const (
	statusInit      = "Initializing microphone..."
	statusCalibrate = "Calibrating for ambient noise..."
	statusReady     = "Ready - Say something to Echo..."
	statusListening = "Listening..."
	statusNotHeard  = "Could not understand. Try speaking more clearly."
	statusStopped   = "Voice recognition stopped."
	eventBuffer     = 32
)

var ErrAlreadyStarted = errors.New("worker: already started")

type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, utterance string) string
}

type Classifier interface {
	Classify(utterance string) string
}

type Config struct {
	Microphone  capture.Microphone
	Transcriber Transcriber
	Dispatcher  Dispatcher
	Classifier  Classifier
	Timings     config.Worker
	OnReady     func() // called once listening begins
}

// Worker is single use: once stopped, build a new one.
type Worker struct {
	cfg Config

	state  atomic.Int32
	events chan protocol.Event
	done   chan struct{}

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

func New(cfg Config) *Worker {
	if cfg.OnReady == nil {
		cfg.OnReady = func() {}
	}
	return &Worker{
		cfg:    cfg,
		events: make(chan protocol.Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

func (w *Worker) State() State { return State(w.state.Load()) }

// Events delivers transcripts, responses, statuses and errors. It is closed
// when the loop exits; the loop blocks while nobody reads.
func (w *Worker) Events() <-chan protocol.Event { return w.events }

func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || !w.state.CompareAndSwap(int32(Idle), int32(Initializing)) {
		return ErrAlreadyStarted
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
	return nil
}

func (w *Worker) Pause() bool {
	return w.state.CompareAndSwap(int32(Listening), int32(Paused))
}

func (w *Worker) Resume() bool {
	return w.state.CompareAndSwap(int32(Paused), int32(Listening))
}

// Stop asks the loop to exit at its next check point.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		w.started = true
		w.state.Store(int32(Stopped))
		close(w.events)
		close(w.done)
		return
	}

	for {
		cur := w.state.Load()
		if State(cur) == Stopped || State(cur) == Stopping {
			break
		}
		if w.state.CompareAndSwap(cur, int32(Stopping)) {
			break
		}
	}
	w.cancel()
}

// Wait reports whether the loop exited within d.
func (w *Worker) Wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.done:
		return true
	case <-t.C:
		return false
	}
}

func (w *Worker) emit(e protocol.Event) { w.events <- e }

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)
	defer func() {
		w.state.Store(int32(Stopped))
		w.emit(protocol.Status(statusStopped))
		w.emit(protocol.State(Stopped.String()))
		log.Info("Voice worker stopped")
	}()

	w.emit(protocol.State(Initializing.String()))
	w.emit(protocol.Status(statusInit))

	mic := w.cfg.Microphone
	if err := mic.Open(); err != nil {
		log.Error("Microphone open failed", "err", err)
		w.emit(protocol.Error(fmt.Sprintf("Failed to initialize microphone: %v", err)))
		return
	}
	defer func() {
		if err := mic.Close(); err != nil {
			log.Warn("Microphone close failed", "err", err)
		}
	}()

	w.emit(protocol.Status(statusCalibrate))
	if err := mic.Calibrate(ctx, w.cfg.Timings.Calibration); err != nil {
		if ctx.Err() == nil {
			log.Error("Calibration failed", "err", err)
			w.emit(protocol.Error(fmt.Sprintf("Failed to initialize microphone: %v", err)))
		}
		return
	}

	if !w.state.CompareAndSwap(int32(Initializing), int32(Listening)) {
		return
	}
	w.emit(protocol.State(Listening.String()))
	w.emit(protocol.Status(statusReady))
	w.cfg.OnReady()
	log.Info("Voice worker listening")

	w.loop(ctx)
}

func (w *Worker) loop(ctx context.Context) {
	t := w.cfg.Timings
	var lastStatus string
	status := func(s string) {
		if s != lastStatus {
			w.emit(protocol.Status(s))
			lastStatus = s
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}

		switch w.State() {
		case Stopping, Stopped:
			return
		case Paused:
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.PausePoll):
			}
			continue
		}

		status(statusListening)
		pcm, err := w.cfg.Microphone.Listen(ctx, t.ListenTimeout, t.PhraseLimit)
		switch {
		case errors.Is(err, capture.ErrWaitTimeout):
			continue
		case ctx.Err() != nil:
			return
		case err != nil:
			log.Error("Microphone failed", "err", err)
			w.emit(protocol.Error(fmt.Sprintf("Microphone error: %v", err)))
			return
		}

		if w.State() != Listening {
			continue
		}

		text, err := w.cfg.Transcriber.Transcribe(ctx, pcm)
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, stt.ErrUnintelligible):
			status(statusNotHeard)
			continue
		case err != nil:
			log.Warn("Transcription failed", "err", err)
			w.emit(protocol.Error(fmt.Sprintf("Speech recognition error: %v", err)))
			lastStatus = ""
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		intent := w.cfg.Classifier.Classify(text)
		log.Info("Heard", "text", text, "intent", intent)
		w.emit(protocol.Transcript(text, intent))

		reply := w.cfg.Dispatcher.Dispatch(ctx, text)
		w.emit(protocol.Response(reply))
		lastStatus = ""
	}
}
