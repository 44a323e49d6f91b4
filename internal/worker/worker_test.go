package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"echo/internal/config"
	"echo/pkg/capture"
	"echo/pkg/protocol"
	"echo/pkg/stt"
)

type fakeMic struct {
	openErr   error
	listenErr error
	speech    atomic.Bool
	listens   atomic.Int32
	closed    atomic.Bool
}

func (m *fakeMic) Open() error { return m.openErr }

func (m *fakeMic) Calibrate(context.Context, time.Duration) error { return nil }

func (m *fakeMic) Listen(ctx context.Context, _, _ time.Duration) ([]float32, error) {
	m.listens.Add(1)
	if m.listenErr != nil {
		return nil, m.listenErr
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Millisecond):
	}
	if !m.speech.Load() {
		return nil, capture.ErrWaitTimeout
	}
	return []float32{0.1}, nil
}

func (m *fakeMic) Close() error {
	m.closed.Store(true)
	return nil
}

type fakeTranscriber struct {
	mu    sync.Mutex
	calls int
	texts []string
	errs  []error
}

// Transcribe replays scripted results, then repeats "hello".
func (f *fakeTranscriber) Transcribe(context.Context, []float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.texts) {
		return f.texts[i], nil
	}
	return "hello", nil
}

func (f *fakeTranscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type echoDispatcher struct{}

func (echoDispatcher) Dispatch(_ context.Context, u string) string { return "reply to " + u }

type fixedClassifier struct{}

func (fixedClassifier) Classify(string) string { return "ai_chat" }

var timings = config.Worker{
	Calibration:   time.Millisecond,
	ListenTimeout: time.Millisecond,
	PhraseLimit:   time.Second,
	PausePoll:     5 * time.Millisecond,
	StopWait:      time.Second,
}

func newWorker(mic *fakeMic, tr *fakeTranscriber) *Worker {
	return New(Config{
		Microphone:  mic,
		Transcriber: tr,
		Dispatcher:  echoDispatcher{},
		Classifier:  fixedClassifier{},
		Timings:     timings,
	})
}

// collect drains events in the background; the returned func stops at
// channel close and hands back everything seen.
func collect(w *Worker) func() []protocol.Event {
	var (
		mu  sync.Mutex
		out []protocol.Event
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range w.Events() {
			mu.Lock()
			out = append(out, e)
			mu.Unlock()
		}
	}()
	return func() []protocol.Event {
		<-done
		mu.Lock()
		defer mu.Unlock()
		return out
	}
}

func waitState(t *testing.T, w *Worker, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for w.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want %v", w.State(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func has(events []protocol.Event, want protocol.Event) bool {
	for _, e := range events {
		if e == want {
			return true
		}
	}
	return false
}

func TestWorker_Lifecycle(t *testing.T) {
	t.Parallel()

	mic := &fakeMic{}
	tr := &fakeTranscriber{texts: []string{"  what time is it  "}}
	w := newWorker(mic, tr)
	events := collect(w)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second start = %v, want ErrAlreadyStarted", err)
	}
	waitState(t, w, Listening)

	mic.speech.Store(true)
	eventually(t, func() bool { return tr.count() >= 1 })
	w.Stop()
	if !w.Wait(2 * time.Second) {
		t.Fatal("worker did not stop")
	}

	got := events()
	for _, want := range []protocol.Event{
		protocol.Status("Initializing microphone..."),
		protocol.Status("Calibrating for ambient noise..."),
		protocol.Status("Ready - Say something to Echo..."),
		protocol.Status("Listening..."),
		protocol.Transcript("what time is it", "ai_chat"),
		protocol.Response("reply to what time is it"),
		protocol.Status("Voice recognition stopped."),
		protocol.State("Stopped"),
	} {
		if !has(got, want) {
			t.Errorf("missing event %+v", want)
		}
	}
	if w.State() != Stopped {
		t.Errorf("state = %v, want Stopped", w.State())
	}
	if !mic.closed.Load() {
		t.Error("microphone not released")
	}
}

func TestWorker_PauseResume(t *testing.T) {
	t.Parallel()

	mic := &fakeMic{}
	mic.speech.Store(true)
	tr := &fakeTranscriber{}
	w := newWorker(mic, tr)
	events := collect(w)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitState(t, w, Listening)
	eventually(t, func() bool { return tr.count() >= 1 })

	if !w.Pause() {
		t.Fatal("pause refused while listening")
	}
	if w.Pause() {
		t.Error("pause accepted twice")
	}

	// Let any utterance already in flight finish.
	time.Sleep(20 * time.Millisecond)
	calls, listens := tr.count(), mic.listens.Load()
	time.Sleep(50 * time.Millisecond)
	if tr.count() != calls {
		t.Errorf("transcribed while paused: %d -> %d", calls, tr.count())
	}
	if mic.listens.Load() != listens {
		t.Errorf("listened while paused: %d -> %d", listens, mic.listens.Load())
	}

	if !w.Resume() {
		t.Fatal("resume refused while paused")
	}
	eventually(t, func() bool { return tr.count() > calls })

	w.Stop()
	w.Wait(2 * time.Second)
	events()
}

func TestWorker_Errors(t *testing.T) {
	t.Parallel()

	mic := &fakeMic{}
	mic.speech.Store(true)
	tr := &fakeTranscriber{errs: []error{stt.ErrUnintelligible, errors.New("network down")}}
	w := newWorker(mic, tr)
	events := collect(w)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	eventually(t, func() bool { return tr.count() >= 3 })
	w.Stop()
	w.Wait(2 * time.Second)

	got := events()
	for _, want := range []protocol.Event{
		protocol.Status("Could not understand. Try speaking more clearly."),
		protocol.Error("Speech recognition error: network down"),
		protocol.Transcript("hello", "ai_chat"),
	} {
		if !has(got, want) {
			t.Errorf("missing event %+v", want)
		}
	}
}

func TestWorker_BlankTranscriptIsIgnored(t *testing.T) {
	t.Parallel()

	mic := &fakeMic{}
	mic.speech.Store(true)
	tr := &fakeTranscriber{texts: []string{"  \n"}}
	w := newWorker(mic, tr)
	events := collect(w)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	eventually(t, func() bool { return tr.count() >= 2 })
	w.Stop()
	w.Wait(2 * time.Second)

	got := events()
	if has(got, protocol.Status("Could not understand. Try speaking more clearly.")) {
		t.Error("blank transcript reported as not understood")
	}
	for _, e := range got {
		if e.Kind == protocol.KindTranscript && e.Text != "hello" {
			t.Errorf("unexpected transcript %+v", e)
		}
		if e.Kind == protocol.KindResponse && e.Text != "reply to hello" {
			t.Errorf("unexpected response %+v", e)
		}
	}
	if !has(got, protocol.Transcript("hello", "ai_chat")) {
		t.Error("worker stopped listening after a blank transcript")
	}
}

func TestWorker_InitFailure(t *testing.T) {
	t.Parallel()

	mic := &fakeMic{openErr: errors.New("no device")}
	tr := &fakeTranscriber{}
	w := newWorker(mic, tr)
	events := collect(w)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !w.Wait(2 * time.Second) {
		t.Fatal("worker did not exit")
	}

	got := events()
	if !has(got, protocol.Error("Failed to initialize microphone: no device")) {
		t.Errorf("missing init error in %+v", got)
	}
	if has(got, protocol.State("Listening")) {
		t.Error("entered Listening after init failure")
	}
	if tr.count() != 0 || mic.listens.Load() != 0 {
		t.Error("captured after init failure")
	}
}

func TestWorker_MicrophoneError(t *testing.T) {
	t.Parallel()

	mic := &fakeMic{listenErr: errors.New("unplugged")}
	w := newWorker(mic, &fakeTranscriber{})
	events := collect(w)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !w.Wait(2 * time.Second) {
		t.Fatal("worker did not exit")
	}
	if got := events(); !has(got, protocol.Error("Microphone error: unplugged")) {
		t.Errorf("missing microphone error in %+v", got)
	}
}

func TestWorker_StopBeforeStart(t *testing.T) {
	t.Parallel()

	w := newWorker(&fakeMic{}, &fakeTranscriber{})
	w.Stop()
	if w.State() != Stopped {
		t.Errorf("state = %v, want Stopped", w.State())
	}
	if !w.Wait(time.Millisecond) {
		t.Error("done not closed")
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("start after stop = %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events not closed")
	}
}
