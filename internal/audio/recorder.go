// Package audio talks to the sound hardware: a portaudio microphone and a
// beep-backed player.
package audio

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"echo/internal/config"
)

// Recorder is a capture.Microphone over the default portaudio input. The
// stream stays open between Listen calls.
type Recorder struct {
	cfg    config.Recorder
	buf    []float32
	stream *portaudio.Stream
	det    *detector
}

func NewRecorder(cfg config.Recorder) *Recorder {
	frameDur := time.Duration(cfg.FrameSize) * time.Second / time.Duration(cfg.SampleRate)
	return &Recorder{
		cfg: cfg,
		buf: make([]float32, cfg.FrameSize),
		det: newDetector(cfg.EnergyThreshold, cfg.DynamicEnergy, frameDur, cfg.PauseThreshold, cfg.PhraseThreshold),
	}
}

func (r *Recorder) Open() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(r.buf), r.buf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start input stream: %w", err)
	}

	r.stream = stream
	return nil
}

func (r *Recorder) Calibrate(ctx context.Context, d time.Duration) error {
	n := max(1, int(d/r.det.frameDur))
	energies := make([]float64, 0, n)
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := r.read()
		if err != nil {
			return err
		}
		energies = append(energies, rms16(frame))
	}

	r.det.calibrate(energies)
	log.Debug("Calibrated microphone", "threshold", r.det.threshold)
	return nil
}

func (r *Recorder) Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error) {
	return r.det.listen(ctx, r.read, timeout, phraseLimit)
}

// read returns a copy of the next frame. Input overflows only mean we were
// slow and are not fatal.
func (r *Recorder) read() ([]float32, error) {
	if r.stream == nil {
		return nil, errors.New("recorder not open")
	}
	if err := r.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, fmt.Errorf("read input: %w", err)
	}
	frame := make([]float32, len(r.buf))
	copy(frame, r.buf)
	return frame, nil
}

func (r *Recorder) Close() error {
	if r.stream == nil {
		return nil
	}
	errs := []error{r.stream.Stop(), r.stream.Close(), portaudio.Terminate()}
	r.stream = nil
	return errors.Join(errs...)
}
