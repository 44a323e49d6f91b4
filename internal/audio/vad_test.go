package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"echo/pkg/capture"
)

const frameDur = 20 * time.Millisecond

func frame(level float32) []float32 {
	f := make([]float32, 320)
	for i := range f {
		f[i] = level
	}
	return f
}

// script yields the given frames, then silence forever.
func script(frames ...[]float32) func() ([]float32, error) {
	i := 0
	return func() ([]float32, error) {
		if i < len(frames) {
			i++
			return frames[i-1], nil
		}
		return frame(0), nil
	}
}

func repeat(n int, f []float32) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = f
	}
	return out
}

func TestDetector_Calibrate(t *testing.T) {
	t.Parallel()

	d := newDetector(300, false, frameDur, 800*time.Millisecond, 300*time.Millisecond)
	d.calibrate([]float64{100, 100})
	if d.threshold != 300 {
		t.Errorf("quiet room threshold = %v, want floor 300", d.threshold)
	}
	d.calibrate([]float64{400, 600})
	if d.threshold != 750 {
		t.Errorf("noisy room threshold = %v, want 750", d.threshold)
	}
}

func TestDetector_Listen(t *testing.T) {
	t.Parallel()

	loud := frame(0.5)
	ctx := context.Background()

	t.Run("timeout", func(t *testing.T) {
		d := newDetector(300, false, frameDur, 800*time.Millisecond, 300*time.Millisecond)
		_, err := d.listen(ctx, script(), time.Second, 8*time.Second)
		if !errors.Is(err, capture.ErrWaitTimeout) {
			t.Fatalf("error = %v, want ErrWaitTimeout", err)
		}
	})

	t.Run("phrase ends on pause", func(t *testing.T) {
		d := newDetector(300, false, frameDur, 800*time.Millisecond, 300*time.Millisecond)
		pcm, err := d.listen(ctx, script(repeat(25, loud)...), time.Second, 8*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := (25 + 40) * 320; len(pcm) != want {
			t.Errorf("len = %d, want %d", len(pcm), want)
		}
	})

	t.Run("phrase limit", func(t *testing.T) {
		d := newDetector(300, false, frameDur, 800*time.Millisecond, 300*time.Millisecond)
		pcm, err := d.listen(ctx, script(repeat(1000, loud)...), time.Second, time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := 50 * 320; len(pcm) != want {
			t.Errorf("len = %d, want %d", len(pcm), want)
		}
	})

	t.Run("short burst dropped", func(t *testing.T) {
		d := newDetector(300, false, frameDur, 200*time.Millisecond, 300*time.Millisecond)
		frames := append(repeat(3, loud), repeat(10, frame(0))...)
		frames = append(frames, repeat(20, loud)...)
		pcm, err := d.listen(ctx, script(frames...), time.Second, 8*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := (20 + 10) * 320; len(pcm) != want {
			t.Errorf("len = %d, want %d", len(pcm), want)
		}
	})

	t.Run("read error", func(t *testing.T) {
		d := newDetector(300, false, frameDur, 800*time.Millisecond, 300*time.Millisecond)
		boom := errors.New("device gone")
		_, err := d.listen(ctx, func() ([]float32, error) { return nil, boom }, time.Second, time.Second)
		if !errors.Is(err, boom) {
			t.Fatalf("error = %v, want %v", err, boom)
		}
	})
}

func TestDetector_Adapt(t *testing.T) {
	t.Parallel()

	d := newDetector(300, true, frameDur, 800*time.Millisecond, 300*time.Millisecond)
	d.threshold = 3000
	for range 100 {
		d.adapt(0)
	}
	if d.threshold >= 3000 || d.threshold < 300 {
		t.Errorf("threshold after quiet = %v, want between floor and start", d.threshold)
	}
}
