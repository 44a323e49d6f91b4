package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"echo/pkg/audioconv"
)

// Replay plays back audio files as utterances, one file per Listen. After the
// last file it behaves like a silent room.
type Replay struct {
	mu     sync.Mutex
	paths  []string
	next   int
	decode func(path string) ([]float32, error)
}

func NewReplay(paths ...string) *Replay {
	return &Replay{
		paths: paths,
		decode: func(path string) ([]float32, error) {
			return audioconv.DecodeFile(path, audioconv.Options{})
		},
	}
}

func (r *Replay) Open() error { return nil }

func (r *Replay) Calibrate(context.Context, time.Duration) error { return nil }

func (r *Replay) Listen(ctx context.Context, timeout, _ time.Duration) ([]float32, error) {
	r.mu.Lock()
	if r.next < len(r.paths) {
		path := r.paths[r.next]
		r.next++
		r.mu.Unlock()

		pcm, err := r.decode(path)
		if err != nil {
			return nil, fmt.Errorf("replay %q: %w", path, err)
		}
		return pcm, nil
	}
	r.mu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return nil, ErrWaitTimeout
	}
}

func (r *Replay) Close() error { return nil }
