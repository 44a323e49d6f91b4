// Package capture defines how the speech worker pulls utterances from a
// microphone, plus a file-backed microphone for headless runs.
package capture

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned by Listen when no speech started in time.
var ErrWaitTimeout = errors.New("capture: no speech before timeout")

// Microphone yields one utterance per Listen call as mono 16 kHz samples in [-1, 1].
type Microphone interface {
	Open() error
	Calibrate(ctx context.Context, d time.Duration) error
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error)
	Close() error
}
