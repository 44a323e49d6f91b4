package capture

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReplay_Sequence(t *testing.T) {
	t.Parallel()

	r := NewReplay("a.wav", "bad.wav")
	r.decode = func(path string) ([]float32, error) {
		if path == "bad.wav" {
			return nil, errors.New("corrupt")
		}
		return []float32{0.1, 0.2}, nil
	}
	ctx := context.Background()

	pcm, err := r.Listen(ctx, time.Millisecond, time.Second)
	if err != nil || len(pcm) != 2 {
		t.Fatalf("first Listen = %v, %v", pcm, err)
	}
	if _, err := r.Listen(ctx, time.Millisecond, time.Second); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := r.Listen(ctx, time.Millisecond, time.Second); !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("exhausted Listen error = %v, want ErrWaitTimeout", err)
	}
}

func TestReplay_Cancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewReplay().Listen(ctx, time.Hour, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
