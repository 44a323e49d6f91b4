package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Whisper runs whisper.cpp locally. A model context is created per call, so
// Transcribe is safe for concurrent use.
type Whisper struct {
	mu       sync.Mutex
	model    whisper.Model
	language string
	threads  uint
}

// NewWhisper loads a ggml model. language is a tag like "en-US" or "auto".
func NewWhisper(modelPath, language string) (*Whisper, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: empty model path")
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model: %w", err)
	}
	return &Whisper{
		model:    m,
		language: whisperLanguage(language),
		threads:  uint(runtime.NumCPU()),
	}, nil
}

func (w *Whisper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model == nil {
		return nil
	}
	err := w.model.Close()
	w.model = nil
	return err
}

func (w *Whisper) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", ErrUnintelligible
	}

	w.mu.Lock()
	model := w.model
	w.mu.Unlock()
	if model == nil {
		return "", errors.New("whisper: model closed")
	}

	wctx, err := model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: new context: %w", err)
	}
	if err := wctx.SetLanguage(w.language); err != nil {
		return "", fmt.Errorf("whisper: set language: %w", err)
	}
	wctx.SetThreads(w.threads)

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process: %w", err)
	}

	var parts []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: next segment: %w", err)
		}
		parts = append(parts, seg.Text)
	}

	return clean(strings.Join(parts, " "))
}

// whisperLanguage maps "en-US" to the "en" whisper expects.
func whisperLanguage(tag string) string {
	if tag == "" {
		return "auto"
	}
	lang, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(lang)
}
