package tts

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const espeakWPM = 175

// Espeak renders WAV files with the espeak-ng command line tool.
type Espeak struct {
	run func(ctx context.Context, name string, args ...string) error
}

func NewEspeak() *Espeak {
	return &Espeak{run: func(ctx context.Context, name string, args ...string) error {
		out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
		}
		return nil
	}}
}

func (e *Espeak) Synthesize(ctx context.Context, text string, v Voice) (string, error) {
	f, err := os.CreateTemp("", "echo-tts-*.wav")
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	path := f.Name()
	f.Close()

	rate := v.Rate
	if rate <= 0 {
		rate = 1
	}
	args := []string{
		"-v", strings.ToLower(languageOf(v.Name)),
		"-s", strconv.Itoa(int(math.Round(espeakWPM * rate))),
		"-w", path,
		text,
	}
	if err := e.run(ctx, "espeak-ng", args...); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
