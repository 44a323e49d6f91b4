// Package system talks to the desktop: audio levels through pactl, screen
// brightness, processes and application launch.
package system

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

// runFunc executes an external tool and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

func percent(fraction float64) int {
	return int(math.Round(clamp(fraction, 0, 1) * 100))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func listSinkInputs(ctx context.Context, run runFunc) ([]sinkInput, error) {
	out, err := run(ctx, "pactl", "list", "sink-inputs")
	if err != nil {
		return nil, err
	}
	return parseSinkInputs(string(out)), nil
}

// parseSinkInputs reads the first volume percentage and application.name of
// every "Sink Input #N" block.
func parseSinkInputs(text string) []sinkInput {
	parts := strings.Split(text, "Sink Input #")
	if len(parts) <= 1 {
		return nil
	}

	var res []sinkInput
	for _, block := range parts[1:] {
		newline := strings.IndexByte(block, '\n')
		if newline <= 0 {
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(block[:newline]))
		if err != nil {
			continue
		}

		s := sinkInput{ID: id}
		for _, line := range strings.Split(block[newline+1:], "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					if v, err := strconv.Atoi(m[1]); err == nil {
						s.Volume = v
					}
				}
			}

			// application.name = "Firefox"
			if rest, ok := strings.CutPrefix(line, "application.name ="); ok && s.AppName == "" {
				s.AppName = strings.Trim(strings.TrimSpace(rest), `"`)
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}

	return res
}

func setSinkInputVolume(ctx context.Context, run runFunc, id, pct int) error {
	pct = int(clamp(float64(pct), 0, 150))
	_, err := run(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", pct))
	return err
}
