package system

import (
	"context"
	"fmt"
	log "log/slog"
)

// Volume sets the master level of the default PulseAudio/PipeWire sink.
type Volume struct {
	run runFunc
}

func NewVolume() *Volume { return &Volume{run: execRun} }

func (v *Volume) SetLevel(ctx context.Context, fraction float64) error {
	pct := percent(fraction)
	if _, err := v.run(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("%d%%", pct)); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	log.Debug("Volume set", "percent", pct)
	return nil
}

// Brightness drives the backlight through brightnessctl.
type Brightness struct {
	run runFunc
}

func NewBrightness() *Brightness { return &Brightness{run: execRun} }

func (b *Brightness) SetLevel(ctx context.Context, fraction float64) error {
	pct := percent(fraction)
	if _, err := b.run(ctx, "brightnessctl", "set", fmt.Sprintf("%d%%", pct)); err != nil {
		return fmt.Errorf("set brightness: %w", err)
	}
	log.Debug("Brightness set", "percent", pct)
	return nil
}
