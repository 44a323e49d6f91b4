package system

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

type fadeTarget struct {
	id   int
	from int
	to   int
}

// Ducker lowers every other sink input while the assistant speaks and
// restores them afterwards. Streams whose application.name is in selfNames
// are left alone.
type Ducker struct {
	mu          sync.Mutex
	run         runFunc
	active      bool
	selfNames   []string
	originalVol map[int]int
	minVolume   int
}

func NewDucker(selfNames []string, minVolume int) *Ducker {
	return &Ducker{
		run:         execRun,
		selfNames:   append([]string(nil), selfNames...),
		originalVol: make(map[int]int),
		minVolume:   int(clamp(float64(minVolume), 0, 150)),
	}
}

// Duck fades foreign streams to factor of their current level, never below minVolume.
func (d *Ducker) Duck(ctx context.Context, factor float64, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := listSinkInputs(ctx, d.run)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	d.originalVol = make(map[int]int)
	var targets []fadeTarget
	for _, s := range streams {
		if d.isSelf(s) {
			continue
		}
		to := int(math.Round(clamp(float64(s.Volume)*factor, float64(d.minVolume), 150)))
		d.originalVol[s.ID] = s.Volume
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: to})
	}

	if err := d.fade(ctx, targets, duration); err != nil {
		return err
	}
	d.active = true
	return nil
}

// Unduck fades streams that were ducked back to their original level.
// Streams that appeared after Duck are ignored.
func (d *Ducker) Unduck(ctx context.Context, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := listSinkInputs(ctx, d.run)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	var targets []fadeTarget
	for _, s := range streams {
		orig, ok := d.originalVol[s.ID]
		if !ok || d.isSelf(s) {
			continue
		}
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: orig})
	}

	if err := d.fade(ctx, targets, duration); err != nil {
		return err
	}
	d.originalVol = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isSelf(s sinkInput) bool {
	for _, name := range d.selfNames {
		if s.AppName == name {
			return true
		}
	}
	return false
}

func (d *Ducker) fade(ctx context.Context, targets []fadeTarget, duration time.Duration) error {
	if len(targets) == 0 {
		return nil
	}

	const minStep = 10 * time.Millisecond
	steps := max(int(duration/minStep), 1)
	step := duration / time.Duration(steps)

	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := float64(i) / float64(steps)
		for _, t := range targets {
			v := int(math.Round(float64(t.from) + float64(t.to-t.from)*frac))
			if err := setSinkInputVolume(ctx, d.run, t.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}

		if i < steps && step > 0 {
			time.Sleep(step)
		}
	}

	return nil
}
