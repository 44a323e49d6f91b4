package audio

import (
	"context"
	"math"
	"time"

	"echo/pkg/capture"
)

const (
	ambientRatio = 1.5
	// Fraction of the threshold kept per second of silence when adapting.
	dynamicDamping = 0.15
)

// detector decides where a phrase starts and ends from frame energy.
// Energy is RMS on the int16 scale.
type detector struct {
	threshold float64
	floor     float64
	dynamic   bool

	frameDur    time.Duration
	pauseFrames int
	minFrames   int
}

func newDetector(floor float64, dynamic bool, frameDur, pause, phrase time.Duration) *detector {
	return &detector{
		threshold:   floor,
		floor:       floor,
		dynamic:     dynamic,
		frameDur:    frameDur,
		pauseFrames: max(1, int(pause/frameDur)),
		minFrames:   max(1, int(phrase/frameDur)),
	}
}

// calibrate sets the threshold from the mean ambient energy.
func (d *detector) calibrate(energies []float64) {
	if len(energies) == 0 {
		return
	}
	var sum float64
	for _, e := range energies {
		sum += e
	}
	d.threshold = max(d.floor, sum/float64(len(energies))*ambientRatio)
}

// adapt moves the threshold toward the current ambient level.
func (d *detector) adapt(energy float64) {
	if !d.dynamic {
		return
	}
	damping := math.Pow(dynamicDamping, d.frameDur.Seconds())
	target := energy * ambientRatio
	d.threshold = max(d.floor, d.threshold*damping+target*(1-damping))
}

// listen pulls frames until a phrase completes. It gives up with
// capture.ErrWaitTimeout when nothing starts within timeout, and cuts the
// phrase at phraseLimit. Bursts shorter than the minimum phrase are dropped.
func (d *detector) listen(ctx context.Context, read func() ([]float32, error), timeout, phraseLimit time.Duration) ([]float32, error) {
	waitFrames := max(1, int(timeout/d.frameDur))
	limitFrames := max(1, int(phraseLimit/d.frameDur))

	var (
		out     []float32
		waited  int
		voiced  int
		silence int
		frames  int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := read()
		if err != nil {
			return nil, err
		}
		energy := rms16(frame)

		if out == nil {
			if energy <= d.threshold {
				d.adapt(energy)
				waited++
				if waited >= waitFrames {
					return nil, capture.ErrWaitTimeout
				}
				continue
			}
			out = make([]float32, 0, limitFrames*len(frame))
		}

		out = append(out, frame...)
		frames++
		if energy > d.threshold {
			voiced++
			silence = 0
		} else {
			silence++
		}

		if silence >= d.pauseFrames || frames >= limitFrames {
			if voiced < d.minFrames {
				out, voiced, silence, frames = nil, 0, 0, 0
				continue
			}
			return out, nil
		}
	}
}

func rms16(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var s float64
	for _, x := range frame {
		v := float64(x) * 32768
		s += v * v
	}
	return math.Sqrt(s / float64(len(frame)))
}
