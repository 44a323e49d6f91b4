package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

const outputRate = beep.SampleRate(44100)

// Player plays mp3 and wav files on the default output device.
type Player struct {
	once    sync.Once
	initErr error
}

func NewPlayer() *Player { return &Player{} }

type Playback struct {
	ctrl *beep.Ctrl
	done chan struct{}
	over atomic.Bool
	file *os.File
	once sync.Once
}

func (p *Player) Play(path string) (*Playback, error) {
	p.once.Do(func() {
		p.initErr = speaker.Init(outputRate, outputRate.N(time.Second/10))
	})
	if p.initErr != nil {
		return nil, fmt.Errorf("speaker init: %w", p.initErr)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		stream, format, err = wav.Decode(f)
	default:
		stream, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}

	pb := &Playback{done: make(chan struct{}), file: f}
	var src beep.Streamer = stream
	if format.SampleRate != outputRate {
		src = beep.Resample(4, format.SampleRate, outputRate, stream)
	}
	pb.ctrl = &beep.Ctrl{Streamer: beep.Seq(src, beep.Callback(pb.finish))}
	speaker.Play(pb.ctrl)
	return pb, nil
}

func (pb *Playback) finish() {
	pb.once.Do(func() {
		pb.over.Store(true)
		pb.file.Close()
		close(pb.done)
	})
}

func (pb *Playback) Busy() bool { return !pb.over.Load() }

func (pb *Playback) Stop() {
	speaker.Lock()
	pb.ctrl.Streamer = nil
	speaker.Unlock()
	pb.finish()
}

// Wait blocks until playback ends or is stopped.
func (pb *Playback) Wait() { <-pb.done }
