// Package audioconv decodes audio files into mono float32 samples at the
// 16 kHz rate the speech engines expect.
package audioconv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

const SampleRate = 16000

var ErrUnsupported = errors.New("audioconv: unsupported format")

type Options struct {
	MaxSamples int // 0 keeps everything
}

// raw is decoder output before downmix and resampling.
type raw struct {
	samples  []float32
	rate     int
	channels int
}

type decoder func(r io.ReadSeeker) (raw, error)

var decoders = map[string]decoder{
	"wav": decodeWAV,
	"mp3": decodeMP3,
	"ogg": decodeVorbis,
}

func DecodeFile(path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format, err := sniff(f, path)
	if err != nil {
		return nil, err
	}
	return Decode(f, format, opt)
}

// Decode reads a whole stream of the given format ("wav", "mp3" or "ogg").
func Decode(r io.ReadSeeker, format string, opt Options) ([]float32, error) {
	dec, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, format)
	}
	in, err := dec(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	x := downmix(in.samples, in.channels)
	x = resample(x, in.rate, SampleRate)
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x, nil
}

// sniff trusts magic bytes first and the extension second.
func sniff(f io.ReadSeeker, path string) (string, error) {
	magic, _ := bufio.NewReader(f).Peek(4)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	switch {
	case bytes.Equal(magic, []byte("RIFF")):
		return "wav", nil
	case bytes.Equal(magic, []byte("OggS")):
		return "ogg", nil
	case bytes.HasPrefix(magic, []byte("ID3")):
		return "mp3", nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return "wav", nil
	case ".mp3":
		return "mp3", nil
	case ".ogg", ".oga":
		return "ogg", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

func decodeWAV(r io.ReadSeeker) (raw, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return raw{}, errors.New("invalid wav header")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return raw{}, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return raw{}, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	scale := 1.0 / float64(int64(1)<<(depth-1))
	x := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		x[i] = float32(clamp(float64(v)*scale, -1, 1))
	}

	out := raw{samples: x, rate: int(dec.SampleRate), channels: int(dec.NumChans)}
	if buf.Format != nil {
		out.rate, out.channels = buf.Format.SampleRate, buf.Format.NumChannels
	}
	return out, nil
}

// go-mp3 always yields 16-bit little-endian stereo.
func decodeMP3(r io.ReadSeeker) (raw, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return raw{}, err
	}
	data, err := io.ReadAll(dec)
	if err != nil {
		return raw{}, err
	}

	x := make([]float32, len(data)/2)
	for i := range x {
		x[i] = float32(int16(binary.LittleEndian.Uint16(data[2*i:]))) / 32768
	}
	return raw{samples: x, rate: dec.SampleRate(), channels: 2}, nil
}

func decodeVorbis(r io.ReadSeeker) (raw, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return raw{}, err
	}
	if format == nil {
		return raw{}, errors.New("missing vorbis header")
	}
	return raw{samples: pcm, rate: format.SampleRate, channels: format.Channels}, nil
}

// PCM16 encodes samples as little-endian signed 16-bit, the LINEAR16 layout.
func PCM16(x []float32) []byte {
	out := make([]byte, 2*len(x))
	for i, v := range x {
		s := int16(math.Round(clamp(float64(v), -1, 1) * math.MaxInt16))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	n := len(in) / channels
	out := make([]float32, n)
	for i := range n {
		var sum float64
		for c := range channels {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// resample interpolates linearly; good enough for speech.
func resample(in []float32, from, to int) []float32 {
	if from <= 0 || from == to || len(in) == 0 {
		return in
	}
	ratio := float64(to) / float64(from)
	out := make([]float32, int(math.Ceil(float64(len(in))*ratio)))
	last := len(in) - 1
	for i := range out {
		pos := float64(i) / ratio
		i0 := int(pos)
		if i0 >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(pos - float64(i0))
		out[i] = in[i0]*(1-frac) + in[i0+1]*frac
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
