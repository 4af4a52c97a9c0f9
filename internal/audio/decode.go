// Package audio decodes and encodes PCM WAV clips for feature extraction.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/wav"
)

// ErrInvalidWAV is returned for payloads that are not PCM WAV files.
var ErrInvalidWAV = errors.New("invalid WAV file")

// Clip is a mono clip of float32 samples in [-1, 1].
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}

	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// ReadWAV loads and decodes a WAV file from disk.
func ReadWAV(path string) (Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, fmt.Errorf("read %s: %w", path, err)
	}

	clip, err := DecodeWAV(data)
	if err != nil {
		return Clip{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return clip, nil
}

// DecodeWAV decodes WAV bytes of any sample rate. Multi-channel input is
// averaged down to mono.
func DecodeWAV(data []byte) (Clip, error) {
	if len(data) == 0 {
		return Clip{}, fmt.Errorf("%w: empty input", ErrInvalidWAV)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Clip{}, ErrInvalidWAV
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return Clip{}, fmt.Errorf("%w: %d channels", ErrInvalidWAV, channels)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return Clip{
		Samples:    downmix(buf.Data, channels),
		SampleRate: int(dec.SampleRate),
	}, nil
}

func downmix(interleaved []float32, channels int) []float32 {
	if channels == 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	out := make([]float32, frames)

	for i := range frames {
		var sum float32
		for c := range channels {
			sum += interleaved[i*channels+c]
		}

		out[i] = sum / float32(channels)
	}

	return out
}
