// Package testutil provides fixture builders shared by package and command
// tests.
//
// Typical usage:
//
//	func TestPrepare(t *testing.T) {
//	    dir := t.TempDir()
//	    testutil.WriteFeatures(t, filepath.Join(dir, "a.safetensors"), 5, 13)
//	    manifest := testutil.WriteManifest(t, dir, "train.tsv", testutil.Row{"a.safetensors", "да"})
//	    ...
//	}
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/superhg2012/asr-e2e/internal/audio"
	"github.com/superhg2012/asr-e2e/internal/features"
)

// Tone returns seconds of a 440 Hz sine at half amplitude.
func Tone(sampleRate int, seconds float64) []float32 {
	n := int(float64(sampleRate) * seconds)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	return samples
}

// WriteTone writes a mono 16-bit WAV of Tone(sampleRate, seconds) to path
// and returns the encoded bytes.
func WriteTone(tb testing.TB, path string, sampleRate int, seconds float64) []byte {
	tb.Helper()

	data, err := audio.EncodeWAV(Tone(sampleRate, seconds), sampleRate)
	if err != nil {
		tb.Fatalf("EncodeWAV: %v", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("WriteFile: %v", err)
	}

	return data
}

// Matrix builds a frames x coeffs feature matrix with a repeating ramp so the
// values are never constant.
func Matrix(tb testing.TB, frames, coeffs int) features.Matrix {
	tb.Helper()

	data := make([]float32, frames*coeffs)
	for i := range data {
		data[i] = float32(i % 7)
	}

	m, err := features.NewMatrix(data, frames, coeffs)
	if err != nil {
		tb.Fatalf("NewMatrix: %v", err)
	}

	return m
}

// WriteFeatures saves Matrix(frames, coeffs) as a feature file at path.
func WriteFeatures(tb testing.TB, path string, frames, coeffs int) features.Matrix {
	tb.Helper()

	m := Matrix(tb, frames, coeffs)
	if err := features.Save(path, m, nil); err != nil {
		tb.Fatalf("Save: %v", err)
	}

	return m
}

// Row is one manifest line: feature path and transcript.
type Row [2]string

// WriteManifest writes rows as a tab separated manifest named name in dir and
// returns its path.
func WriteManifest(tb testing.TB, dir, name string, rows ...Row) string {
	tb.Helper()

	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(r[0])
		sb.WriteByte('\t')
		sb.WriteString(r[1])
		sb.WriteByte('\n')
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		tb.Fatalf("WriteFile: %v", err)
	}

	return path
}
