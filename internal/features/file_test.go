package features

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/superhg2012/asr-e2e/internal/safetensors"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utt.safetensors")
	m := mustMatrix(t, []float32{0.5, -1, 2, 3, 4, 5}, 3, 2)

	if err := Save(path, m, map[string]string{"source": "utt.wav"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Frames() != 3 || got.Coeffs() != 2 {
		t.Fatalf("shape = %dx%d; want 3x2", got.Frames(), got.Coeffs())
	}

	if diff := cmp.Diff(m.Tensor().Data(), got.Tensor().Data()); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}
}

func TestLoadFallsBackToFirstFloatTensor(t *testing.T) {
	blob, err := safetensors.Encode(safetensors.File{
		Tensors: []safetensors.Tensor{{Name: "mfcc", Shape: []int64{1, 2, 1}, Data: []float32{7, 8}}},
		Ints:    []safetensors.IntTensor{{Name: "aaa", Shape: []int64{1}, Data: []int64{1}}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	m, err := LoadBytes(blob)
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}

	if m.Frames() != 2 || m.Coeffs() != 1 {
		t.Errorf("shape = %dx%d; want 2x1", m.Frames(), m.Coeffs())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.safetensors")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEncodeRejectsZeroMatrix(t *testing.T) {
	if _, err := Encode(Matrix{}, nil); err == nil {
		t.Fatal("expected error for zero matrix")
	}
}
