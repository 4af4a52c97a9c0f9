package features

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/superhg2012/asr-e2e/internal/tensor"
)

func mustMatrix(t *testing.T, data []float32, frames, coeffs int) Matrix {
	t.Helper()

	m, err := NewMatrix(data, frames, coeffs)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}

	return m
}

func TestFromTensorAcceptsBatchOfOne(t *testing.T) {
	x, err := tensor.New([]float32{1, 2, 3, 4, 5, 6}, []int64{1, 3, 2})
	if err != nil {
		t.Fatalf("tensor.New: %v", err)
	}

	m, err := FromTensor(x)
	if err != nil {
		t.Fatalf("FromTensor: %v", err)
	}

	if m.Frames() != 3 || m.Coeffs() != 2 {
		t.Errorf("shape = %dx%d; want 3x2", m.Frames(), m.Coeffs())
	}

	if diff := cmp.Diff([]float32{3, 4}, m.Row(1)); diff != "" {
		t.Errorf("Row(1) (-want +got):\n%s", diff)
	}
}

func TestFromTensorRejects(t *testing.T) {
	rank1, _ := tensor.New([]float32{1, 2}, []int64{2})
	batch2, _ := tensor.New(make([]float32, 4), []int64{2, 1, 2})
	empty, _ := tensor.Zeros([]int64{0, 13})

	for name, x := range map[string]*tensor.Tensor{"rank1": rank1, "batch2": batch2, "empty": empty, "nil": nil} {
		if _, err := FromTensor(x); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if _, err := FromTensor(empty); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty: err = %v; want ErrEmpty", err)
	}
}

func TestStandardize(t *testing.T) {
	m := mustMatrix(t, []float32{1, 2, 3, 4}, 2, 2)

	sm, st, err := Standardize(m)
	if err != nil {
		t.Fatalf("Standardize: %v", err)
	}

	if st.Mean != 2.5 {
		t.Errorf("Mean = %v; want 2.5", st.Mean)
	}

	// Population std of 1..4 is sqrt(1.25).
	if math.Abs(st.Std-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("Std = %v; want %v", st.Std, math.Sqrt(1.25))
	}

	s := float32(1 / math.Sqrt(1.25))
	want := []float32{-1.5 * s, -0.5 * s, 0.5 * s, 1.5 * s}
	if diff := cmp.Diff(want, sm.Tensor().Data(), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}

	after := Measure(sm)
	if math.Abs(after.Mean) > 1e-6 || math.Abs(after.Std-1) > 1e-6 {
		t.Errorf("standardized stats = %+v; want mean 0 std 1", after)
	}
}

func TestStandardizeConstantOnlyCenters(t *testing.T) {
	m := mustMatrix(t, []float32{5, 5, 5}, 3, 1)

	sm, st, err := Standardize(m)
	if err != nil {
		t.Fatalf("Standardize: %v", err)
	}

	if st.Std != 0 {
		t.Errorf("Std = %v; want 0", st.Std)
	}

	for i, v := range sm.Tensor().RawData() {
		if v != 0 || math.IsNaN(float64(v)) {
			t.Errorf("value[%d] = %v; want 0", i, v)
		}
	}
}

func TestStandardizeLeavesInputUntouched(t *testing.T) {
	m := mustMatrix(t, []float32{1, 3}, 2, 1)

	if _, _, err := Standardize(m); err != nil {
		t.Fatalf("Standardize: %v", err)
	}

	if diff := cmp.Diff([]float32{1, 3}, m.Tensor().Data()); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestPad(t *testing.T) {
	short := mustMatrix(t, []float32{1, 2}, 1, 2)
	long := mustMatrix(t, []float32{3, 4, 5, 6, 7, 8}, 3, 2)

	padded, n, err := Pad([]Matrix{short, long})
	if err != nil {
		t.Fatalf("Pad: %v", err)
	}

	if n != 3 {
		t.Errorf("max frames = %d; want 3", n)
	}

	if diff := cmp.Diff([]float32{1, 2, 0, 0, 0, 0}, padded[0].Tensor().Data()); diff != "" {
		t.Errorf("short (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(long.Tensor().Data(), padded[1].Tensor().Data()); diff != "" {
		t.Errorf("long (-want +got):\n%s", diff)
	}

	if short.Frames() != 1 {
		t.Errorf("input mutated: frames = %d", short.Frames())
	}
}

func TestPadRejectsCoeffMismatch(t *testing.T) {
	a := mustMatrix(t, []float32{1, 2}, 1, 2)
	b := mustMatrix(t, []float32{1, 2, 3}, 1, 3)

	if _, _, err := Pad([]Matrix{a, b}); !errors.Is(err, ErrCoeffMismatch) {
		t.Fatalf("err = %v; want ErrCoeffMismatch", err)
	}
}

func TestPadEmpty(t *testing.T) {
	out, n, err := Pad(nil)
	if err != nil || out != nil || n != 0 {
		t.Fatalf("Pad(nil) = %v, %d, %v", out, n, err)
	}
}
