package tensor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustNew(t *testing.T, data []float32, shape []int64) *Tensor {
	t.Helper()

	x, err := New(data, shape)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	return x
}

func TestNewRejectsLengthMismatch(t *testing.T) {
	if _, err := New([]float32{1, 2, 3}, []int64{2, 2}); err == nil {
		t.Fatal("expected error for data/shape mismatch")
	}
}

func TestNewRejectsNegativeDim(t *testing.T) {
	if _, err := Zeros([]int64{2, -1}); err == nil {
		t.Fatal("expected error for negative dimension")
	}
}

func TestNewCopiesInput(t *testing.T) {
	data := []float32{1, 2}
	x := mustNew(t, data, []int64{2})
	data[0] = 9

	if got := x.RawData()[0]; got != 1 {
		t.Fatalf("tensor aliased caller slice: got %v", got)
	}
}

func TestFromRows(t *testing.T) {
	x, err := FromRows([][]float32{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("from rows: %v", err)
	}

	if diff := cmp.Diff([]int64{2, 3}, x.Shape()); diff != "" {
		t.Errorf("shape (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]float32{1, 2, 3, 4, 5, 6}, x.Data()); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}
}

func TestFromRowsRejectsRagged(t *testing.T) {
	if _, err := FromRows([][]float32{{1, 2}, {3}}); err == nil {
		t.Fatal("expected error for ragged rows")
	}
	if _, err := FromRows(nil); err == nil {
		t.Fatal("expected error for no rows")
	}
}

func TestReshapePreservesValues(t *testing.T) {
	x := mustNew(t, []float32{1, 2, 3, 4, 5, 6}, []int64{2, 3})

	y, err := x.Reshape([]int64{3, 2})
	if err != nil {
		t.Fatalf("reshape: %v", err)
	}

	if diff := cmp.Diff([]int64{3, 2}, y.Shape()); diff != "" {
		t.Errorf("shape (-want +got):\n%s", diff)
	}

	if _, err := x.Reshape([]int64{4, 2}); err == nil {
		t.Error("expected error reshaping to a different element count")
	}
}

func TestExpandDims(t *testing.T) {
	x := mustNew(t, []float32{1, 2, 3, 4, 5, 6}, []int64{3, 2})

	tests := []struct {
		dim  int
		want []int64
	}{
		{0, []int64{1, 3, 2}},
		{1, []int64{3, 1, 2}},
		{2, []int64{3, 2, 1}},
		{-1, []int64{3, 2, 1}},
	}

	for _, tt := range tests {
		y, err := x.ExpandDims(tt.dim)
		if err != nil {
			t.Fatalf("expand dims %d: %v", tt.dim, err)
		}

		if diff := cmp.Diff(tt.want, y.Shape()); diff != "" {
			t.Errorf("dim %d shape (-want +got):\n%s", tt.dim, diff)
		}
	}

	if _, err := x.ExpandDims(4); err == nil {
		t.Error("expected error for out of range dim")
	}
}

func TestDim(t *testing.T) {
	x := mustNew(t, make([]float32, 24), []int64{2, 3, 4})

	if got := x.Dim(1); got != 3 {
		t.Errorf("Dim(1) = %d; want 3", got)
	}
	if got := x.Dim(-1); got != 4 {
		t.Errorf("Dim(-1) = %d; want 4", got)
	}
	if got := x.Dim(5); got != 0 {
		t.Errorf("Dim(5) = %d; want 0", got)
	}

	var nilT *Tensor
	if nilT.Rank() != 0 || nilT.ElemCount() != 0 || nilT.Shape() != nil {
		t.Error("nil tensor accessors should return zero values")
	}
}

func TestNarrow(t *testing.T) {
	x := mustNew(t, []float32{1, 2, 3, 4, 5, 6}, []int64{2, 3})

	out, err := x.Narrow(1, 1, 2)
	if err != nil {
		t.Fatalf("narrow: %v", err)
	}

	if diff := cmp.Diff([]int64{2, 2}, out.Shape()); diff != "" {
		t.Errorf("shape (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]float32{2, 3, 5, 6}, out.Data()); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}

	if _, err := x.Narrow(1, 2, 2); err == nil {
		t.Error("expected out of bounds error")
	}
}

func TestPadDimFrames(t *testing.T) {
	x := mustNew(t, []float32{1, 2, 3, 4}, []int64{2, 2})

	out, err := x.PadDim(0, 4, 0)
	if err != nil {
		t.Fatalf("pad: %v", err)
	}

	if diff := cmp.Diff([]int64{4, 2}, out.Shape()); diff != "" {
		t.Errorf("shape (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]float32{1, 2, 3, 4, 0, 0, 0, 0}, out.Data()); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}
}

func TestPadDimInner(t *testing.T) {
	x := mustNew(t, []float32{1, 2, 3, 4}, []int64{2, 2})

	out, err := x.PadDim(1, 3, -1)
	if err != nil {
		t.Fatalf("pad: %v", err)
	}

	if diff := cmp.Diff([]float32{1, 2, -1, 3, 4, -1}, out.Data()); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}

	if _, err := x.PadDim(1, 1, 0); err == nil {
		t.Error("expected error when target is shorter than dim")
	}
}

func TestConcatDim0(t *testing.T) {
	a := mustNew(t, []float32{1, 2, 3, 4}, []int64{1, 2, 2})
	b := mustNew(t, []float32{5, 6, 7, 8}, []int64{1, 2, 2})

	out, err := Concat([]*Tensor{a, b}, 0)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}

	if diff := cmp.Diff([]int64{2, 2, 2}, out.Shape()); diff != "" {
		t.Errorf("shape (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]float32{1, 2, 3, 4, 5, 6, 7, 8}, out.Data()); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}
}

func TestConcatDim1(t *testing.T) {
	a := mustNew(t, []float32{1, 2, 3, 4}, []int64{2, 2})
	b := mustNew(t, []float32{5, 6}, []int64{2, 1})

	out, err := Concat([]*Tensor{a, b}, 1)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}

	if diff := cmp.Diff([]float32{1, 2, 5, 3, 4, 6}, out.Data()); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}
}

func TestConcatRejectsShapeMismatch(t *testing.T) {
	a := mustNew(t, []float32{1, 2, 3, 4}, []int64{1, 2, 2})
	b := mustNew(t, []float32{1, 2, 3, 4, 5, 6}, []int64{1, 3, 2})

	if _, err := Concat([]*Tensor{a, b}, 0); err == nil {
		t.Fatal("expected shape mismatch error")
	}

	if _, err := Concat(nil, 0); err == nil {
		t.Fatal("expected error for empty input")
	}
}
