// Package sparse builds the (indices, values, shape) label encoding a CTC
// loss consumes.
package sparse

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned when a sparse tensor does not describe a valid
// row-major label batch.
var ErrMalformed = errors.New("sparse: malformed tensor")

// Tensor is a rank-2 sparse tensor of labels. Indices holds one (row, col)
// pair per value in row-major order; Shape is [rows, max row length].
type Tensor struct {
	Indices [][2]int64
	Values  []int32
	Shape   [2]int64
}

// FromSequences encodes one label sequence per batch row.
func FromSequences(seqs [][]int32) Tensor {
	total := 0
	maxLen := 0

	for _, s := range seqs {
		total += len(s)
		maxLen = max(maxLen, len(s))
	}

	t := Tensor{
		Indices: make([][2]int64, 0, total),
		Values:  make([]int32, 0, total),
		Shape:   [2]int64{int64(len(seqs)), int64(maxLen)},
	}

	for row, s := range seqs {
		for col, v := range s {
			t.Indices = append(t.Indices, [2]int64{int64(row), int64(col)})
			t.Values = append(t.Values, v)
		}
	}

	return t
}

// Len returns the number of stored values.
func (t Tensor) Len() int { return len(t.Values) }

// Validate checks that indices are in bounds, strictly increasing in
// row-major order and paired with values.
func (t Tensor) Validate() error {
	if len(t.Indices) != len(t.Values) {
		return fmt.Errorf("%w: %d indices for %d values", ErrMalformed, len(t.Indices), len(t.Values))
	}

	if t.Shape[0] < 0 || t.Shape[1] < 0 {
		return fmt.Errorf("%w: negative shape %v", ErrMalformed, t.Shape)
	}

	prev := [2]int64{-1, -1}

	for i, idx := range t.Indices {
		if idx[0] < 0 || idx[0] >= t.Shape[0] || idx[1] < 0 || idx[1] >= t.Shape[1] {
			return fmt.Errorf("%w: index %d %v outside shape %v", ErrMalformed, i, idx, t.Shape)
		}

		if idx[0] < prev[0] || (idx[0] == prev[0] && idx[1] <= prev[1]) {
			return fmt.Errorf("%w: index %d %v not after %v", ErrMalformed, i, idx, prev)
		}

		prev = idx
	}

	return nil
}

// Sequences decodes the tensor back into one sequence per row. Rows must be
// densely packed from column zero.
func (t Tensor) Sequences() ([][]int32, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	out := make([][]int32, t.Shape[0])
	for r := range out {
		out[r] = []int32{}
	}

	for i, idx := range t.Indices {
		row := out[idx[0]]
		if int64(len(row)) != idx[1] {
			return nil, fmt.Errorf("%w: row %d has a gap before column %d", ErrMalformed, idx[0], idx[1])
		}

		out[idx[0]] = append(row, t.Values[i])
	}

	return out, nil
}

// Dense returns the [rows x cols] view with absent cells set to fill.
func (t Tensor) Dense(fill int32) ([][]int32, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	out := make([][]int32, t.Shape[0])
	for r := range out {
		row := make([]int32, t.Shape[1])
		for c := range row {
			row[c] = fill
		}

		out[r] = row
	}

	for i, idx := range t.Indices {
		out[idx[0]][idx[1]] = t.Values[i]
	}

	return out, nil
}

// FlatIndices returns the indices as a row-major [n x 2] slice.
func (t Tensor) FlatIndices() []int64 {
	out := make([]int64, 0, len(t.Indices)*2)
	for _, idx := range t.Indices {
		out = append(out, idx[0], idx[1])
	}

	return out
}

// FromFlat rebuilds a Tensor from FlatIndices output, values and shape.
func FromFlat(flat []int64, values []int32, shape [2]int64) (Tensor, error) {
	if len(flat)%2 != 0 {
		return Tensor{}, fmt.Errorf("%w: odd index length %d", ErrMalformed, len(flat))
	}

	t := Tensor{
		Indices: make([][2]int64, len(flat)/2),
		Values:  append([]int32(nil), values...),
		Shape:   shape,
	}

	for i := range t.Indices {
		t.Indices[i] = [2]int64{flat[2*i], flat[2*i+1]}
	}

	if err := t.Validate(); err != nil {
		return Tensor{}, err
	}

	return t, nil
}
