// Package features holds per-utterance feature matrices of shape
// [seq_length x num_cep] and the operations applied to them before batching.
package features

import (
	"errors"
	"fmt"

	"github.com/superhg2012/asr-e2e/internal/tensor"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmpty is returned for a matrix without frames or coefficients.
	ErrEmpty = errors.New("features: empty matrix")
	// ErrCoeffMismatch is returned when matrices in one batch disagree on
	// the number of coefficients per frame.
	ErrCoeffMismatch = errors.New("features: coefficient count mismatch")
)

// Matrix is a rank-2 [frames x coeffs] feature matrix.
type Matrix struct {
	t *tensor.Tensor
}

// Stats are the moments used by Standardize.
type Stats struct {
	Mean float64
	Std  float64
}

// NewMatrix wraps row-major data as a [frames x coeffs] matrix.
func NewMatrix(data []float32, frames, coeffs int) (Matrix, error) {
	t, err := tensor.New(data, []int64{int64(frames), int64(coeffs)})
	if err != nil {
		return Matrix{}, fmt.Errorf("features: %w", err)
	}

	return FromTensor(t)
}

// FromTensor accepts a [T, C] tensor or a [1, T, C] tensor.
func FromTensor(t *tensor.Tensor) (Matrix, error) {
	if t == nil {
		return Matrix{}, ErrEmpty
	}

	shape := t.Shape()

	switch {
	case len(shape) == 2:
	case len(shape) == 3 && shape[0] == 1:
		var err error
		if t, err = t.Reshape(shape[1:]); err != nil {
			return Matrix{}, fmt.Errorf("features: %w", err)
		}
	default:
		return Matrix{}, fmt.Errorf("features: shape %v, want [T, C] or [1, T, C]", shape)
	}

	if t.ElemCount() == 0 {
		return Matrix{}, fmt.Errorf("%w: shape %v", ErrEmpty, t.Shape())
	}

	return Matrix{t: t}, nil
}

func (m Matrix) Frames() int { return int(m.t.Dim(0)) }

func (m Matrix) Coeffs() int { return int(m.t.Dim(1)) }

// Tensor returns the backing [frames x coeffs] tensor.
func (m Matrix) Tensor() *tensor.Tensor { return m.t }

// Row returns frame i. The slice aliases the matrix.
func (m Matrix) Row(i int) []float32 {
	c := m.Coeffs()
	return m.t.RawData()[i*c : (i+1)*c]
}

// Standardize returns (x - mean) / std over every element of m, with the
// population standard deviation. A constant matrix is only centered.
func Standardize(m Matrix) (Matrix, Stats, error) {
	if m.t == nil {
		return Matrix{}, Stats{}, ErrEmpty
	}

	st := Measure(m)

	raw := m.t.RawData()
	out := make([]float32, len(raw))

	scale := 1.0
	if st.Std > 0 {
		scale = 1 / st.Std
	}

	for i, v := range raw {
		out[i] = float32((float64(v) - st.Mean) * scale)
	}

	sm, err := NewMatrix(out, m.Frames(), m.Coeffs())
	if err != nil {
		return Matrix{}, Stats{}, err
	}

	return sm, st, nil
}

// Measure computes the mean and population standard deviation of m.
func Measure(m Matrix) Stats {
	raw := m.t.RawData()

	xs := make([]float64, len(raw))
	for i, v := range raw {
		xs[i] = float64(v)
	}

	mean, std := stat.PopMeanStdDev(xs, nil)

	return Stats{Mean: mean, Std: std}
}

// Pad right-pads every matrix with zero frames up to the longest one and
// returns the padded copies with that length.
func Pad(ms []Matrix) ([]Matrix, int, error) {
	if len(ms) == 0 {
		return nil, 0, nil
	}

	maxFrames := 0
	coeffs := ms[0].Coeffs()

	for i, m := range ms {
		if m.t == nil {
			return nil, 0, fmt.Errorf("%w: matrix %d", ErrEmpty, i)
		}

		if m.Coeffs() != coeffs {
			return nil, 0, fmt.Errorf("%w: matrix %d has %d, want %d", ErrCoeffMismatch, i, m.Coeffs(), coeffs)
		}

		maxFrames = max(maxFrames, m.Frames())
	}

	out := make([]Matrix, len(ms))

	for i, m := range ms {
		padded, err := m.t.PadDim(0, int64(maxFrames), 0)
		if err != nil {
			return nil, 0, fmt.Errorf("features: pad matrix %d: %w", i, err)
		}

		out[i] = Matrix{t: padded}
	}

	return out, maxFrames, nil
}
