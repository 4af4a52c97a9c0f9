package tensor

import (
	"errors"
	"fmt"
)

// Narrow slices the tensor along a single dimension.
func (t *Tensor) Narrow(dim int, start, length int64) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("tensor: narrow on nil tensor")
	}

	dim, err := normalizeDim(dim, len(t.shape))
	if err != nil {
		return nil, fmt.Errorf("tensor: narrow: %w", err)
	}

	if start < 0 || length < 0 || start+length > t.shape[dim] {
		return nil, fmt.Errorf("tensor: narrow: range [%d:%d] out of bounds for dim %d size %d", start, start+length, dim, t.shape[dim])
	}

	outShape := append([]int64(nil), t.shape...)
	outShape[dim] = length

	out, err := Zeros(outShape)
	if err != nil {
		return nil, err
	}

	outer, inner := splitAt(t.shape, dim)
	srcSpan := t.shape[dim] * inner
	dstSpan := length * inner

	for o := range outer {
		src := o*srcSpan + start*inner
		copy(out.data[o*dstSpan:(o+1)*dstSpan], t.data[src:src+dstSpan])
	}

	return out, nil
}

// PadDim right-pads dimension dim to length with value. A tensor that is
// already length long is returned as a copy; a longer one is an error.
func (t *Tensor) PadDim(dim int, length int64, value float32) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("tensor: pad on nil tensor")
	}

	dim, err := normalizeDim(dim, len(t.shape))
	if err != nil {
		return nil, fmt.Errorf("tensor: pad: %w", err)
	}

	have := t.shape[dim]
	if length < have {
		return nil, fmt.Errorf("tensor: pad: dim %d size %d exceeds target %d", dim, have, length)
	}

	outShape := append([]int64(nil), t.shape...)
	outShape[dim] = length

	out, err := Full(outShape, value)
	if err != nil {
		return nil, err
	}

	outer, inner := splitAt(t.shape, dim)
	srcSpan := have * inner
	dstSpan := length * inner

	for o := range outer {
		copy(out.data[o*dstSpan:o*dstSpan+srcSpan], t.data[o*srcSpan:(o+1)*srcSpan])
	}

	return out, nil
}

// Concat joins tensors along dim. All other dimensions must match.
func Concat(tensors []*Tensor, dim int) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, errors.New("tensor: concat requires at least one tensor")
	}

	first := tensors[0]
	if first == nil {
		return nil, errors.New("tensor: concat tensor 0 is nil")
	}

	rank := len(first.shape)

	dim, err := normalizeDim(dim, rank)
	if err != nil {
		return nil, fmt.Errorf("tensor: concat: %w", err)
	}

	outShape := append([]int64(nil), first.shape...)
	outShape[dim] = 0

	for i, t := range tensors {
		if t == nil {
			return nil, fmt.Errorf("tensor: concat tensor %d is nil", i)
		}

		if len(t.shape) != rank {
			return nil, fmt.Errorf("tensor: concat tensor %d rank %d does not match rank %d", i, len(t.shape), rank)
		}

		for d := range rank {
			if d != dim && t.shape[d] != first.shape[d] {
				return nil, fmt.Errorf("tensor: concat tensor %d shape %v does not match base shape %v on dim %d", i, t.shape, first.shape, d)
			}
		}

		outShape[dim] += t.shape[dim]
	}

	out, err := Zeros(outShape)
	if err != nil {
		return nil, err
	}

	outer, inner := splitAt(outShape, dim)
	dstSpan := outShape[dim] * inner

	for o := range outer {
		pos := o * dstSpan

		for _, t := range tensors {
			span := t.shape[dim] * inner
			copy(out.data[pos:pos+span], t.data[o*span:(o+1)*span])
			pos += span
		}
	}

	return out, nil
}
