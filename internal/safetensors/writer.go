package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

// File is the full content of a safetensors payload.
type File struct {
	Tensors  []Tensor
	Ints     []IntTensor
	Metadata map[string]string
}

type pendingTensor struct {
	name  string
	dtype string
	shape []int64
	put   func(dst []byte)
	size  int
}

// Encode serializes f. Tensors are laid out in name order.
func Encode(f File) ([]byte, error) {
	pending := make([]pendingTensor, 0, len(f.Tensors)+len(f.Ints))

	for _, t := range f.Tensors {
		data := t.Data
		if err := checkCount(t.Name, t.Shape, len(data)); err != nil {
			return nil, err
		}

		pending = append(pending, pendingTensor{
			name:  strings.TrimSpace(t.Name),
			dtype: DTypeF32,
			shape: t.Shape,
			size:  len(data) * 4,
			put: func(dst []byte) {
				for i, v := range data {
					binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
				}
			},
		})
	}

	for _, t := range f.Ints {
		data := t.Data
		if err := checkCount(t.Name, t.Shape, len(data)); err != nil {
			return nil, err
		}

		p := pendingTensor{name: strings.TrimSpace(t.Name), dtype: strings.ToUpper(t.DType), shape: t.Shape}

		switch p.dtype {
		case DTypeI32:
			for i, v := range data {
				if v < math.MinInt32 || v > math.MaxInt32 {
					return nil, fmt.Errorf("safetensors: tensor %q value %d at %d overflows I32", t.Name, v, i)
				}
			}

			p.size = len(data) * 4
			p.put = func(dst []byte) {
				for i, v := range data {
					binary.LittleEndian.PutUint32(dst[i*4:], uint32(int32(v)))
				}
			}
		case DTypeI64, "":
			p.dtype = DTypeI64
			p.size = len(data) * 8
			p.put = func(dst []byte) {
				for i, v := range data {
					binary.LittleEndian.PutUint64(dst[i*8:], uint64(v))
				}
			}
		default:
			return nil, fmt.Errorf("safetensors: tensor %q has unsupported integer dtype %q", t.Name, t.DType)
		}

		pending = append(pending, p)
	}

	if len(pending) == 0 {
		return nil, errors.New("safetensors: no tensors to encode")
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].name < pending[j].name })

	header := make(map[string]any, len(pending)+1)
	offset := 0

	for _, p := range pending {
		if p.name == "" || p.name == metadataKey {
			return nil, fmt.Errorf("safetensors: invalid tensor name %q", p.name)
		}

		if _, exists := header[p.name]; exists {
			return nil, fmt.Errorf("safetensors: duplicate tensor name %q", p.name)
		}

		header[p.name] = headerEntry{
			DType:   p.dtype,
			Shape:   append([]int64{}, p.shape...),
			Offsets: [2]int{offset, offset + p.size},
		}
		offset += p.size
	}

	if len(f.Metadata) > 0 {
		header[metadataKey] = f.Metadata
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("safetensors: encode header: %w", err)
	}

	out := make([]byte, 8+len(headerJSON)+offset)
	binary.LittleEndian.PutUint64(out, uint64(len(headerJSON)))
	copy(out[8:], headerJSON)

	pos := 8 + len(headerJSON)
	for _, p := range pending {
		p.put(out[pos : pos+p.size])
		pos += p.size
	}

	return out, nil
}

// WriteFile encodes f and writes it to path.
func WriteFile(path string, f File) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("safetensors: write %s: %w", path, err)
	}

	return nil
}

func checkCount(name string, shape []int64, have int) error {
	want, err := elementCount(shape)
	if err != nil {
		return fmt.Errorf("safetensors: tensor %q: %w", name, err)
	}

	if int64(have) != want {
		return fmt.Errorf("safetensors: tensor %q shape %v expects %d elements, got %d", name, shape, want, have)
	}

	return nil
}
