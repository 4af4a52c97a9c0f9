// Package safetensors reads and writes the safetensors container used for
// feature files and exported CTC batches.
//
// The layout is an 8-byte little-endian header length, a JSON header mapping
// tensor names to dtype, shape and data offsets, then the raw tensor bytes.
// An optional "__metadata__" entry holds string key/value pairs.
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

const (
	DTypeF32  = "F32"
	DTypeF16  = "F16"
	DTypeBF16 = "BF16"
	DTypeI32  = "I32"
	DTypeI64  = "I64"

	metadataKey = "__metadata__"
)

var (
	// ErrNotFound is returned when a named tensor is absent.
	ErrNotFound = errors.New("safetensors: tensor not found")
	// ErrDType is returned when a tensor is read with the wrong accessor.
	ErrDType = errors.New("safetensors: dtype mismatch")
)

// Tensor is a floating point tensor decoded to float32.
type Tensor struct {
	Name  string
	Shape []int64
	Data  []float32
}

// IntTensor is an integer tensor. DType selects the on-disk width
// (I32 or I64); values are always held as int64.
type IntTensor struct {
	Name  string
	DType string
	Shape []int64
	Data  []int64
}

// Store gives random access to the tensors of one safetensors payload.
type Store struct {
	raw      []byte
	entries  map[string]storeEntry
	names    []string
	metadata map[string]string
}

type storeEntry struct {
	DType string
	Shape []int64
	Start int
	End   int
}

type headerEntry struct {
	DType   string  `json:"dtype"`
	Shape   []int64 `json:"shape"`
	Offsets [2]int  `json:"data_offsets"`
}

// OpenStore reads a safetensors file from disk.
func OpenStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: read %s: %w", path, err)
	}

	return OpenStoreFromBytes(data)
}

// OpenStoreFromBytes parses an in-memory safetensors payload.
func OpenStoreFromBytes(data []byte) (*Store, error) {
	headerEnd, header, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	s := &Store{
		raw:     data,
		entries: make(map[string]storeEntry, len(header)),
	}

	for name, raw := range header {
		if name == metadataKey {
			if err := json.Unmarshal(raw, &s.metadata); err != nil {
				return nil, fmt.Errorf("safetensors: decode metadata: %w", err)
			}

			continue
		}

		var e headerEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("safetensors: decode header entry %q: %w", name, err)
		}

		entry, err := resolveEntry(name, e, headerEnd, len(data))
		if err != nil {
			return nil, err
		}

		s.entries[name] = entry
		s.names = append(s.names, name)
	}

	if len(s.entries) == 0 {
		return nil, errors.New("safetensors: no tensors found")
	}

	sort.Strings(s.names)

	return s, nil
}

func resolveEntry(name string, e headerEntry, headerEnd, size int) (storeEntry, error) {
	dtype := strings.ToUpper(e.DType)

	width, err := dtypeBytes(dtype)
	if err != nil {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q: %w", name, err)
	}

	if e.Offsets[0] < 0 || e.Offsets[1] < e.Offsets[0] {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q has invalid data offsets %v", name, e.Offsets)
	}

	start := headerEnd + e.Offsets[0]
	end := headerEnd + e.Offsets[1]

	if end > size {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q data [%d:%d] exceeds file size %d", name, start, end, size)
	}

	count, err := elementCount(e.Shape)
	if err != nil {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q: %w", name, err)
	}

	span := int64(end - start)
	if count > span/int64(width) || count*int64(width) != span {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q has %d elements of %d bytes but data has %d", name, count, width, span)
	}

	return storeEntry{
		DType: dtype,
		Shape: append([]int64(nil), e.Shape...),
		Start: start,
		End:   end,
	}, nil
}

func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Store) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// DType returns the stored dtype of a tensor, or "" if absent.
func (s *Store) DType(name string) string {
	return s.entries[name].DType
}

// Metadata returns a copy of the __metadata__ map (nil if absent).
func (s *Store) Metadata() map[string]string {
	if s.metadata == nil {
		return nil
	}

	out := make(map[string]string, len(s.metadata))
	for k, v := range s.metadata {
		out[k] = v
	}

	return out
}

// Tensor decodes a floating point tensor (F32, F16 or BF16) to float32.
func (s *Store) Tensor(name string) (*Tensor, error) {
	entry, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	raw := s.raw[entry.Start:entry.End]

	var data []float32

	switch entry.DType {
	case DTypeF32:
		data = make([]float32, len(raw)/4)
		for i := range data {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case DTypeF16:
		data = make([]float32, len(raw)/2)
		for i := range data {
			data[i] = float16ToFloat32(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	case DTypeBF16:
		data = make([]float32, len(raw)/2)
		for i := range data {
			data[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(raw[i*2:])) << 16)
		}
	default:
		return nil, fmt.Errorf("%w: tensor %q is %s, want a float dtype", ErrDType, name, entry.DType)
	}

	return &Tensor{Name: name, Shape: append([]int64(nil), entry.Shape...), Data: data}, nil
}

// IntTensor decodes an integer tensor (I32 or I64).
func (s *Store) IntTensor(name string) (*IntTensor, error) {
	entry, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	raw := s.raw[entry.Start:entry.End]

	var data []int64

	switch entry.DType {
	case DTypeI32:
		data = make([]int64, len(raw)/4)
		for i := range data {
			data[i] = int64(int32(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	case DTypeI64:
		data = make([]int64, len(raw)/8)
		for i := range data {
			data[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	default:
		return nil, fmt.Errorf("%w: tensor %q is %s, want an integer dtype", ErrDType, name, entry.DType)
	}

	return &IntTensor{Name: name, DType: entry.DType, Shape: append([]int64(nil), entry.Shape...), Data: data}, nil
}

func (s *Store) lookup(name string) (storeEntry, error) {
	entry, ok := s.entries[name]
	if !ok {
		return storeEntry{}, fmt.Errorf("%w: %q (available: %s)", ErrNotFound, name, summarizeNames(s.names))
	}

	return entry, nil
}

func decodeHeader(data []byte) (int, map[string]json.RawMessage, error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("safetensors: file too short (%d bytes)", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return 0, nil, fmt.Errorf("safetensors: header length %d exceeds file size %d", headerLen, len(data))
	}

	headerEnd := 8 + int(headerLen)

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:headerEnd], &header); err != nil {
		return 0, nil, fmt.Errorf("safetensors: parse header: %w", err)
	}

	return headerEnd, header, nil
}

func elementCount(shape []int64) (int64, error) {
	total := int64(1)

	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension %d", d)
		}

		if d == 0 {
			return 0, nil
		}

		if total > math.MaxInt64/d {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}

		total *= d
	}

	return total, nil
}

func dtypeBytes(dtype string) (int, error) {
	switch dtype {
	case DTypeF32, DTypeI32:
		return 4, nil
	case DTypeF16, DTypeBF16:
		return 2, nil
	case DTypeI64:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported dtype %q", dtype)
	}
}

func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h & 0x03ff)

	var bits uint32

	switch exp {
	case 0:
		if frac == 0 {
			bits = sign << 31
			break
		}

		e := int32(-14)
		for (frac & 0x0400) == 0 {
			frac <<= 1
			e--
		}

		frac &= 0x03ff
		bits = (sign << 31) | (uint32(e+127) << 23) | (frac << 13)
	case 0x1f:
		bits = (sign << 31) | 0x7f800000 | (frac << 13)
	default:
		bits = (sign << 31) | ((exp + 127 - 15) << 23) | (frac << 13)
	}

	return math.Float32frombits(bits)
}

func summarizeNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}

	const maxNames = 8
	if len(names) <= maxNames {
		return strings.Join(names, ", ")
	}

	return strings.Join(names[:maxNames], ", ") + ", ..."
}
