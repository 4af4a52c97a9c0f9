package ctc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/superhg2012/asr-e2e/internal/safetensors"
	"github.com/superhg2012/asr-e2e/internal/sparse"
	"github.com/superhg2012/asr-e2e/internal/tensor"
)

// Tensor names used in exported batch files.
const (
	FeaturesName      = "features"
	TargetIndicesName = "target_indices"
	TargetValuesName  = "target_values"
	TargetShapeName   = "target_shape"
	SeqLengthsName    = "seq_lengths"

	originalsKey = "originals"
)

// Encode packs b into a safetensors file. meta is stored alongside the
// transcripts in the file metadata.
func Encode(b Batch, meta map[string]string) (safetensors.File, error) {
	if b.Features == nil || b.Size() == 0 {
		return safetensors.File{}, ErrEmptyBatch
	}

	originals, err := json.Marshal(b.Originals)
	if err != nil {
		return safetensors.File{}, fmt.Errorf("ctc: encode originals: %w", err)
	}

	md := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		md[k] = v
	}

	md[originalsKey] = string(originals)

	values := make([]int64, len(b.Targets.Values))
	for i, v := range b.Targets.Values {
		values[i] = int64(v)
	}

	lengths := make([]int64, len(b.SeqLengths))
	for i, v := range b.SeqLengths {
		lengths[i] = int64(v)
	}

	return safetensors.File{
		Tensors: []safetensors.Tensor{{
			Name:  FeaturesName,
			Shape: b.Features.Shape(),
			Data:  b.Features.RawData(),
		}},
		Ints: []safetensors.IntTensor{
			{Name: TargetIndicesName, DType: safetensors.DTypeI64, Shape: []int64{int64(b.Targets.Len()), 2}, Data: b.Targets.FlatIndices()},
			{Name: TargetValuesName, DType: safetensors.DTypeI32, Shape: []int64{int64(len(values))}, Data: values},
			{Name: TargetShapeName, DType: safetensors.DTypeI64, Shape: []int64{2}, Data: b.Targets.Shape[:]},
			{Name: SeqLengthsName, DType: safetensors.DTypeI32, Shape: []int64{int64(len(lengths))}, Data: lengths},
		},
		Metadata: md,
	}, nil
}

// Export writes b to path.
func Export(path string, b Batch, meta map[string]string) error {
	f, err := Encode(b, meta)
	if err != nil {
		return err
	}

	return safetensors.WriteFile(path, f)
}

// ReadExport loads a batch written by Export together with its metadata.
func ReadExport(path string) (Batch, map[string]string, error) {
	store, err := safetensors.OpenStore(path)
	if err != nil {
		return Batch{}, nil, err
	}

	return decode(store)
}

func decode(store *safetensors.Store) (Batch, map[string]string, error) {
	ft, err := store.Tensor(FeaturesName)
	if err != nil {
		return Batch{}, nil, err
	}

	if len(ft.Shape) != 3 {
		return Batch{}, nil, fmt.Errorf("%w: features shape %v, want rank 3", ErrShapeMismatch, ft.Shape)
	}

	feats, err := tensor.New(ft.Data, ft.Shape)
	if err != nil {
		return Batch{}, nil, err
	}

	ints := make(map[string]*safetensors.IntTensor, 4)
	for _, name := range []string{TargetIndicesName, TargetValuesName, TargetShapeName, SeqLengthsName} {
		it, err := store.IntTensor(name)
		if err != nil {
			return Batch{}, nil, err
		}

		ints[name] = it
	}

	shape := ints[TargetShapeName].Data
	if len(shape) != 2 {
		return Batch{}, nil, errors.New("ctc: target shape must have two entries")
	}

	if shape[0] != feats.Dim(0) {
		return Batch{}, nil, fmt.Errorf("%w: target shape %v for batch of %d", ErrShapeMismatch, shape, feats.Dim(0))
	}

	values, err := toInt32(TargetValuesName, ints[TargetValuesName].Data)
	if err != nil {
		return Batch{}, nil, err
	}

	seqLengths, err := toInt32(SeqLengthsName, ints[SeqLengthsName].Data)
	if err != nil {
		return Batch{}, nil, err
	}

	targets, err := sparse.FromFlat(ints[TargetIndicesName].Data, values, [2]int64{shape[0], shape[1]})
	if err != nil {
		return Batch{}, nil, err
	}

	meta := store.Metadata()

	var originals []string
	if raw, ok := meta[originalsKey]; ok {
		if err := json.Unmarshal([]byte(raw), &originals); err != nil {
			return Batch{}, nil, fmt.Errorf("ctc: decode originals: %w", err)
		}

		delete(meta, originalsKey)
	}

	b := Batch{
		Features:   feats,
		Targets:    targets,
		SeqLengths: seqLengths,
		Originals:  originals,
	}

	if int64(b.Size()) != feats.Dim(0) || len(originals) != b.Size() {
		return Batch{}, nil, fmt.Errorf("%w: %d sequence lengths and %d transcripts for batch of %d", ErrShapeMismatch, b.Size(), len(originals), feats.Dim(0))
	}

	return b, meta, nil
}

func toInt32(name string, in []int64) ([]int32, error) {
	out := make([]int32, len(in))
	for i, v := range in {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("ctc: %s[%d] = %d overflows int32", name, i, v)
		}
		out[i] = int32(v)
	}

	return out, nil
}
