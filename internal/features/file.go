package features

import (
	"fmt"

	"github.com/superhg2012/asr-e2e/internal/safetensors"
	"github.com/superhg2012/asr-e2e/internal/tensor"
)

// TensorName is the tensor a feature file stores its matrix under.
const TensorName = "features"

// Load reads a feature file from disk.
func Load(path string) (Matrix, error) {
	store, err := safetensors.OpenStore(path)
	if err != nil {
		return Matrix{}, err
	}

	m, err := fromStore(store)
	if err != nil {
		return Matrix{}, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// LoadBytes decodes an in-memory feature file.
func LoadBytes(data []byte) (Matrix, error) {
	store, err := safetensors.OpenStoreFromBytes(data)
	if err != nil {
		return Matrix{}, err
	}

	return fromStore(store)
}

// fromStore prefers the "features" tensor and falls back to the first
// float tensor in name order.
func fromStore(store *safetensors.Store) (Matrix, error) {
	name := TensorName
	if !store.Has(name) {
		name = ""
		for _, n := range store.Names() {
			if _, err := store.Tensor(n); err == nil {
				name = n
				break
			}
		}

		if name == "" {
			return Matrix{}, fmt.Errorf("features: no float tensor in file")
		}
	}

	st, err := store.Tensor(name)
	if err != nil {
		return Matrix{}, err
	}

	t, err := tensor.New(st.Data, st.Shape)
	if err != nil {
		return Matrix{}, fmt.Errorf("features: tensor %q: %w", name, err)
	}

	return FromTensor(t)
}

// Save writes m as a feature file with optional metadata.
func Save(path string, m Matrix, meta map[string]string) error {
	data, err := Encode(m, meta)
	if err != nil {
		return err
	}

	return safetensors.WriteFile(path, data)
}

// Encode builds the safetensors content for m.
func Encode(m Matrix, meta map[string]string) (safetensors.File, error) {
	if m.t == nil {
		return safetensors.File{}, ErrEmpty
	}

	return safetensors.File{
		Tensors: []safetensors.Tensor{{
			Name:  TensorName,
			Shape: m.t.Shape(),
			Data:  m.t.Data(),
		}},
		Metadata: meta,
	}, nil
}
