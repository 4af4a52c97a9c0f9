// Package ctc converts transcribed feature matrices into the batch layout a
// CTC loss consumes: padded features, sparse labels, sequence lengths and the
// normalized transcripts.
//
// Examples are standardized over their own frames before any zero padding,
// and SeqLengths report the unpadded frame counts. Pipelines that pad first
// and normalize the padded batch produce different feature values and
// report the padded length for every example.
package ctc

import (
	"errors"
	"fmt"

	"github.com/superhg2012/asr-e2e/internal/alphabet"
	"github.com/superhg2012/asr-e2e/internal/features"
	"github.com/superhg2012/asr-e2e/internal/model"
	"github.com/superhg2012/asr-e2e/internal/sparse"
	"github.com/superhg2012/asr-e2e/internal/tensor"
	"github.com/superhg2012/asr-e2e/internal/text"
)

var (
	// ErrEmptyBatch is returned when a batch has no examples.
	ErrEmptyBatch = errors.New("ctc: empty batch")
	// ErrShapeMismatch is returned when examples cannot share one batch
	// tensor.
	ErrShapeMismatch = errors.New("ctc: feature shape mismatch")
)

// Example is one utterance: its [seq_length x num_cep] features and raw
// transcript.
type Example struct {
	Features   features.Matrix
	Transcript string
}

// Converted is one example in CTC form.
type Converted struct {
	// Features is [1 x seq_length x num_cep], standardized.
	Features *tensor.Tensor
	// Target holds one label per transcript character.
	Target []int32
	// SeqLength is the number of feature frames.
	SeqLength int32
	// Original is the normalized transcript the target was built from.
	Original string
}

// Batch is a converted batch ready for a CTC loss.
type Batch struct {
	// Features is [batch x max_seq_length x num_cep].
	Features   *tensor.Tensor
	Targets    sparse.Tensor
	SeqLengths []int32
	Originals  []string
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int { return len(b.SeqLengths) }

// MaxSeqLength returns the padded time dimension.
func (b Batch) MaxSeqLength() int { return int(b.Features.Dim(1)) }

// NumCep returns the coefficient dimension.
func (b Batch) NumCep() int { return int(b.Features.Dim(2)) }

// Params returns the model parameters that feed b to a network in mode.
func (b Batch) Params(mode model.Mode) model.Params {
	return model.DefaultParams(b.Features, b.SeqLengths, mode)
}

// ConvertExample standardizes the features of one example and encodes its
// transcript.
func ConvertExample(ex Example) (Converted, error) {
	if ex.Features.Tensor() == nil {
		return Converted{}, features.ErrEmpty
	}

	std, _, err := features.Standardize(ex.Features)
	if err != nil {
		return Converted{}, err
	}

	feats, err := std.Tensor().ExpandDims(0)
	if err != nil {
		return Converted{}, err
	}

	original, err := text.NormalizeTranscript(ex.Transcript)
	if err != nil {
		return Converted{}, fmt.Errorf("ctc: transcript %q: %w", ex.Transcript, err)
	}

	target, err := alphabet.Encode(original)
	if err != nil {
		return Converted{}, fmt.Errorf("ctc: transcript %q: %w", original, err)
	}

	return Converted{
		Features:  feats,
		Target:    target,
		SeqLength: int32(ex.Features.Frames()),
		Original:  original,
	}, nil
}

// ConvertExamples converts a batch whose examples already share one
// sequence length and bundles them.
func ConvertExamples(batch []Example) (Batch, error) {
	converted, err := convertAll(batch)
	if err != nil {
		return Batch{}, err
	}

	return assemble(converted, false)
}

func convertAll(batch []Example) ([]Converted, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	out := make([]Converted, len(batch))

	for i, ex := range batch {
		c, err := ConvertExample(ex)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}

		out[i] = c
	}

	return out, nil
}

// assemble concatenates converted examples along the batch axis. With pad
// set, shorter examples are right-padded with zero frames by features.Pad.
func assemble(converted []Converted, pad bool) (Batch, error) {
	if len(converted) == 0 {
		return Batch{}, ErrEmptyBatch
	}

	first := converted[0].Features
	mats := make([]features.Matrix, len(converted))

	for i, c := range converted {
		if !pad {
			if c.Features.Dim(2) != first.Dim(2) {
				return Batch{}, fmt.Errorf("%w: example %d has %d coefficients, want %d", ErrShapeMismatch, i, c.Features.Dim(2), first.Dim(2))
			}

			if c.Features.Dim(1) != first.Dim(1) {
				return Batch{}, fmt.Errorf("%w: example %d has %d frames, want %d", ErrShapeMismatch, i, c.Features.Dim(1), first.Dim(1))
			}
		}

		m, err := features.FromTensor(c.Features)
		if err != nil {
			return Batch{}, fmt.Errorf("ctc: example %d: %w", i, err)
		}

		mats[i] = m
	}

	if pad {
		var err error
		if mats, _, err = features.Pad(mats); err != nil {
			return Batch{}, fmt.Errorf("ctc: %w", err)
		}
	}

	pieces := make([]*tensor.Tensor, len(converted))
	targets := make([][]int32, len(converted))
	b := Batch{
		SeqLengths: make([]int32, len(converted)),
		Originals:  make([]string, len(converted)),
	}

	for i, c := range converted {
		piece, err := mats[i].Tensor().ExpandDims(0)
		if err != nil {
			return Batch{}, fmt.Errorf("ctc: example %d: %w", i, err)
		}

		pieces[i] = piece
		targets[i] = c.Target
		b.SeqLengths[i] = c.SeqLength
		b.Originals[i] = c.Original
	}

	feats, err := tensor.Concat(pieces, 0)
	if err != nil {
		return Batch{}, fmt.Errorf("ctc: %w", err)
	}

	b.Features = feats
	b.Targets = sparse.FromSequences(targets)

	return b, nil
}
