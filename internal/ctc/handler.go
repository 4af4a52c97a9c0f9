package ctc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/superhg2012/asr-e2e/internal/dataset"
	"github.com/superhg2012/asr-e2e/internal/features"
)

// Loader reads the feature matrix stored at path.
type Loader func(path string) (features.Matrix, error)

// Handler runs the full load, pad and convert chain for batches.
type Handler struct {
	load   Loader
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithLoader replaces features.Load as the feature file reader.
func WithLoader(l Loader) Option {
	return func(h *Handler) { h.load = l }
}

// NewHandler builds a Handler.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{load: features.Load, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HandleFeatureBatch converts examples of varying length. Each example is
// standardized over its own frames, then all are zero-padded to the longest
// sequence. SeqLengths keep the unpadded frame counts.
func (h *Handler) HandleFeatureBatch(batch []Example) (Batch, error) {
	h.logger.Info("handling feature vector batch", "size", len(batch))

	converted, err := convertAll(batch)
	if err != nil {
		return Batch{}, err
	}

	b, err := assemble(converted, true)
	if err != nil {
		return Batch{}, err
	}

	h.logger.Debug("padded feature vector batch",
		"size", b.Size(),
		"max_seq_length", b.MaxSeqLength(),
		"num_cep", b.NumCep(),
		"labels", b.Targets.Len(),
	)

	return b, nil
}

// HandleBatch loads the feature file of every item and converts the batch.
// ctx is checked between files.
func (h *Handler) HandleBatch(ctx context.Context, items []dataset.Item) (Batch, error) {
	h.logger.Info("handling batch", "size", len(items))

	if len(items) == 0 {
		return Batch{}, ErrEmptyBatch
	}

	examples := make([]Example, len(items))

	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}

		m, err := h.load(it.FeaturePath)
		if err != nil {
			return Batch{}, fmt.Errorf("load %s: %w", it.FeaturePath, err)
		}

		examples[i] = Example{Features: m, Transcript: it.Transcript}
	}

	return h.HandleFeatureBatch(examples)
}
