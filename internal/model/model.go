// Package model defines the contract acoustic models built on converted CTC
// batches implement.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/superhg2012/asr-e2e/internal/alphabet"
	"github.com/superhg2012/asr-e2e/internal/tensor"
)

// ErrNotImplemented is returned by models that have no graph yet.
var ErrNotImplemented = errors.New("model: not implemented")

// Mode selects what a model graph is built for.
type Mode string

const (
	ModeTrain Mode = "train"
	ModeEval  Mode = "eval"
	ModeInfer Mode = "infer"
)

// ParseMode maps a mode name to a Mode. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeTrain, ModeEval, ModeInfer:
		return m, nil
	default:
		return "", fmt.Errorf("model: unknown mode %q (want train, eval or infer)", s)
	}
}

// Params carries the inputs every model is constructed from.
type Params struct {
	// Input is the [batch x max_seq_length x num_cep] feature batch.
	Input      *tensor.Tensor
	SeqLengths []int32
	Mode       Mode
	// NumClasses includes the CTC blank.
	NumClasses int
	Settings   map[string]any
}

// DefaultParams returns Params for input with the alphabet's class count.
func DefaultParams(input *tensor.Tensor, seqLengths []int32, mode Mode) Params {
	return Params{
		Input:      input,
		SeqLengths: seqLengths,
		Mode:       mode,
		NumClasses: alphabet.NumClasses,
	}
}

// Validate checks that the input batch and sequence lengths agree.
func (p Params) Validate() error {
	if p.Input == nil {
		return errors.New("model: input is required")
	}

	if p.Input.Rank() != 3 {
		return fmt.Errorf("model: input shape %v, want [batch x seq_length x num_cep]", p.Input.Shape())
	}

	if int64(len(p.SeqLengths)) != p.Input.Dim(0) {
		return fmt.Errorf("model: %d sequence lengths for batch of %d", len(p.SeqLengths), p.Input.Dim(0))
	}

	for i, n := range p.SeqLengths {
		if n < 0 || int64(n) > p.Input.Dim(1) {
			return fmt.Errorf("model: sequence length %d of example %d outside [0, %d]", n, i, p.Input.Dim(1))
		}
	}

	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}

	if p.NumClasses < 2 {
		return fmt.Errorf("model: num classes %d, want at least 2", p.NumClasses)
	}

	return nil
}

// Setting returns the named setting, or def when it is missing or has a
// different type.
func Setting[T any](p Params, name string, def T) T {
	v, ok := p.Settings[name]
	if !ok {
		return def
	}

	t, ok := v.(T)
	if !ok {
		return def
	}

	return t
}

// Model builds a computation graph.
type Model interface {
	BuildGraph() error
}

// Describe wraps m so every BuildGraph call is logged with its duration.
// A nil logger uses slog.Default().
func Describe(name string, m Model, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	return &described{name: name, inner: m, logger: logger}
}

type described struct {
	name   string
	inner  Model
	logger *slog.Logger
}

func (d *described) BuildGraph() error {
	d.logger.Info("building graph", "model", d.name)

	start := time.Now()
	err := d.inner.BuildGraph()
	elapsed := time.Since(start)

	if err != nil {
		d.logger.Error("build graph failed", "model", d.name, "elapsed", elapsed, "error", err)
		return fmt.Errorf("%s: build graph: %w", d.name, err)
	}

	d.logger.Info("built graph", "model", d.name, "elapsed", elapsed)

	return nil
}

// Stub is a Model without a graph. BuildGraph validates its parameters and
// returns ErrNotImplemented.
type Stub struct {
	Params Params
}

// BuildGraph implements Model.
func (s Stub) BuildGraph() error {
	if err := s.Params.Validate(); err != nil {
		return err
	}

	return ErrNotImplemented
}
