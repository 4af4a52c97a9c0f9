// Package doctor runs preflight checks over a manifest before conversion.
package doctor

import (
	"fmt"
	"io"
	"os"

	"github.com/superhg2012/asr-e2e/internal/alphabet"
	"github.com/superhg2012/asr-e2e/internal/dataset"
	"github.com/superhg2012/asr-e2e/internal/features"
	"github.com/superhg2012/asr-e2e/internal/text"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// LoadFunc reads a feature matrix from disk.
type LoadFunc func(path string) (features.Matrix, error)

// Config holds the inputs and injectable dependencies for each check.
type Config struct {
	// Items are the manifest entries to verify.
	Items []dataset.Item
	// Load reads feature files. Defaults to features.Load.
	Load LoadFunc
	// OutputDir must be creatable and writable. Empty skips the check.
	OutputDir string
	// NumCep, when non-zero, is the coefficient count every file must have.
	NumCep int
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
	checked  int
	frames   int
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

// Checked returns the number of manifest items inspected.
func (r *Result) Checked() int { return r.checked }

// Frames returns the total frame count of every feature file that loaded.
func (r *Result) Frames() int { return r.frames }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	load := cfg.Load
	if load == nil {
		load = features.Load
	}

	// ---- output directory -------------------------------------------------
	if cfg.OutputDir != "" {
		if err := checkWritable(cfg.OutputDir); err != nil {
			res.fail(fmt.Sprintf("output dir %q: %v", cfg.OutputDir, err))
			fmt.Fprintf(w, "%s output dir %s: %v\n", FailMark, cfg.OutputDir, err)
		} else {
			fmt.Fprintf(w, "%s output dir: %s\n", PassMark, cfg.OutputDir)
		}
	}

	// ---- manifest items ---------------------------------------------------
	if len(cfg.Items) == 0 {
		res.fail("manifest: no items")
		fmt.Fprintf(w, "%s manifest: no items\n", FailMark)
		return res
	}

	numCep := cfg.NumCep
	for i, it := range cfg.Items {
		res.checked++

		m, err := load(it.FeaturePath)
		if err != nil {
			res.fail(fmt.Sprintf("item %d features %q: %v", i, it.FeaturePath, err))
			fmt.Fprintf(w, "%s features %s: %v\n", FailMark, it.FeaturePath, err)
		} else if numCep != 0 && m.Coeffs() != numCep {
			res.fail(fmt.Sprintf("item %d features %q: %d coefficients, want %d", i, it.FeaturePath, m.Coeffs(), numCep))
			fmt.Fprintf(w, "%s features %s: %d coefficients, want %d\n", FailMark, it.FeaturePath, m.Coeffs(), numCep)
		} else {
			if numCep == 0 {
				numCep = m.Coeffs()
			}
			res.frames += m.Frames()
			fmt.Fprintf(w, "%s features: %s (%d x %d)\n", PassMark, it.FeaturePath, m.Frames(), m.Coeffs())
		}

		if err := checkTranscript(it.Transcript); err != nil {
			res.fail(fmt.Sprintf("item %d transcript %q: %v", i, it.Transcript, err))
			fmt.Fprintf(w, "%s transcript %q: %v\n", FailMark, it.Transcript, err)
		} else {
			fmt.Fprintf(w, "%s transcript: %q\n", PassMark, it.Transcript)
		}
	}

	return res
}

// checkTranscript verifies that a transcript normalizes to something the
// alphabet can encode.
func checkTranscript(s string) error {
	normalized, err := text.NormalizeTranscript(s)
	if err != nil {
		return err
	}
	_, err = alphabet.Encode(normalized)
	return err
}

// checkWritable creates dir if needed and probes it with a temporary file.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".ctcprep-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
