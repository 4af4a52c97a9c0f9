// Package dataset reads training manifests that pair feature files with
// transcripts and groups them into batches.
package dataset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyManifest is returned when a manifest has no entries.
var ErrEmptyManifest = errors.New("dataset: manifest has no entries")

// Item is one training example: a feature file and its transcript.
type Item struct {
	FeaturePath string `yaml:"features"`
	Transcript  string `yaml:"transcript"`
}

// LoadManifest reads a manifest. Files ending in .yaml or .yml hold a list
// of {features, transcript} entries; anything else is read as one
// "path<TAB>transcript" pair per line. Relative feature paths are resolved
// against the manifest's directory.
func LoadManifest(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read manifest: %w", err)
	}

	var items []Item

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		items, err = ParseYAML(data)
	default:
		items, err = ParseTSV(bytes.NewReader(data))
	}

	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range items {
		if !filepath.IsAbs(items[i].FeaturePath) {
			items[i].FeaturePath = filepath.Join(base, items[i].FeaturePath)
		}
	}

	return items, nil
}

// ParseTSV parses "path<TAB>transcript" lines. Blank lines and lines
// starting with '#' are skipped.
func ParseTSV(r io.Reader) ([]Item, error) {
	var items []Item

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(strings.TrimSpace(text), "#") {
			continue
		}

		path, transcript, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: missing tab between path and transcript", line)
		}

		item := Item{FeaturePath: strings.TrimSpace(path), Transcript: transcript}
		if err := item.validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, ErrEmptyManifest
	}

	return items, nil
}

// ParseYAML parses a YAML list of items.
func ParseYAML(data []byte) ([]Item, error) {
	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	for i := range items {
		items[i].FeaturePath = strings.TrimSpace(items[i].FeaturePath)
		if err := items[i].validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	if len(items) == 0 {
		return nil, ErrEmptyManifest
	}

	return items, nil
}

func (it Item) validate() error {
	if it.FeaturePath == "" {
		return errors.New("empty feature path")
	}

	return nil
}

// Batches splits items into consecutive batches of size; the last batch may
// be shorter.
func Batches(items []Item, size int) ([][]Item, error) {
	if size < 1 {
		return nil, fmt.Errorf("dataset: batch size must be at least 1, got %d", size)
	}

	out := make([][]Item, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}

	return out, nil
}
