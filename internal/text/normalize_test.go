package text

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeTranscript(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "passthrough clean text",
			input: "привет мир",
			want:  "привет мир",
		},
		{
			name:  "lower-cases cyrillic",
			input: "Привет МИР",
			want:  "привет мир",
		},
		{
			name:  "lower-cases yo",
			input: "ЁЖ",
			want:  "ёж",
		},
		{
			name:  "trims surrounding whitespace",
			input: "  \tпривет \n",
			want:  "привет",
		},
		{
			name:  "strips sentence punctuation",
			input: "Да, нет! Может?",
			want:  "да нет может",
		},
		{
			name:  "strips apostrophes and hyphens",
			input: "кто-то д'артаньян",
			want:  "ктото дартаньян",
		},
		{
			name:  "preserves internal double space",
			input: "а  б",
			want:  "а  б",
		},
		{
			name:  "strips trailing period after trim",
			input: "конец. ",
			want:  "конец",
		},
		{
			name:  "normalizes CRLF before trimming",
			input: "строка\r\n",
			want:  "строка",
		},
		{
			name:    "rejects empty string",
			input:   "",
			wantErr: ErrEmptyText,
		},
		{
			name:    "rejects whitespace-only string",
			input:   "   \t\n  ",
			wantErr: ErrEmptyText,
		},
		{
			name:    "rejects punctuation-only string",
			input:   " ...!? ",
			wantErr: ErrEmptyText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTranscript(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("NormalizeTranscript(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsDropped(t *testing.T) {
	for _, r := range ".?,'!-" {
		if !IsDropped(r) {
			t.Errorf("IsDropped(%q) = false", r)
		}
	}
	for _, r := range "а :;" {
		if IsDropped(r) {
			t.Errorf("IsDropped(%q) = true", r)
		}
	}
}

func TestWords(t *testing.T) {
	got := Words("раз  два\tтри")
	want := []string{"раз", "два", "три"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Words mismatch (-want +got):\n%s", diff)
	}
}
