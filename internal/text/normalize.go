// Package text normalizes transcripts before they are mapped to labels.
package text

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyText is returned when a transcript is empty after normalization.
var ErrEmptyText = errors.New("text is empty")

// dropped lists the punctuation removed from transcripts.
const dropped = ".?,'!-"

var punctuation = strings.NewReplacer(
	".", "",
	"?", "",
	",", "",
	"'", "",
	"!", "",
	"-", "",
)

// NormalizeTranscript prepares a transcript for label encoding.
// It normalizes line endings to \n, trims surrounding whitespace,
// lower-cases the text and strips the characters in ".?,'!-".
// Internal spacing is preserved: every remaining space becomes a space label.
func NormalizeTranscript(s string) (string, error) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = punctuation.Replace(s)

	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

// IsDropped reports whether r is stripped by NormalizeTranscript.
func IsDropped(r rune) bool {
	return strings.ContainsRune(dropped, r)
}

// Words splits a normalized transcript into words.
func Words(s string) []string {
	return strings.FieldsFunc(s, unicode.IsSpace)
}
