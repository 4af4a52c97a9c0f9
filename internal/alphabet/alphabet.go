// Package alphabet maps transcript characters to CTC label indices.
//
// Label 0 is reserved for the space token, the Cyrillic letters а..я take
// labels 1..32 and ё takes 33. The CTC blank is the class after the last
// label.
package alphabet

import (
	"errors"
	"fmt"
	"strings"
)

const (
	SpaceToken = "<space>"
	SpaceIndex = 0

	firstLetter = 'а'
	lastLetter  = 'я'
	yo          = 'ё'

	// offset maps a letter rune onto its label: 'а' - offset == 1.
	offset = firstLetter - 1

	// YoIndex is the label assigned to ё, one past я.
	YoIndex = (lastLetter + 1) - offset

	// NumLabels counts the space label plus all letters.
	NumLabels = YoIndex + 1

	// NumClasses is the CTC output width: every label plus the blank.
	NumClasses = NumLabels + 1

	// BlankIndex is the CTC blank class.
	BlankIndex = NumLabels
)

var (
	// ErrUnknownRune is returned when a transcript contains a character
	// outside the alphabet.
	ErrUnknownRune = errors.New("alphabet: unknown character")
	// ErrUnknownIndex is returned when a label id has no character.
	ErrUnknownIndex = errors.New("alphabet: unknown label index")
)

// Index returns the label for a single rune.
func Index(r rune) (int32, error) {
	switch {
	case r == ' ':
		return SpaceIndex, nil
	case r == yo:
		return YoIndex, nil
	case r >= firstLetter && r <= lastLetter:
		return int32(r - offset), nil
	default:
		return 0, fmt.Errorf("%w %q (U+%04X)", ErrUnknownRune, r, r)
	}
}

// Rune returns the character for a label. The space label yields ' '.
func Rune(id int32) (rune, bool) {
	switch {
	case id == SpaceIndex:
		return ' ', true
	case id == YoIndex:
		return yo, true
	case id >= 1 && id <= lastLetter-offset:
		return rune(id) + offset, true
	default:
		return 0, false
	}
}

// Encode maps every rune of a normalized transcript to its label. A run of n
// spaces yields exactly n space labels.
func Encode(s string) ([]int32, error) {
	ids := make([]int32, 0, len(s)/2)
	for pos, r := range s {
		id, err := Index(r)
		if err != nil {
			return nil, fmt.Errorf("encode at byte %d: %w", pos, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Decode maps labels back to text. Blank labels are dropped.
func Decode(ids []int32) (string, error) {
	var sb strings.Builder
	sb.Grow(len(ids) * 2)

	for i, id := range ids {
		if id == BlankIndex {
			continue
		}
		r, ok := Rune(id)
		if !ok {
			return "", fmt.Errorf("%w %d at position %d", ErrUnknownIndex, id, i)
		}
		sb.WriteRune(r)
	}

	return sb.String(), nil
}

// Token returns the printable token for a label, SpaceToken for the space
// label.
func Token(id int32) string {
	if id == SpaceIndex {
		return SpaceToken
	}
	if id == BlankIndex {
		return "<blank>"
	}
	r, ok := Rune(id)
	if !ok {
		return ""
	}

	return string(r)
}
