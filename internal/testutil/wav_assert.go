package testutil

import (
	"encoding/binary"
	"errors"
	"testing"
)

// AssertValidWAV checks that data is a mono 16-bit PCM WAV file at
// sampleRate with at least one sample.
func AssertValidWAV(tb testing.TB, data []byte, sampleRate int) {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		tb.Fatalf("WAV: missing RIFF header (got %q)", string(data[0:4]))
	}

	if string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing WAVE marker (got %q)", string(data[8:12]))
	}

	fmtOff, fmtSize, err := findChunk(data, "fmt ")
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}

	if fmtSize < 16 {
		tb.Fatalf("WAV: fmt chunk too short: %d bytes", fmtSize)
	}

	// fmt chunk fields (little-endian).
	fmtData := data[fmtOff:]

	if audioFmt := binary.LittleEndian.Uint16(fmtData[0:2]); audioFmt != 1 {
		tb.Fatalf("WAV: expected PCM format (1), got %d", audioFmt)
	}

	if channels := binary.LittleEndian.Uint16(fmtData[2:4]); channels != 1 {
		tb.Fatalf("WAV: expected mono (1 channel), got %d", channels)
	}

	if got := binary.LittleEndian.Uint32(fmtData[4:8]); got != uint32(sampleRate) {
		tb.Fatalf("WAV: expected sample rate %d, got %d", sampleRate, got)
	}

	if bitDepth := binary.LittleEndian.Uint16(fmtData[14:16]); bitDepth != 16 {
		tb.Fatalf("WAV: expected 16-bit depth, got %d", bitDepth)
	}

	_, dataSize, err := findChunk(data, "data")
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}

	if dataSize == 0 {
		tb.Fatal("WAV: data chunk contains zero samples")
	}
}

// WAVSampleCount returns the number of 16-bit mono samples in data.
func WAVSampleCount(tb testing.TB, data []byte) int {
	tb.Helper()

	_, size, err := findChunk(data, "data")
	if err != nil {
		tb.Fatalf("WAV sample count: %v", err)
	}

	return int(size / 2)
}

// findChunk walks the WAV chunk list and returns the payload offset and size
// of the first chunk named id.
func findChunk(data []byte, id string) (int, uint32, error) {
	// Start after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(data) {
		name := string(data[offset : offset+4])

		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if name == id {
			if offset+8+int(size) > len(data) && id != "data" {
				return 0, 0, errors.New(id + " chunk truncated")
			}
			return offset + 8, size, nil
		}

		offset += 8 + int(size)
		// Pad to even boundary.
		if size%2 != 0 {
			offset++
		}
	}

	return 0, 0, errors.New(id + " chunk not found in WAV")
}
