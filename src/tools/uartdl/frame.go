package uartdl

import (
	"bytes"
	"errors"
)

var (
	StartMarker = []byte{0xFF, 0xFF, 0xFF, 0xFF}
	StopMarker  = []byte{0xFE, 0xFF, 0xFF, 0xFF}

	ErrNotFramed = errors.New("stream is not wrapped in start/stop markers")
)

// Frame wraps data in the loader's start and stop markers.
func Frame(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(StartMarker)+len(StopMarker))
	out = append(out, StartMarker...)
	out = append(out, data...)
	return append(out, StopMarker...)
}

// Unframe is the inverse of Frame.
func Unframe(p []byte) ([]byte, error) {
	if len(p) < len(StartMarker)+len(StopMarker) ||
		!bytes.HasPrefix(p, StartMarker) || !bytes.HasSuffix(p, StopMarker) {
		return nil, ErrNotFramed
	}
	return p[len(StartMarker) : len(p)-len(StopMarker)], nil
}
