package control

import (
	"encoding/json"
	"fmt"
)

// FrameKind tags a wire frame's payload as either a Command or an Event: a
// one-byte type header ahead of an opaque payload, carrying a
// self-describing JSON body instead of a fixed binary layout, since
// Command/Event are sparse, evolving structs rather than a small closed
// set of packed fields.
type FrameKind uint8

const (
	FrameCommand FrameKind = iota
	FrameEvent
)

// EncodeFrame serializes v (a Command or an Event) into one binary
// WebSocket message: a one-byte FrameKind header followed by its JSON
// encoding (§6.2's "framed message channel").
func EncodeFrame(kind FrameKind, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	frame := make([]byte, 1+len(payload))
	frame[0] = byte(kind)
	copy(frame[1:], payload)

	return frame, nil
}

// DecodeFrame splits a binary WebSocket message back into its FrameKind
// and JSON payload. The caller unmarshals the payload into a Command or
// Event according to the reported kind.
func DecodeFrame(data []byte) (FrameKind, []byte, error) {
	if len(data) < 1 {
		return 0, nil, fmt.Errorf("decode frame: empty frame")
	}

	return FrameKind(data[0]), data[1:], nil
}
