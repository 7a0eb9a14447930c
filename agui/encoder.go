package agui

import (
	"encoding/json"
	"fmt"
	"io"
)

// EncodeSSE serializes an event into an SSE wire frame:
//
//	data: <json>\n\n
//
// The encoder is stateless. Events built with the package constructors
// always serialize; an error here means a caller smuggled a
// non-serializable payload into an ActivitySnapshot.
func EncodeSSE(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.EventType(), err)
	}

	frame := make([]byte, 0, len(data)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// WriteSSE encodes an event and writes the frame to w.
func WriteSSE(w io.Writer, e Event) error {
	frame, err := EncodeSSE(e)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write %s event: %w", e.EventType(), err)
	}
	return nil
}
