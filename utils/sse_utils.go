package utils

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteSSEEvent writes a named SSE event with a JSON payload
func WriteSSEEvent(w io.Writer, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// WriteSSEEventWithID writes a named SSE event carrying an id field, so
// the browser's EventSource tracks Last-Event-ID across reconnects
func WriteSSEEventWithID(w io.Writer, id int64, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, event, data)
	return err
}

// WriteSSEHeartbeat writes a comment frame to keep intermediaries from
// timing out an idle connection
func WriteSSEHeartbeat(w io.Writer) error {
	_, err := fmt.Fprint(w, ": ping\n\n")
	return err
}
