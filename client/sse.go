package client

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// sseFrame is one decoded server-sent event
type sseFrame struct {
	ID    int64
	HasID bool
	Event string
	Data  string
}

// sseScanner decodes server-sent events from a response body.
// Comment frames (heartbeats) are skipped transparently.
type sseScanner struct {
	reader  *bufio.Reader
	current sseFrame
	err     error
}

func newSSEScanner(reader io.Reader) *sseScanner {
	return &sseScanner{reader: bufio.NewReaderSize(reader, 64*1024)}
}

// Next advances to the next event. It returns false when the stream ends
// or a read error occurs; Err distinguishes the two.
func (s *sseScanner) Next() bool {
	s.current = sseFrame{}

	var dataLines []string
	var eventType string
	var id int64
	hasID := false
	hasData := false

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			if err != io.EOF {
				s.err = err
			}
			if hasData {
				s.current = sseFrame{ID: id, HasID: hasID, Event: eventType, Data: strings.Join(dataLines, "\n")}
				s.err = io.EOF
				return true
			}
			return false
		}

		line = strings.TrimRight(line, "\r\n")

		// Blank line terminates the event
		if line == "" {
			if hasData {
				s.current = sseFrame{ID: id, HasID: hasID, Event: eventType, Data: strings.Join(dataLines, "\n")}
				return true
			}
			eventType = ""
			continue
		}

		// Comment lines carry the server heartbeat
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, hasColon := strings.Cut(line, ":")
		if !hasColon {
			field = line
			value = ""
		} else {
			// Per spec: a single leading space in the value is stripped
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "event":
			eventType = value
		case "id":
			if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
				id = parsed
				hasID = true
			}
		}
	}
}

// Event returns the current decoded frame
func (s *sseScanner) Event() sseFrame {
	return s.current
}

// Err returns the terminal error, nil on clean EOF
func (s *sseScanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
