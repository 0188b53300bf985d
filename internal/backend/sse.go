package backend

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// doneSentinel is the literal data payload marking end-of-stream.
const doneSentinel = "[DONE]"

// EventScanner is the framing stage of the stream decode: it splits a raw
// server-sent-event body into events and yields each event's data payload.
// Comment lines and non-data fields are skipped; multiple data lines within
// one event are joined with newlines per the SSE spec.
type EventScanner struct {
	scanner *bufio.Scanner
	data    []string
}

// NewEventScanner wraps r in an SSE framing scanner.
func NewEventScanner(r io.Reader) *EventScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &EventScanner{scanner: s}
}

// Next returns the data payload of the next event, or io.EOF once the
// underlying stream is exhausted. Events with no data field are skipped.
func (e *EventScanner) Next() (string, error) {
	for e.scanner.Scan() {
		line := strings.TrimSuffix(e.scanner.Text(), "\r")

		switch {
		case line == "":
			// Blank line terminates the current event.
			if len(e.data) > 0 {
				payload := strings.Join(e.data, "\n")
				e.data = nil
				return payload, nil
			}
		case strings.HasPrefix(line, ":"):
			// Comment (keep-alive), ignored.
		case strings.HasPrefix(line, "data:"):
			e.data = append(e.data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// event:, id:, retry: and unknown fields carry nothing we need.
		}
	}

	if err := e.scanner.Err(); err != nil {
		return "", err
	}

	// A final event may end at EOF without a trailing blank line.
	if len(e.data) > 0 {
		payload := strings.Join(e.data, "\n")
		e.data = nil
		return payload, nil
	}
	return "", io.EOF
}

// tokenEnvelope is the JSON payload carried by each backend event.
type tokenEnvelope struct {
	Response string `json:"response"`
}

// decodePayload is the payload stage of the stream decode: it recognizes
// the end-of-stream sentinel and otherwise extracts the incremental text
// fragment from the event's JSON envelope.
func decodePayload(data string) (fragment string, done bool, err error) {
	if data == doneSentinel {
		return "", true, nil
	}
	var env tokenEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return "", false, fmt.Errorf("decode event payload: %w", err)
	}
	return env.Response, false, nil
}
