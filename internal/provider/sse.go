package provider

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// sseEvent is one server-sent event: an optional event name and the joined
// data payload.
type sseEvent struct {
	name string
	data string
}

// errStopStream is returned by an event handler to end reading cleanly after
// a terminal event.
var errStopStream = errors.New("stop stream")

// maxSSELine bounds a single stream line; completion deltas are tiny but a
// backend may flush a whole response in one frame.
const maxSSELine = 1 << 20

// readSSE parses a text/event-stream body and calls fn once per event.
// Comment lines are skipped; multiple data lines of one event are joined
// with newlines. A handler returning errStopStream stops reading without
// error. A dangling event at EOF (no trailing blank line) is still
// delivered.
func readSSE(r io.Reader, fn func(sseEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxSSELine)

	var ev sseEvent
	var dataLines []string
	flush := func() error {
		if len(dataLines) == 0 && ev.name == "" {
			return nil
		}
		ev.data = strings.Join(dataLines, "\n")
		err := fn(ev)
		ev = sseEvent{}
		dataLines = nil
		return err
	}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		switch {
		case line == "":
			if err := flush(); err != nil {
				if errors.Is(err, errStopStream) {
					return nil
				}
				return err
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	if err := flush(); err != nil && !errors.Is(err, errStopStream) {
		return err
	}
	return nil
}
