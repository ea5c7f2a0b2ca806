package provider

import (
	"errors"
	"strings"
	"testing"
)

func collectSSE(t *testing.T, stream string) []sseEvent {
	t.Helper()
	var events []sseEvent
	err := readSSE(strings.NewReader(stream), func(ev sseEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("readSSE() error: %v", err)
	}
	return events
}

func TestReadSSEBasic(t *testing.T) {
	events := collectSSE(t, "data: one\n\ndata: two\n\n")
	if len(events) != 2 || events[0].data != "one" || events[1].data != "two" {
		t.Fatalf("events = %+v", events)
	}
}

func TestReadSSENamedEventsAndComments(t *testing.T) {
	events := collectSSE(t, ": keep-alive\nevent: ping\ndata: {}\n\ndata: payload\n\n")
	if len(events) != 2 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].name != "ping" || events[0].data != "{}" {
		t.Fatalf("ping event = %+v", events[0])
	}
	if events[1].name != "" || events[1].data != "payload" {
		t.Fatalf("second event = %+v", events[1])
	}
}

func TestReadSSEMultiLineData(t *testing.T) {
	events := collectSSE(t, "data: line1\ndata: line2\n\n")
	if len(events) != 1 || events[0].data != "line1\nline2" {
		t.Fatalf("events = %+v", events)
	}
}

func TestReadSSECRLF(t *testing.T) {
	events := collectSSE(t, "data: x\r\n\r\n")
	if len(events) != 1 || events[0].data != "x" {
		t.Fatalf("events = %+v", events)
	}
}

func TestReadSSEDanglingEventAtEOF(t *testing.T) {
	events := collectSSE(t, "data: tail")
	if len(events) != 1 || events[0].data != "tail" {
		t.Fatalf("events = %+v", events)
	}
}

func TestReadSSEStop(t *testing.T) {
	var seen int
	err := readSSE(strings.NewReader("data: a\n\ndata: b\n\ndata: c\n\n"), func(ev sseEvent) error {
		seen++
		if ev.data == "b" {
			return errStopStream
		}
		return nil
	})
	if err != nil {
		t.Fatalf("readSSE() error: %v", err)
	}
	if seen != 2 {
		t.Fatalf("seen = %d, want reader to stop after the terminal event", seen)
	}
}

func TestReadSSEHandlerError(t *testing.T) {
	wantErr := errors.New("boom")
	err := readSSE(strings.NewReader("data: a\n\n"), func(sseEvent) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want handler error", err)
	}
}

func TestFormatApplyAnthropic(t *testing.T) {
	f := LookupFormat(FormatAnthropic)
	turn := f.Apply("You are terse.", "Fix the bug.")
	if turn.User != "\n\nHuman: Fix the bug.\n\nAssistant:" {
		t.Fatalf("User = %q", turn.User)
	}
	if turn.First != "You are terse.\n\nHuman: Fix the bug.\n\nAssistant:" {
		t.Fatalf("First = %q", turn.First)
	}
	if len(f.Stops) != 1 || f.Stops[0] != "Human:" {
		t.Fatalf("Stops = %v", f.Stops)
	}
}

func TestFormatApplyLlama2FirstUsesRawMessage(t *testing.T) {
	f := LookupFormat(FormatLlama2)
	turn := f.Apply("sys", "msg")
	if turn.First != "<s>[INST] <<SYS>>\nsys\n<</SYS>>\n\nmsg [/INST]" {
		t.Fatalf("First = %q", turn.First)
	}
}

func TestLookupFormatUnknownFallsBack(t *testing.T) {
	f := LookupFormat("mystery")
	if f.User != formats[FormatAlpaca].User {
		t.Fatalf("unknown format did not fall back to alpaca")
	}
}
