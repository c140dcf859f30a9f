package sinks

import (
	"context"
	"testing"

	"oni-rush/server/logging"
)

func TestMemorySinkRetainsAndResets(t *testing.T) {
	sink := NewMemorySink()

	if err := sink.Write(logging.Event{Type: "a", Tick: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Write(logging.Event{Type: "b", Tick: 2}); err != nil {
		t.Fatalf("write: %v", err)
	}

	events := sink.Events()
	if len(events) != 2 || events[0].Type != "a" || events[1].Type != "b" {
		t.Fatalf("unexpected retained events: %+v", events)
	}

	sink.Reset()
	if got := len(sink.Events()); got != 0 {
		t.Fatalf("reset left %d events", got)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestMemorySinkCopiesMutableFields(t *testing.T) {
	sink := NewMemorySink()
	extra := map[string]any{"k": "v"}
	sink.Write(logging.Event{Type: "a", Extra: extra})

	extra["k"] = "mutated"

	events := sink.Events()
	if events[0].Extra["k"] != "v" {
		t.Fatalf("sink aliased caller-owned map: %v", events[0].Extra)
	}
}
