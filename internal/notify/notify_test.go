package notify

import (
	"bytes"
	"strings"
	"testing"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	if _, ok := r.Last(); ok {
		t.Error("Empty recorder should have no last event")
	}

	Success(r, "Copied")
	Warning(r, "Nothing to copy")

	events := r.Events()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	last, _ := r.Last()
	if last.Level != LevelWarning || last.Message != "Nothing to copy" {
		t.Errorf("Unexpected last event %+v", last)
	}
}

func TestMultiAndPrinter(t *testing.T) {
	var buf bytes.Buffer
	r := &Recorder{}
	var seen int

	m := Multi{r, Printer{W: &buf}, nil, Func(func(Event) { seen++ })}
	Error(m, "clipboard unavailable")

	if len(r.Events()) != 1 || seen != 1 {
		t.Error("Every notifier should receive the event")
	}
	if !strings.Contains(buf.String(), "clipboard unavailable") {
		t.Errorf("Printer output %q should contain the message", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	Success(Discard, "ignored")
}
