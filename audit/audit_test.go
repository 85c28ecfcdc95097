package audit

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher

	// Must not panic.
	p.Publish(Event{Tool: "browse", Outcome: "ok"})
	p.Close()
}

func TestEventEncoding(t *testing.T) {
	ev := Event{
		RequestID: "req-1",
		Tool:      "browse",
		Target:    "https://example.com/",
		Outcome:   "denied",
		Detail:    "private IP blocked",
		ElapsedMS: 42,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["tool"] != "browse" {
		t.Errorf("tool = %v", decoded["tool"])
	}
	if decoded["detail"] != "private IP blocked" {
		t.Errorf("detail = %v", decoded["detail"])
	}
	if decoded["elapsed_ms"] != float64(42) {
		t.Errorf("elapsed_ms = %v", decoded["elapsed_ms"])
	}
}

func TestEmptyDetailOmitted(t *testing.T) {
	data, err := json.Marshal(Event{Tool: "search", Outcome: "ok"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["detail"]; ok {
		t.Error("empty detail should be omitted")
	}
	if _, ok := decoded["target"]; ok {
		t.Error("empty target should be omitted")
	}
}
