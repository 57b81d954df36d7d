package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCounterAccumulates(t *testing.T) {
	r := NewRegistry()
	r.IncCounter("task_records_created_total", nil, 1)
	r.IncCounter("task_records_created_total", nil, 1)
	r.IncCounter("anchor_attempts_total", map[string]string{"outcome": "failed"}, 3)

	if got := r.CounterValue("task_records_created_total", nil); got != 2 {
		t.Errorf("created counter: got %v, want 2", got)
	}
	if got := r.CounterValue("anchor_attempts_total", map[string]string{"outcome": "failed"}); got != 3 {
		t.Errorf("labelled counter: got %v, want 3", got)
	}
	if got := r.CounterValue("anchor_attempts_total", nil); got != 0 {
		t.Errorf("unlabelled variant must stay independent, got %v", got)
	}
}

func TestZeroDeltaIgnored(t *testing.T) {
	r := NewRegistry()
	r.IncCounter("noop", nil, 0)
	if len(r.Snapshot().Counters) != 0 {
		t.Error("zero delta must not create a counter")
	}
}

func TestSnapshotSorted(t *testing.T) {
	r := NewRegistry()
	r.IncCounter("b_metric", nil, 1)
	r.IncCounter("a_metric", nil, 1)

	snap := r.Snapshot()
	if len(snap.Counters) != 2 {
		t.Fatalf("counters: got %d, want 2", len(snap.Counters))
	}
	if snap.Counters[0].Name != "a_metric" || snap.Counters[1].Name != "b_metric" {
		t.Errorf("snapshot not sorted: %+v", snap.Counters)
	}
}

func TestHandlerServesJSON(t *testing.T) {
	r := NewRegistry()
	r.IncCounter("task_ratings_set_total", nil, 5)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	rr := httptest.NewRecorder()
	r.Handler()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var snap Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Counters) != 1 || snap.Counters[0].Value != 5 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}
