package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestClientRecord(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"transaction_hash": "0xfeed",
			"task_id":          "17",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	req := RecordRequest{
		ProjectID:          uuid.New(),
		FreelancerID:       uuid.New(),
		ClientID:           uuid.New(),
		Completed:          true,
		OutcomeDescription: "shipped",
	}
	result, err := c.Record(context.Background(), req)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if result.TxHash != "0xfeed" || result.TaskID != "17" {
		t.Errorf("result: got %+v", result)
	}
	if gotPath != "/v1/anchors" {
		t.Errorf("path: got %q, want /v1/anchors", gotPath)
	}
	if gotPayload["project_id"] != req.ProjectID.String() {
		t.Errorf("payload project_id: got %v", gotPayload["project_id"])
	}
	if gotPayload["completed"] != true {
		t.Errorf("payload completed: got %v", gotPayload["completed"])
	}
}

func TestClientRecordGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Record(context.Background(), RecordRequest{}); err == nil {
		t.Fatal("non-2xx must be an error")
	}
}

func TestClientRecordEmptyHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"transaction_hash": ""})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Record(context.Background(), RecordRequest{}); err == nil {
		t.Fatal("empty transaction hash must be an error")
	}
}
