package anchor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/gigchain/backend/internal/chain"
	"github.com/gigchain/backend/internal/models"
)

type mockRecords struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.TaskRecord
}

func newMockRecords(recs ...*models.TaskRecord) *mockRecords {
	m := &mockRecords{records: make(map[uuid.UUID]*models.TaskRecord)}
	for _, r := range recs {
		cp := *r
		m.records[r.ID] = &cp
	}
	return m
}

func (m *mockRecords) GetByID(_ context.Context, id uuid.UUID) (*models.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockRecords) UpdateOnChain(_ context.Context, id uuid.UUID, txHash, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("record %s not found", id)
	}
	r.OnChainTxHash = &txHash
	r.OnChainTaskID = &taskID
	return nil
}

type fakeRegistrar struct {
	result *chain.RecordResult
	err    error
	calls  int
}

func (f *fakeRegistrar) Record(_ context.Context, _ chain.RecordRequest) (*chain.RecordResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testJob(recordID uuid.UUID) *river.Job[AnchorTaskRecordArgs] {
	return &river.Job[AnchorTaskRecordArgs]{Args: AnchorTaskRecordArgs{RecordID: recordID}}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkBackfillsOnChainFields(t *testing.T) {
	rec := &models.TaskRecord{ID: uuid.New(), ProjectID: uuid.New(), Completed: true}
	records := newMockRecords(rec)
	registrar := &fakeRegistrar{result: &chain.RecordResult{TxHash: "0xbeef", TaskID: "9"}}
	w := NewWorker(records, registrar, testLogger())

	if err := w.Work(context.Background(), testJob(rec.ID)); err != nil {
		t.Fatalf("Work: %v", err)
	}
	stored, _ := records.GetByID(context.Background(), rec.ID)
	if stored.OnChainTxHash == nil || *stored.OnChainTxHash != "0xbeef" {
		t.Errorf("tx hash: got %v, want 0xbeef", stored.OnChainTxHash)
	}
	if stored.OnChainTaskID == nil || *stored.OnChainTaskID != "9" {
		t.Errorf("task id: got %v, want 9", stored.OnChainTaskID)
	}
}

func TestWorkReturnsErrorWhenRegistrarFails(t *testing.T) {
	rec := &models.TaskRecord{ID: uuid.New(), ProjectID: uuid.New()}
	records := newMockRecords(rec)
	registrar := &fakeRegistrar{err: fmt.Errorf("gateway down")}
	w := NewWorker(records, registrar, testLogger())

	if err := w.Work(context.Background(), testJob(rec.ID)); err == nil {
		t.Fatal("registrar failure must surface so River retries the job")
	}
}

func TestWorkSkipsAlreadyAnchored(t *testing.T) {
	tx := "0xexisting"
	rec := &models.TaskRecord{ID: uuid.New(), ProjectID: uuid.New(), OnChainTxHash: &tx}
	records := newMockRecords(rec)
	registrar := &fakeRegistrar{}
	w := NewWorker(records, registrar, testLogger())

	if err := w.Work(context.Background(), testJob(rec.ID)); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if registrar.calls != 0 {
		t.Errorf("registrar must not be called for an anchored record, got %d calls", registrar.calls)
	}
}

func TestWorkMissingRecordIsNoop(t *testing.T) {
	w := NewWorker(newMockRecords(), &fakeRegistrar{}, testLogger())
	if err := w.Work(context.Background(), testJob(uuid.New())); err != nil {
		t.Fatalf("missing record must not error (nothing to retry): %v", err)
	}
}
