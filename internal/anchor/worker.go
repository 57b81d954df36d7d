package anchor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/gigchain/backend/internal/chain"
	"github.com/gigchain/backend/internal/models"
)

// AnchorTaskRecordArgs is enqueued when create-time blockchain registration
// failed on every attempt. River's own retry policy governs re-runs.
type AnchorTaskRecordArgs struct {
	RecordID uuid.UUID `json:"record_id"`
}

func (AnchorTaskRecordArgs) Kind() string { return "anchor_task_record" }

// RecordStore is the narrow record access the worker needs.
type RecordStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.TaskRecord, error)
	UpdateOnChain(ctx context.Context, id uuid.UUID, txHash, taskID string) error
}

type Worker struct {
	river.WorkerDefaults[AnchorTaskRecordArgs]
	records   RecordStore
	registrar chain.Registrar
	log       *slog.Logger
}

func NewWorker(records RecordStore, registrar chain.Registrar, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{records: records, registrar: registrar, log: log}
}

func (w *Worker) Work(ctx context.Context, job *river.Job[AnchorTaskRecordArgs]) error {
	rec, err := w.records.GetByID(ctx, job.Args.RecordID)
	if err != nil {
		return fmt.Errorf("fetch task record: %w", err)
	}
	if rec == nil {
		w.log.Warn("anchor retry: task record no longer exists", "record_id", job.Args.RecordID)
		return nil
	}
	if rec.OnChainTxHash != nil {
		// Already anchored, nothing to backfill.
		return nil
	}

	result, err := w.registrar.Record(ctx, chain.RecordRequest{
		ProjectID:          rec.ProjectID,
		FreelancerID:       rec.FreelancerID,
		ClientID:           rec.ClientID,
		Completed:          rec.Completed,
		OutcomeDescription: rec.OutcomeDescription,
	})
	if err != nil {
		return fmt.Errorf("anchor task record: %w", err)
	}

	if err := w.records.UpdateOnChain(ctx, rec.ID, result.TxHash, result.TaskID); err != nil {
		return fmt.Errorf("backfill on-chain fields: %w", err)
	}
	w.log.Info("task record anchored by background retry",
		"record_id", rec.ID, "tx_hash", result.TxHash)
	return nil
}
