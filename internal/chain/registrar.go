package chain

import (
	"context"

	"github.com/google/uuid"
)

// RecordRequest carries a task outcome to be anchored on the ledger.
type RecordRequest struct {
	ProjectID          uuid.UUID
	FreelancerID       uuid.UUID
	ClientID           uuid.UUID
	Completed          bool
	OutcomeDescription string
}

// RecordResult is the gateway's receipt for an anchored outcome.
type RecordResult struct {
	TxHash string
	TaskID string
}

// Registrar anchors a task outcome on an external blockchain. It gives no
// latency or idempotency guarantee; callers supply their own retry policy and
// must treat failure as non-fatal.
type Registrar interface {
	Record(ctx context.Context, req RecordRequest) (*RecordResult, error)
}
