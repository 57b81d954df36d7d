package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskRecord is the durable statement of a project's outcome. At most one
// record exists per project (unique index on project_id). The on-chain fields
// stay nil when blockchain registration did not succeed; Rating is write-once.
type TaskRecord struct {
	ID                 uuid.UUID `json:"id"`
	ProjectID          uuid.UUID `json:"project_id"`
	FreelancerID       uuid.UUID `json:"freelancer_id"`
	ClientID           uuid.UUID `json:"client_id"`
	Completed          bool      `json:"completed"`
	OutcomeDescription string    `json:"outcome_description,omitempty"`
	OnChainTxHash      *string   `json:"on_chain_tx_hash,omitempty"`
	OnChainTaskID      *string   `json:"on_chain_task_id,omitempty"`
	Rating             *int      `json:"rating,omitempty"`
	RatingComment      *string   `json:"rating_comment,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
