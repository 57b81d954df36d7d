package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigchain/backend/internal/models"
)

type TaskRecordRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRecordRepo(pool *pgxpool.Pool) *TaskRecordRepo {
	return &TaskRecordRepo{pool: pool}
}

// Create inserts the record. The unique index on project_id makes a second
// insert for the same project fail with SQLSTATE 23505.
func (r *TaskRecordRepo) Create(ctx context.Context, t *models.TaskRecord) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO task_records (id, project_id, freelancer_id, client_id, completed, outcome_description, on_chain_tx_hash, on_chain_task_id, rating, rating_comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, t.ID, t.ProjectID, t.FreelancerID, t.ClientID, t.Completed, t.OutcomeDescription, t.OnChainTxHash, t.OnChainTaskID, t.Rating, t.RatingComment).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns (nil, nil) when no record matches.
func (r *TaskRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TaskRecord, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByProjectID returns (nil, nil) when no record matches.
func (r *TaskRecordRepo) GetByProjectID(ctx context.Context, projectID uuid.UUID) (*models.TaskRecord, error) {
	return r.getOne(ctx, `WHERE project_id = $1`, projectID)
}

func (r *TaskRecordRepo) getOne(ctx context.Context, where string, arg any) (*models.TaskRecord, error) {
	var t models.TaskRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, freelancer_id, client_id, completed, outcome_description, on_chain_tx_hash, on_chain_task_id, rating, rating_comment, created_at, updated_at
		FROM task_records `+where, arg).Scan(
		&t.ID, &t.ProjectID, &t.FreelancerID, &t.ClientID, &t.Completed, &t.OutcomeDescription,
		&t.OnChainTxHash, &t.OnChainTaskID, &t.Rating, &t.RatingComment, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRecordRepo) ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*models.TaskRecord, error) {
	return r.list(ctx, `WHERE client_id = $1`, clientID)
}

func (r *TaskRecordRepo) ListByFreelancerID(ctx context.Context, freelancerID uuid.UUID) ([]*models.TaskRecord, error) {
	return r.list(ctx, `WHERE freelancer_id = $1`, freelancerID)
}

func (r *TaskRecordRepo) list(ctx context.Context, where string, arg any) ([]*models.TaskRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, freelancer_id, client_id, completed, outcome_description, on_chain_tx_hash, on_chain_task_id, rating, rating_comment, created_at, updated_at
		FROM task_records `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.TaskRecord
	for rows.Next() {
		var t models.TaskRecord
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.FreelancerID, &t.ClientID, &t.Completed, &t.OutcomeDescription,
			&t.OnChainTxHash, &t.OnChainTaskID, &t.Rating, &t.RatingComment, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// UpdateRating persists the rating fields and refreshes updated_at.
func (r *TaskRecordRepo) UpdateRating(ctx context.Context, t *models.TaskRecord) error {
	return r.pool.QueryRow(ctx, `
		UPDATE task_records SET rating = $2, rating_comment = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, t.ID, t.Rating, t.RatingComment).Scan(&t.UpdatedAt)
}

// UpdateOnChain backfills the on-chain fields after a deferred registration.
func (r *TaskRecordRepo) UpdateOnChain(ctx context.Context, id uuid.UUID, txHash, taskID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE task_records SET on_chain_tx_hash = $2, on_chain_task_id = $3, updated_at = now()
		WHERE id = $1
	`, id, txHash, taskID)
	return err
}
