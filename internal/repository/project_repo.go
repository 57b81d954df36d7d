package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigchain/backend/internal/models"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, client_id, freelancer_id, title, description, budget_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, p.ID, p.ClientID, p.FreelancerID, p.Title, p.Description, p.BudgetCents, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns (nil, nil) when no project matches.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, client_id, freelancer_id, title, description, budget_cents, status, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.ClientID, &p.FreelancerID, &p.Title, &p.Description, &p.BudgetCents, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *models.Project) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE projects SET client_id = $2, freelancer_id = $3, title = $4, description = $5, budget_cents = $6, status = $7, updated_at = now()
		WHERE id = $1
	`, p.ID, p.ClientID, p.FreelancerID, p.Title, p.Description, p.BudgetCents, p.Status)
	return err
}

// UpdateStatus sets only the status and refreshes updated_at.
func (r *ProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	return err
}

func (r *ProjectRepo) ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, freelancer_id, title, description, budget_cents, status, created_at, updated_at
		FROM projects WHERE client_id = $1 ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

func (r *ProjectRepo) ListOpen(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, freelancer_id, title, description, budget_cents, status, created_at, updated_at
		FROM projects WHERE status = $1 ORDER BY created_at DESC
	`, models.ProjectStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

func scanProjects(rows pgx.Rows) ([]*models.Project, error) {
	var list []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.FreelancerID, &p.Title, &p.Description, &p.BudgetCents, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
