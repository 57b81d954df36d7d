package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gigchain/backend/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)

// Store is the project persistence the service consumes. Absent rows are
// (nil, nil), never an error.
type Store interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error)
	ListOpen(ctx context.Context) ([]*models.Project, error)
}

type CreateProjectInput struct {
	Title       string
	Description string
	BudgetCents int64
}

type Service interface {
	Create(ctx context.Context, in CreateProjectInput, clientID uuid.UUID) (*models.Project, error)
	// Get returns (nil, nil) when the project does not exist.
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error)
	ListOpen(ctx context.Context) ([]*models.Project, error)
	Publish(ctx context.Context, projectID, requesterID uuid.UUID) (*models.Project, error)
	Start(ctx context.Context, projectID, freelancerID, requesterID uuid.UUID) (*models.Project, error)
}

type service struct {
	store Store
}

func NewService(store Store) *service {
	return &service{store: store}
}

var _ Service = (*service)(nil)

func (s *service) Create(ctx context.Context, in CreateProjectInput, clientID uuid.UUID) (*models.Project, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.BudgetCents <= 0 {
		return nil, fmt.Errorf("%w: budget must be positive", ErrValidation)
	}
	p := &models.Project{
		ID:          uuid.New(),
		ClientID:    clientID,
		Title:       in.Title,
		Description: in.Description,
		BudgetCents: in.BudgetCents,
		Status:      models.ProjectStatusDraft,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.store.GetByID(ctx, id)
}

func (s *service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error) {
	return s.store.ListByClientID(ctx, clientID)
}

func (s *service) ListOpen(ctx context.Context) ([]*models.Project, error) {
	return s.store.ListOpen(ctx)
}

// Publish moves a draft project to open. Owner only.
func (s *service) Publish(ctx context.Context, projectID, requesterID uuid.UUID) (*models.Project, error) {
	p, err := s.ownedProject(ctx, projectID, requesterID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProjectStatusDraft {
		return nil, fmt.Errorf("%w: project %s has status %q, publish requires %q",
			ErrValidation, projectID, p.Status, models.ProjectStatusDraft)
	}
	p.Status = models.ProjectStatusOpen
	if err := s.store.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// Start assigns a freelancer and moves an open project to in_progress. Owner only.
func (s *service) Start(ctx context.Context, projectID, freelancerID, requesterID uuid.UUID) (*models.Project, error) {
	p, err := s.ownedProject(ctx, projectID, requesterID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProjectStatusOpen {
		return nil, fmt.Errorf("%w: project %s has status %q, start requires %q",
			ErrValidation, projectID, p.Status, models.ProjectStatusOpen)
	}
	p.FreelancerID = &freelancerID
	p.Status = models.ProjectStatusInProgress
	if err := s.store.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

func (s *service) ownedProject(ctx context.Context, projectID, requesterID uuid.UUID) (*models.Project, error) {
	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}
	if p.ClientID != requesterID {
		return nil, fmt.Errorf("%w: only the project client may change it", ErrForbidden)
	}
	return p, nil
}
