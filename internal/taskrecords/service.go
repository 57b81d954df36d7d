package taskrecords

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gigchain/backend/internal/chain"
	"github.com/gigchain/backend/internal/models"
	"github.com/gigchain/backend/internal/observability"
)

// Error kinds surfaced to callers. Specific context is wrapped around them
// with fmt.Errorf("%w: ...") and matched with errors.Is; anything else coming
// out of the service is an internal error.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// Blockchain registration is best-effort: at most anchorAttempts calls with
// sleeps of 2s then 4s between them.
const anchorAttempts = 3

// ProjectStore is the project persistence the service consumes.
// Absent rows are (nil, nil), never an error.
type ProjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// RecordStore is the task-record persistence the service consumes.
// Absent rows are (nil, nil), never an error.
type RecordStore interface {
	Create(ctx context.Context, rec *models.TaskRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TaskRecord, error)
	GetByProjectID(ctx context.Context, projectID uuid.UUID) (*models.TaskRecord, error)
	ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*models.TaskRecord, error)
	ListByFreelancerID(ctx context.Context, freelancerID uuid.UUID) ([]*models.TaskRecord, error)
	UpdateRating(ctx context.Context, rec *models.TaskRecord) error
}

// EnqueueAnchorRetryFunc schedules a background re-registration for a record
// created without on-chain fields. Typically a closure over river.Client.Insert;
// nil disables deferred anchoring.
type EnqueueAnchorRetryFunc func(ctx context.Context, recordID uuid.UUID) error

type CreateTaskRecordInput struct {
	ProjectID          uuid.UUID
	FreelancerID       uuid.UUID
	Completed          bool
	OutcomeDescription string
}

type RatingInput struct {
	Rating int
	// Comment nil leaves the stored comment untouched; a blank string (after
	// trimming) clears it.
	Comment *string
}

type Service interface {
	CreateTaskRecord(ctx context.Context, in CreateTaskRecordInput, requesterID uuid.UUID) (*models.TaskRecord, error)
	// GetByProjectID and GetByID return (nil, nil) when no record matches.
	GetByProjectID(ctx context.Context, projectID uuid.UUID) (*models.TaskRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TaskRecord, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.TaskRecord, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.TaskRecord, error)
	UpdateRating(ctx context.Context, recordID uuid.UUID, in RatingInput, requesterID uuid.UUID) (*models.TaskRecord, error)
}

type service struct {
	projects           ProjectStore
	records            RecordStore
	registrar          chain.Registrar
	enqueueAnchorRetry EnqueueAnchorRetryFunc
	metrics            *observability.Registry
	log                *slog.Logger
	sleep              func(time.Duration)
}

// NewService wires the lifecycle manager. enqueueAnchorRetry may be nil.
func NewService(
	projects ProjectStore,
	records RecordStore,
	registrar chain.Registrar,
	enqueueAnchorRetry EnqueueAnchorRetryFunc,
	metrics *observability.Registry,
	log *slog.Logger,
) *service {
	if metrics == nil {
		metrics = observability.NewRegistry()
	}
	if log == nil {
		log = slog.Default()
	}
	return &service{
		projects:           projects,
		records:            records,
		registrar:          registrar,
		enqueueAnchorRetry: enqueueAnchorRetry,
		metrics:            metrics,
		log:                log,
		sleep:              time.Sleep,
	}
}

var _ Service = (*service)(nil)

// CreateTaskRecord validates the project, attempts blockchain registration,
// inserts the record, and transitions the project to its terminal status.
// Only the insert can fail the call once validation has passed: registration
// and the status update are soft steps.
func (s *service) CreateTaskRecord(ctx context.Context, in CreateTaskRecordInput, requesterID uuid.UUID) (*models.TaskRecord, error) {
	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, in.ProjectID)
	}
	if project.Status != models.ProjectStatusInProgress {
		return nil, fmt.Errorf("%w: project %s has status %q, task records require %q",
			ErrValidation, in.ProjectID, project.Status, models.ProjectStatusInProgress)
	}
	if project.ClientID != requesterID {
		return nil, fmt.Errorf("%w: only the project client may record the task outcome", ErrForbidden)
	}

	existing, err := s.records.GetByProjectID(ctx, in.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("check existing record: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: project %s already has a task record", ErrConflict, in.ProjectID)
	}

	anchored := s.registerOnChain(ctx, chain.RecordRequest{
		ProjectID:          in.ProjectID,
		FreelancerID:       in.FreelancerID,
		ClientID:           requesterID,
		Completed:          in.Completed,
		OutcomeDescription: in.OutcomeDescription,
	})

	rec := &models.TaskRecord{
		ID:                 uuid.New(),
		ProjectID:          in.ProjectID,
		FreelancerID:       in.FreelancerID,
		ClientID:           requesterID,
		Completed:          in.Completed,
		OutcomeDescription: in.OutcomeDescription,
	}
	if anchored != nil {
		rec.OnChainTxHash = &anchored.TxHash
		rec.OnChainTaskID = &anchored.TaskID
	}

	if err := s.records.Create(ctx, rec); err != nil {
		// The unique index on project_id closes the check-then-insert window.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: project %s already has a task record", ErrConflict, in.ProjectID)
		}
		return nil, fmt.Errorf("insert task record: %w", err)
	}
	s.metrics.IncCounter("task_records_created_total", nil, 1)

	status := models.ProjectStatusCompleted
	if !in.Completed {
		status = models.ProjectStatusCancelled
	}
	if err := s.projects.UpdateStatus(ctx, project.ID, status); err != nil {
		// The record is the durable source of truth; status drift is
		// recoverable and must not fail the call.
		s.log.Error("project status update failed after task record insert",
			"project_id", project.ID, "status", status, "error", err)
	}

	if anchored == nil && s.enqueueAnchorRetry != nil {
		if err := s.enqueueAnchorRetry(ctx, rec.ID); err != nil {
			s.log.Warn("enqueue anchor retry failed", "record_id", rec.ID, "error", err)
		}
	}

	return rec, nil
}

// registerOnChain makes up to anchorAttempts registrar calls, sleeping
// 1<<attempt seconds between them. Returns nil when every attempt failed.
func (s *service) registerOnChain(ctx context.Context, req chain.RecordRequest) *chain.RecordResult {
	for attempt := 1; attempt <= anchorAttempts; attempt++ {
		s.metrics.IncCounter("anchor_attempts_total", nil, 1)
		result, err := s.registrar.Record(ctx, req)
		if err == nil {
			return result
		}
		s.log.Warn("blockchain registration attempt failed",
			"project_id", req.ProjectID, "attempt", attempt, "error", err)
		if attempt < anchorAttempts {
			s.sleep(time.Duration(1<<attempt) * time.Second)
		}
	}
	s.metrics.IncCounter("anchor_failures_total", nil, 1)
	s.log.Error("blockchain registration gave up, creating record without on-chain fields",
		"project_id", req.ProjectID, "attempts", anchorAttempts)
	return nil
}

func (s *service) GetByProjectID(ctx context.Context, projectID uuid.UUID) (*models.TaskRecord, error) {
	return s.records.GetByProjectID(ctx, projectID)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.TaskRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.TaskRecord, error) {
	return s.records.ListByClientID(ctx, clientID)
}

func (s *service) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.TaskRecord, error) {
	return s.records.ListByFreelancerID(ctx, freelancerID)
}

// UpdateRating sets the write-once rating. unset -> set is the only legal
// transition; re-rating is a conflict even with the same value.
func (s *service) UpdateRating(ctx context.Context, recordID uuid.UUID, in RatingInput, requesterID uuid.UUID) (*models.TaskRecord, error) {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("fetch task record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: task record %s", ErrNotFound, recordID)
	}
	if rec.ClientID != requesterID {
		return nil, fmt.Errorf("%w: only the client may rate the task", ErrForbidden)
	}
	if rec.Rating != nil {
		return nil, fmt.Errorf("%w: task record %s is already rated", ErrConflict, recordID)
	}
	if !rec.Completed {
		return nil, fmt.Errorf("%w: only completed tasks can be rated", ErrValidation)
	}

	rating := in.Rating
	rec.Rating = &rating
	if in.Comment != nil {
		trimmed := strings.TrimSpace(*in.Comment)
		if trimmed == "" {
			rec.RatingComment = nil
		} else {
			rec.RatingComment = &trimmed
		}
	}

	if err := s.records.UpdateRating(ctx, rec); err != nil {
		return nil, fmt.Errorf("update rating: %w", err)
	}
	s.metrics.IncCounter("task_ratings_set_total", nil, 1)
	return rec, nil
}
