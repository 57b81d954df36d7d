package projects

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/gigchain/backend/internal/models"
)

type mockStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.Project
}

func newMockStore(ps ...*models.Project) *mockStore {
	m := &mockStore{projects: make(map[uuid.UUID]*models.Project)}
	for _, p := range ps {
		cp := *p
		m.projects[p.ID] = &cp
	}
	return m
}

func (m *mockStore) Create(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) Update(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *mockStore) ListByClientID(_ context.Context, clientID uuid.UUID) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Project
	for _, p := range m.projects {
		if p.ClientID == clientID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) ListOpen(_ context.Context) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Project
	for _, p := range m.projects {
		if p.Status == models.ProjectStatusOpen {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func TestCreateProject(t *testing.T) {
	client := uuid.New()
	svc := NewService(newMockStore())

	p, err := svc.Create(context.Background(), CreateProjectInput{
		Title:       "API integration",
		Description: "Wire the payments API",
		BudgetCents: 150_000,
	}, client)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != models.ProjectStatusDraft {
		t.Errorf("status: got %q, want draft", p.Status)
	}
	if p.ClientID != client {
		t.Errorf("client: got %s, want %s", p.ClientID, client)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	svc := NewService(newMockStore())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateProjectInput{BudgetCents: 100}, uuid.New()); !errors.Is(err, ErrValidation) {
		t.Errorf("missing title: want ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateProjectInput{Title: "x"}, uuid.New()); !errors.Is(err, ErrValidation) {
		t.Errorf("zero budget: want ErrValidation, got %v", err)
	}
}

func TestPublishThenStart(t *testing.T) {
	client := uuid.New()
	freelancer := uuid.New()
	svc := NewService(newMockStore())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProjectInput{Title: "Logo", BudgetCents: 5000}, client)
	if err != nil {
		t.Fatal(err)
	}

	p, err = svc.Publish(ctx, p.ID, client)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if p.Status != models.ProjectStatusOpen {
		t.Errorf("status after publish: got %q, want open", p.Status)
	}

	p, err = svc.Start(ctx, p.ID, freelancer, client)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if p.Status != models.ProjectStatusInProgress {
		t.Errorf("status after start: got %q, want in_progress", p.Status)
	}
	if p.FreelancerID == nil || *p.FreelancerID != freelancer {
		t.Errorf("freelancer: got %v, want %s", p.FreelancerID, freelancer)
	}
}

func TestPublishWrongOwner(t *testing.T) {
	client := uuid.New()
	svc := NewService(newMockStore())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProjectInput{Title: "Logo", BudgetCents: 5000}, client)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Publish(ctx, p.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestStartRequiresOpen(t *testing.T) {
	client := uuid.New()
	svc := NewService(newMockStore())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProjectInput{Title: "Logo", BudgetCents: 5000}, client)
	if err != nil {
		t.Fatal(err)
	}
	// Still draft.
	if _, err := svc.Start(ctx, p.ID, uuid.New(), client); !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestPublishNotFound(t *testing.T) {
	svc := NewService(newMockStore())
	if _, err := svc.Publish(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
