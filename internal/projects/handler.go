package projects

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gigchain/backend/internal/middleware"
	"github.com/gigchain/backend/internal/models"
)

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type createProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	BudgetCents int64  `json:"budget_cents"`
}

type startProjectRequest struct {
	FreelancerID string `json:"freelancer_id"`
}

// Create handles POST /api/v1/projects.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	p, err := h.svc.Create(r.Context(), CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		BudgetCents: req.BudgetCents,
	}, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Get handles GET /api/v1/projects/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if p == nil {
		http.Error(w, `{"error":"project not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// List handles GET /api/v1/projects. ?open=true lists the open marketplace;
// otherwise the caller's own projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var (
		list []*models.Project
		err  error
	)
	if r.URL.Query().Get("open") == "true" {
		list, err = h.svc.ListOpen(r.Context())
	} else {
		list, err = h.svc.ListByClient(r.Context(), user.ID)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*models.Project{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Publish handles POST /api/v1/projects/{id}/publish.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(projectID, requesterID uuid.UUID) (*models.Project, error) {
		return h.svc.Publish(r.Context(), projectID, requesterID)
	})
}

// Start handles POST /api/v1/projects/{id}/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	freelancerID, err := uuid.Parse(req.FreelancerID)
	if err != nil {
		http.Error(w, `{"error":"invalid freelancer_id"}`, http.StatusBadRequest)
		return
	}
	h.transition(w, r, func(projectID, requesterID uuid.UUID) (*models.Project, error) {
		return h.svc.Start(r.Context(), projectID, freelancerID, requesterID)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(projectID, requesterID uuid.UUID) (*models.Project, error)) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}
	p, err := apply(projectID, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	default:
		h.log.Error("project operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
