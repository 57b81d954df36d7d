package taskrecords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gigchain/backend/internal/middleware"
	"github.com/gigchain/backend/internal/models"
)

// maxDeliverableBytes caps a single deliverable upload.
const maxDeliverableBytes = 32 << 20

// DeliverableStore stores task outcome attachments. Implemented by the MinIO
// store; nil disables the upload endpoint.
type DeliverableStore interface {
	Put(ctx context.Context, recordID uuid.UUID, filename string, r io.Reader, size int64, contentType string) (string, error)
}

type Handler struct {
	svc          Service
	deliverables DeliverableStore
	log          *slog.Logger
}

func NewHandler(svc Service, deliverables DeliverableStore, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, deliverables: deliverables, log: log}
}

type createRecordRequest struct {
	ProjectID          string `json:"project_id"`
	FreelancerID       string `json:"freelancer_id"`
	Completed          bool   `json:"completed"`
	OutcomeDescription string `json:"outcome_description"`
}

type rateRecordRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

// Create handles POST /api/v1/records.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		http.Error(w, `{"error":"invalid project_id"}`, http.StatusBadRequest)
		return
	}
	freelancerID, err := uuid.Parse(req.FreelancerID)
	if err != nil {
		http.Error(w, `{"error":"invalid freelancer_id"}`, http.StatusBadRequest)
		return
	}

	rec, err := h.svc.CreateTaskRecord(r.Context(), CreateTaskRecordInput{
		ProjectID:          projectID,
		FreelancerID:       freelancerID,
		Completed:          req.Completed,
		OutcomeDescription: req.OutcomeDescription,
	}, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GetByProject handles GET /api/v1/records/project/{id}.
func (h *Handler) GetByProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}
	rec, err := h.svc.GetByProjectID(r.Context(), projectID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if rec == nil {
		http.Error(w, `{"error":"no task record for project"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListForClient handles GET /api/v1/records/client, the caller's records as client.
func (h *Handler) ListForClient(w http.ResponseWriter, r *http.Request) {
	h.listOwn(w, r, h.svc.ListByClient)
}

// ListForFreelancer handles GET /api/v1/records/freelancer, the caller's records as freelancer.
func (h *Handler) ListForFreelancer(w http.ResponseWriter, r *http.Request) {
	h.listOwn(w, r, h.svc.ListByFreelancer)
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request, list func(context.Context, uuid.UUID) ([]*models.TaskRecord, error)) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	recs, err := list(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if recs == nil {
		recs = []*models.TaskRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// Rate handles POST /api/v1/records/{id}/rating.
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	recordID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid record id"}`, http.StatusBadRequest)
		return
	}
	var req rateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		http.Error(w, `{"error":"rating must be between 1 and 5"}`, http.StatusBadRequest)
		return
	}

	rec, err := h.svc.UpdateRating(r.Context(), recordID, RatingInput{Rating: req.Rating, Comment: req.Comment}, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// UploadDeliverable handles POST /api/v1/records/{id}/deliverables (multipart).
// Only the record's client or freelancer may attach files.
func (h *Handler) UploadDeliverable(w http.ResponseWriter, r *http.Request) {
	if h.deliverables == nil {
		http.Error(w, `{"error":"deliverable storage is not configured"}`, http.StatusNotImplemented)
		return
	}
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	recordID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid record id"}`, http.StatusBadRequest)
		return
	}

	record, err := h.findRecord(r.Context(), recordID, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxDeliverableBytes); err != nil {
		http.Error(w, `{"error":"invalid multipart body"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"missing file field"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	uri, err := h.deliverables.Put(r.Context(), record.ID, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		h.log.Error("deliverable upload failed", "record_id", record.ID, "error", err)
		http.Error(w, `{"error":"upload failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"uri": uri})
}

// findRecord loads a record by id and checks the caller participates in it.
func (h *Handler) findRecord(ctx context.Context, recordID, userID uuid.UUID) (*models.TaskRecord, error) {
	rec, err := h.svc.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: task record %s", ErrNotFound, recordID)
	}
	if rec.ClientID != userID && rec.FreelancerID != userID {
		return nil, fmt.Errorf("%w: caller does not participate in this task record", ErrForbidden)
	}
	return rec, nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.log.Error("task record operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
