package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/garnizeh/curator/internal/extract"
	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
	"github.com/google/uuid"
)

// Beautifier turns an extracted posting into a structured JD.
type Beautifier interface {
	BeautifyJD(ctx context.Context, title, rawText string) (*models.BeautifiedJD, error)
}

type RolesHandler struct {
	roles      repository.RoleRepo
	extractor  *extract.Extractor
	beautifier Beautifier
	queue      Enqueuer
}

func NewRolesHandler(rr repository.RoleRepo, ex *extract.Extractor, b Beautifier, queue Enqueuer) *RolesHandler {
	return &RolesHandler{roles: rr, extractor: ex, beautifier: b, queue: queue}
}

type createRoleRequest struct {
	CompanyID int64  `json:"company_id"`
	Title     string `json:"title,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	RawText   string `json:"raw_text,omitempty"`
}

type createRoleResponse struct {
	ID         int64  `json:"id"`
	PublicSlug string `json:"public_slug"`
	Status     string `json:"status"`
}

// CreateRole stores a draft role and schedules beautification. The worker
// extracts, beautifies, and activates it.
func (h *RolesHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.CompanyID <= 0 {
		http.Error(w, "company_id is required", http.StatusBadRequest)
		return
	}
	req.SourceURL = strings.TrimSpace(req.SourceURL)
	req.RawText = strings.TrimSpace(req.RawText)
	if req.SourceURL == "" && req.RawText == "" {
		http.Error(w, "one of source_url or raw_text is required", http.StatusBadRequest)
		return
	}

	role := &models.Role{
		CompanyID:  req.CompanyID,
		Title:      strings.TrimSpace(req.Title),
		Status:     models.RoleDraft,
		PublicSlug: uuid.NewString(),
	}
	if req.SourceURL != "" {
		role.SourceURL = &req.SourceURL
	}
	if req.RawText != "" {
		role.RawText = &req.RawText
	}

	ctx := r.Context()
	id, err := h.roles.CreateRole(ctx, role)
	if err != nil {
		http.Error(w, "failed to create role", http.StatusInternalServerError)
		return
	}

	if err := enqueue(ctx, h.queue, jobs.TypeBeautifyRole, map[string]int64{"role_id": id}); err != nil {
		logger.Error("enqueue role beautify", slog.Int64("role_id", id), slog.Any("err", err))
		http.Error(w, "failed to schedule beautification", http.StatusInternalServerError)
		return
	}

	writeJSON(w, createRoleResponse{ID: id, PublicSlug: role.PublicSlug, Status: role.Status}, http.StatusCreated)
}

type extractRequest struct {
	URL     string `json:"url,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

type extractResponse struct {
	Posting      *extract.JobPosting  `json:"posting"`
	BeautifiedJD *models.BeautifiedJD `json:"beautified_jd"`
}

// ExtractRole runs extraction and beautification synchronously without
// storing anything.
func (h *RolesHandler) ExtractRole(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	req.RawText = strings.TrimSpace(req.RawText)
	if req.URL == "" && req.RawText == "" {
		http.Error(w, "one of url or raw_text is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	var (
		posting *extract.JobPosting
		err     error
	)
	if req.URL != "" {
		posting, err = h.extractor.FromURL(ctx, req.URL)
	} else {
		posting, err = h.extractor.FromText(req.RawText)
	}
	if err != nil {
		if errors.Is(err, extract.ErrBadSource) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "extraction failed", http.StatusInternalServerError)
		return
	}

	jd, err := h.beautifier.BeautifyJD(ctx, posting.Title, posting.RawText)
	if err != nil {
		http.Error(w, "beautification failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, extractResponse{Posting: posting, BeautifiedJD: jd}, http.StatusOK)
}

type roleStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus pauses, closes, or reactivates a role. Reactivation requires a
// beautified JD so the role can re-enter the matching pool.
func (h *RolesHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid role id", http.StatusBadRequest)
		return
	}

	var req roleStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	switch req.Status {
	case models.RoleActive, models.RolePaused, models.RoleClosed:
	default:
		http.Error(w, "status must be active, paused, or closed", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	role, err := h.roles.GetRole(ctx, id)
	if err != nil {
		http.Error(w, "failed to load role", http.StatusInternalServerError)
		return
	}
	if role == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if req.Status == models.RoleActive && role.BeautifiedJD == nil {
		http.Error(w, "role has no beautified job description yet", http.StatusConflict)
		return
	}

	if err := h.roles.SetRoleStatus(ctx, id, req.Status); err != nil {
		http.Error(w, "failed to update role", http.StatusInternalServerError)
		return
	}

	role.Status = req.Status
	writeJSON(w, role, http.StatusOK)
}

// GetBySlug is the public posting view. Only active roles are visible.
func (h *RolesHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := muxVar(r, "slug")
	if slug == "" {
		http.Error(w, "invalid slug", http.StatusBadRequest)
		return
	}

	role, err := h.roles.GetRoleBySlug(r.Context(), slug)
	if err != nil {
		http.Error(w, "failed to load role", http.StatusInternalServerError)
		return
	}
	if role == nil || role.Status != models.RoleActive {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, role, http.StatusOK)
}
