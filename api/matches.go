package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/garnizeh/curator/internal/extract"
	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/internal/match"
	"github.com/garnizeh/curator/internal/notify"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
)

// MatchComputer is the slice of the match engine the HTTP layer calls
// synchronously.
type MatchComputer interface {
	ComputeForRole(ctx context.Context, roleID int64, engineerIDs []int64) (*match.Result, error)
	ComputeAdHoc(ctx context.Context, jdURL string, engineerIDs []int64, jd *models.BeautifiedJD) (*match.Result, error)
	AttachNotes(ctx context.Context, batchID, notes string)
}

type MatchesHandler struct {
	computer   MatchComputer
	matches    repository.MatchRepo
	beautifier Beautifier
	extractor  jdExtractor
	queue      Enqueuer
	notifier   notify.Notifier
}

// jdExtractor narrows extract.Extractor for ad-hoc JD fetching.
type jdExtractor interface {
	FromURL(ctx context.Context, rawURL string) (*extract.JobPosting, error)
}

func NewMatchesHandler(c MatchComputer, mr repository.MatchRepo, b Beautifier, ex jdExtractor, queue Enqueuer, n notify.Notifier) *MatchesHandler {
	return &MatchesHandler{computer: c, matches: mr, beautifier: b, extractor: ex, queue: queue, notifier: n}
}

type computeRequest struct {
	EngineerIDs []int64 `json:"engineer_ids"`
}

// ComputeForRole runs a synchronous match computation for a stored role.
func (h *MatchesHandler) ComputeForRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid role id", http.StatusBadRequest)
		return
	}

	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(req.EngineerIDs) == 0 {
		http.Error(w, "engineer_ids is required", http.StatusBadRequest)
		return
	}

	result, err := h.computer.ComputeForRole(r.Context(), roleID, req.EngineerIDs)
	if err != nil {
		switch {
		case errors.Is(err, match.ErrRoleNotFound):
			http.Error(w, "role not found", http.StatusNotFound)
		case errors.Is(err, match.ErrRoleNotMatchable):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logger.Error("compute for role", slog.Int64("role_id", roleID), slog.Any("err", err))
			http.Error(w, "match computation failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// RecomputeForEngineer schedules a background recomputation across all
// active roles.
func (h *MatchesHandler) RecomputeForEngineer(w http.ResponseWriter, r *http.Request) {
	engineerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid engineer id", http.StatusBadRequest)
		return
	}

	payload := map[string]int64{"engineer_id": engineerID}
	if err := enqueue(r.Context(), h.queue, jobs.TypeRecomputeEngineer, payload); err != nil {
		logger.Error("enqueue recompute", slog.Int64("engineer_id", engineerID), slog.Any("err", err))
		http.Error(w, "failed to schedule recomputation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "recomputing"}, http.StatusAccepted)
}

func (h *MatchesHandler) ListForRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid role id", http.StatusBadRequest)
		return
	}

	ms, err := h.matches.ListMatchesForRole(r.Context(), roleID)
	if err != nil {
		http.Error(w, "failed to list matches", http.StatusInternalServerError)
		return
	}
	if ms == nil {
		ms = []models.Match{}
	}

	writeJSON(w, map[string]any{"items": ms}, http.StatusOK)
}

func (h *MatchesHandler) ListForEngineer(w http.ResponseWriter, r *http.Request) {
	engineerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid engineer id", http.StatusBadRequest)
		return
	}

	ms, err := h.matches.ListMatchesForEngineer(r.Context(), engineerID)
	if err != nil {
		http.Error(w, "failed to list matches", http.StatusInternalServerError)
		return
	}
	if ms == nil {
		ms = []models.Match{}
	}

	writeJSON(w, map[string]any{"items": ms}, http.StatusOK)
}

type adhocRequest struct {
	JDURL       string               `json:"jd_url"`
	EngineerIDs []int64              `json:"engineer_ids"`
	JD          *models.BeautifiedJD `json:"jd,omitempty"`
	Notes       string               `json:"notes,omitempty"`
}

// ComputeAdHoc scores explicit candidates against an external posting. A
// caller-supplied pre-extracted JD skips the fetch entirely.
func (h *MatchesHandler) ComputeAdHoc(w http.ResponseWriter, r *http.Request) {
	var req adhocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.JDURL = strings.TrimSpace(req.JDURL)
	if len(req.EngineerIDs) == 0 {
		http.Error(w, "engineer_ids is required", http.StatusBadRequest)
		return
	}
	if req.JDURL == "" && req.JD == nil {
		http.Error(w, "jd_url or jd is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	jd := req.JD
	if jd == nil {
		posting, err := h.extractor.FromURL(ctx, req.JDURL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		jd, err = h.beautifier.BeautifyJD(ctx, posting.Title, posting.RawText)
		if err != nil {
			http.Error(w, "beautification failed", http.StatusInternalServerError)
			return
		}
	}

	result, err := h.computer.ComputeAdHoc(ctx, req.JDURL, req.EngineerIDs, jd)
	if err != nil {
		logger.Error("adhoc compute", slog.String("jd_url", req.JDURL), slog.Any("err", err))
		http.Error(w, "match computation failed", http.StatusInternalServerError)
		return
	}

	if notes := strings.TrimSpace(req.Notes); notes != "" {
		h.computer.AttachNotes(ctx, result.BatchID, notes)
	}

	writeJSON(w, result, http.StatusOK)
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

// Decision records the company's call on one match. A decision is final: the
// match becomes terminal and survives every later recomputation.
func (h *MatchesHandler) Decision(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Decision != models.DecisionMovedForward && req.Decision != models.DecisionPassed {
		http.Error(w, "decision must be moved_forward or passed", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	m, err := h.matches.GetMatch(ctx, id)
	if err != nil {
		http.Error(w, "failed to load match", http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if m.Decision != nil {
		http.Error(w, "decision already recorded", http.StatusConflict)
		return
	}

	now := time.Now().UnixMilli()
	if err := h.matches.SetMatchDecision(ctx, id, req.Decision, now); err != nil {
		http.Error(w, "failed to record decision", http.StatusInternalServerError)
		return
	}

	if req.Decision == models.DecisionMovedForward {
		notify.Fire(ctx, h.notifier, logger, notify.Event{
			Kind:    notify.KindMovedForward,
			Subject: "match",
			Data:    map[string]any{"match_id": id, "engineer_id": m.EngineerID},
		})
	}

	m.Decision = &req.Decision
	m.DecisionAt = &now
	writeJSON(w, m, http.StatusOK)
}
