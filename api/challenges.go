package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/internal/match"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
)

// SubmissionReviewer applies a human review to a stored submission.
type SubmissionReviewer interface {
	Apply(ctx context.Context, matchID int64, review *match.Review) (*models.ChallengeSubmission, error)
}

type ChallengesHandler struct {
	matches    repository.MatchRepo
	challenges repository.ChallengeRepo
	reviewer   SubmissionReviewer
	queue      Enqueuer
}

func NewChallengesHandler(mr repository.MatchRepo, cr repository.ChallengeRepo, rev SubmissionReviewer, queue Enqueuer) *ChallengesHandler {
	return &ChallengesHandler{matches: mr, challenges: cr, reviewer: rev, queue: queue}
}

type submitRequest struct {
	Content string `json:"content"`
}

// Submit stores the candidate's challenge work and schedules automatic
// grading. Resubmitting replaces the content.
func (h *ChallengesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(r, "match_id")
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	m, err := h.matches.GetMatch(ctx, matchID)
	if err != nil {
		http.Error(w, "failed to load match", http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if _, err := h.challenges.CreateSubmission(ctx, matchID, req.Content); err != nil {
		http.Error(w, "failed to store submission", http.StatusInternalServerError)
		return
	}

	payload := map[string]int64{"match_id": matchID}
	if err := enqueue(ctx, h.queue, jobs.TypeAutoGrade, payload); err != nil {
		logger.Warn("enqueue autograde", slog.Int64("match_id", matchID), slog.Any("err", err))
	}

	writeJSON(w, map[string]string{"status": "submitted"}, http.StatusAccepted)
}

type challengeResponseRequest struct {
	RoleSlug string `json:"role_slug"`
	Email    string `json:"email"`
	Response string `json:"response"`
}

// Response records the candidate's accept/decline on the match found by role
// slug and engineer email. This endpoint is open: candidates follow an
// emailed link, not a session.
func (h *ChallengesHandler) Response(w http.ResponseWriter, r *http.Request) {
	var req challengeResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.RoleSlug = strings.TrimSpace(req.RoleSlug)
	req.Email = strings.TrimSpace(req.Email)
	if req.RoleSlug == "" || req.Email == "" {
		http.Error(w, "role_slug and email are required", http.StatusBadRequest)
		return
	}
	if req.Response != models.ChallengeAccepted && req.Response != models.ChallengeDeclined {
		http.Error(w, "response must be accepted or declined", http.StatusBadRequest)
		return
	}

	found, err := h.matches.SetChallengeResponse(r.Context(), req.RoleSlug, req.Email, req.Response, time.Now().UnixMilli())
	if err != nil {
		http.Error(w, "failed to record response", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "no match for role and email", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]string{"status": "recorded"}, http.StatusOK)
}

// Review merges the human grade into the submission.
func (h *ChallengesHandler) Review(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(r, "match_id")
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	var review match.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	sub, err := h.reviewer.Apply(r.Context(), matchID, &review)
	if err != nil {
		switch {
		case errors.Is(err, match.ErrInvalidReview):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, match.ErrSubmissionNotFound):
			http.Error(w, "no submission for match", http.StatusNotFound)
		default:
			logger.Error("review submission", slog.Int64("match_id", matchID), slog.Any("err", err))
			http.Error(w, "failed to store review", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, sub, http.StatusOK)
}
