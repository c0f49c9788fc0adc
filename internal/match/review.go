package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
)

var (
	ErrSubmissionNotFound = errors.New("no challenge submission for match")
	ErrInvalidReview      = errors.New("invalid review")
)

// FinalScore merges the automatic grade with the human one. With both
// present it is their average rounded half up; with no auto grade the human
// score stands alone.
func FinalScore(auto *int, human int) int {
	if auto == nil {
		return human
	}
	return (*auto + human + 1) / 2
}

// Review is the human grading input for a challenge submission.
type Review struct {
	HumanScore          *int   `json:"human_score"`
	HumanFeedback       string `json:"human_feedback"`
	ReviewerName        string `json:"reviewer_name"`
	ReviewerLinkedInURL string `json:"reviewer_linkedin_url,omitempty"`
}

// Validate checks the review fields without touching storage.
func (r *Review) Validate() error {
	if r.HumanScore == nil {
		return fmt.Errorf("%w: human_score is required", ErrInvalidReview)
	}
	if *r.HumanScore < 0 || *r.HumanScore > 100 {
		return fmt.Errorf("%w: human_score must be between 0 and 100", ErrInvalidReview)
	}
	if strings.TrimSpace(r.HumanFeedback) == "" {
		return fmt.Errorf("%w: human_feedback is required", ErrInvalidReview)
	}
	if strings.TrimSpace(r.ReviewerName) == "" {
		return fmt.Errorf("%w: reviewer_name is required", ErrInvalidReview)
	}
	return nil
}

// Reviewer applies human reviews to stored challenge submissions.
type Reviewer struct {
	challenges repository.ChallengeRepo
	logger     *slog.Logger
}

func NewReviewer(challenges repository.ChallengeRepo, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{challenges: challenges, logger: logger}
}

// Apply validates the review, merges it with any automatic grade, and
// persists the reviewed submission. Re-reviewing overwrites the previous
// review.
func (r *Reviewer) Apply(ctx context.Context, matchID int64, review *Review) (*models.ChallengeSubmission, error) {
	if err := review.Validate(); err != nil {
		return nil, err
	}

	sub, err := r.challenges.GetSubmissionByMatchID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load submission: %w", err)
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}

	final := FinalScore(sub.AutoScore, *review.HumanScore)
	now := time.Now().UnixMilli()
	feedback := strings.TrimSpace(review.HumanFeedback)
	name := strings.TrimSpace(review.ReviewerName)

	sub.HumanScore = review.HumanScore
	sub.HumanFeedback = &feedback
	sub.ReviewerName = &name
	if u := strings.TrimSpace(review.ReviewerLinkedInURL); u != "" {
		sub.ReviewerLinkedInURL = &u
	}
	sub.FinalScore = &final
	sub.ReviewedAt = &now

	if err := r.challenges.ReviewSubmission(ctx, matchID, sub); err != nil {
		return nil, fmt.Errorf("persist review: %w", err)
	}

	r.logger.Info("challenge reviewed",
		"match_id", matchID,
		"final_score", final,
		"auto_score", sub.AutoScore,
		"human_score", *review.HumanScore)
	return sub, nil
}
