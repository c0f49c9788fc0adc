package match_test

import (
	"context"
	"testing"

	"github.com/garnizeh/curator/internal/match"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestFinalScore(t *testing.T) {
	tests := []struct {
		name  string
		auto  *int
		human int
		want  int
	}{
		{"no auto grade", nil, 70, 70},
		{"rounds half up", intPtr(80), 61, 71},
		{"even average", intPtr(80), 60, 70},
		{"equal scores", intPtr(55), 55, 55},
		{"zero both", intPtr(0), 0, 0},
		{"max both", intPtr(100), 100, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, match.FinalScore(tc.auto, tc.human))
		})
	}
}

func TestReviewValidate(t *testing.T) {
	valid := func() *match.Review {
		return &match.Review{
			HumanScore:    intPtr(75),
			HumanFeedback: "solid work",
			ReviewerName:  "Sam Reviewer",
		}
	}

	r := valid()
	assert.NoError(t, r.Validate())

	r = valid()
	r.HumanScore = nil
	assert.ErrorIs(t, r.Validate(), match.ErrInvalidReview)

	r = valid()
	r.HumanScore = intPtr(101)
	assert.ErrorIs(t, r.Validate(), match.ErrInvalidReview)

	r = valid()
	r.HumanScore = intPtr(-1)
	assert.ErrorIs(t, r.Validate(), match.ErrInvalidReview)

	r = valid()
	r.HumanFeedback = "   "
	assert.ErrorIs(t, r.Validate(), match.ErrInvalidReview)

	r = valid()
	r.ReviewerName = ""
	assert.ErrorIs(t, r.Validate(), match.ErrInvalidReview)
}

func TestReviewerApplyMergesScores(t *testing.T) {
	ctx := context.Background()
	challenges := &mock.ChallengeRepo{
		Submission: &models.ChallengeSubmission{
			ID:        1,
			MatchID:   9,
			Content:   "package main",
			AutoScore: intPtr(80),
		},
	}
	rv := match.NewReviewer(challenges, nil)

	sub, err := rv.Apply(ctx, 9, &match.Review{
		HumanScore:          intPtr(61),
		HumanFeedback:       "  good error handling  ",
		ReviewerName:        " Sam Reviewer ",
		ReviewerLinkedInURL: "https://linkedin.com/in/sam",
	})
	require.NoError(t, err)

	require.NotNil(t, sub.FinalScore)
	assert.Equal(t, 71, *sub.FinalScore)
	assert.Equal(t, "good error handling", *sub.HumanFeedback)
	assert.Equal(t, "Sam Reviewer", *sub.ReviewerName)
	assert.Equal(t, "https://linkedin.com/in/sam", *sub.ReviewerLinkedInURL)
	assert.NotNil(t, sub.ReviewedAt)
	require.NotNil(t, challenges.Reviewed)
	assert.Equal(t, sub, challenges.Reviewed)
}

func TestReviewerApplyWithoutAutoScore(t *testing.T) {
	ctx := context.Background()
	challenges := &mock.ChallengeRepo{
		Submission: &models.ChallengeSubmission{ID: 1, MatchID: 9, Content: "answer"},
	}
	rv := match.NewReviewer(challenges, nil)

	sub, err := rv.Apply(ctx, 9, &match.Review{
		HumanScore:    intPtr(70),
		HumanFeedback: "fine",
		ReviewerName:  "Sam",
	})
	require.NoError(t, err)
	assert.Equal(t, 70, *sub.FinalScore)
}

func TestReviewerApplyNoSubmission(t *testing.T) {
	rv := match.NewReviewer(&mock.ChallengeRepo{}, nil)
	_, err := rv.Apply(context.Background(), 9, &match.Review{
		HumanScore:    intPtr(70),
		HumanFeedback: "fine",
		ReviewerName:  "Sam",
	})
	assert.ErrorIs(t, err, match.ErrSubmissionNotFound)
}

func TestReviewerApplyInvalidReview(t *testing.T) {
	rv := match.NewReviewer(&mock.ChallengeRepo{}, nil)
	_, err := rv.Apply(context.Background(), 9, &match.Review{})
	assert.ErrorIs(t, err, match.ErrInvalidReview)
}
