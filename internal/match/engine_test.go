package match_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/curator/internal/match"
	"github.com/garnizeh/curator/internal/notify"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScorer returns fixed scores keyed by a needle embedded in the engineer
// document, so each candidate gets deterministic per-dimension scores.
type fakeScorer struct {
	byNeedle map[string]map[string]int
	def      int
	err      error
	calls    int
}

func (f *fakeScorer) ScoreDimension(ctx context.Context, dim, hint, engineerDoc, targetDoc string) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	for needle, dims := range f.byNeedle {
		if strings.Contains(engineerDoc, needle) {
			if s, ok := dims[dim]; ok {
				return s, nil
			}
			if s, ok := dims["*"]; ok {
				return s, nil
			}
		}
	}
	return f.def, nil
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) Notify(ctx context.Context, e notify.Event) error {
	n.calls++
	return errors.New("smtp down")
}

func eligibleProfile(id int64, needle, ratings string) *models.EngineerProfile {
	strengths := fmt.Sprintf(`["%s"]`, needle)
	return &models.EngineerProfile{
		EngineerID:      id,
		Status:          models.ProfileComplete,
		Strengths:       &strengths,
		PriorityRatings: &ratings,
	}
}

func activeRole(t *testing.T, roles *mock.RoleRepo, title string) int64 {
	t.Helper()
	jd := fmt.Sprintf(`{"title":%q,"requirements":[]}`, title)
	id, err := roles.CreateRole(context.Background(), &models.Role{
		Title:        title,
		Status:       models.RoleActive,
		BeautifiedJD: &jd,
		PublicSlug:   title,
	})
	require.NoError(t, err)
	return id
}

func newTestEngine(scorer match.Scorer, m *mock.Mocks, n notify.Notifier) *match.Engine {
	if n == nil {
		n = &notify.LogNotifier{}
	}
	return match.NewEngine(scorer, m.Engineers, m.Roles, m.Matches, n, &notify.LogAnalytics{}, 10, time.Minute, nil)
}

func TestComputeForRoleRanksAndPersists(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	roleID := activeRole(t, m.Roles, "Backend Engineer")

	m.Engineers.Put(eligibleProfile(1, "alice", `{}`))
	m.Engineers.Put(eligibleProfile(2, "bob", `{}`))
	m.Engineers.Put(eligibleProfile(3, "carol", `{}`))

	scorer := &fakeScorer{byNeedle: map[string]map[string]int{
		"alice": {"*": 70},
		"bob":   {"*": 90},
		"carol": {"*": 70},
	}}

	eng := newTestEngine(scorer, m, nil)
	res, err := eng.ComputeForRole(ctx, roleID, []int64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, res.Matches, 3)
	assert.Empty(t, res.Skipped)

	// bob first, then alice and carol in input order sharing a dense rank
	assert.Equal(t, int64(2), res.Matches[0].EngineerID)
	assert.Equal(t, 90, res.Matches[0].OverallScore)
	assert.Equal(t, 1, res.Matches[0].DisplayRank)
	assert.Equal(t, int64(1), res.Matches[1].EngineerID)
	assert.Equal(t, 2, res.Matches[1].DisplayRank)
	assert.Equal(t, int64(3), res.Matches[2].EngineerID)
	assert.Equal(t, 2, res.Matches[2].DisplayRank)

	for _, mm := range res.Matches {
		assert.Equal(t, res.BatchID, mm.BatchID)
		dims, err := mm.DimensionMap()
		require.NoError(t, err)
		assert.Len(t, dims, len(match.Dimensions))
	}
	assert.Equal(t, []int64{roleID}, m.Matches.SupersededRoles)
}

func TestComputeForRoleWeightedAverage(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	roleID := activeRole(t, m.Roles, "Platform Engineer")

	// technical weighs 5, the rest default to 1
	m.Engineers.Put(eligibleProfile(1, "alice", `{"technical":5}`))

	scorer := &fakeScorer{byNeedle: map[string]map[string]int{
		"alice": {"technical": 100, "*": 50},
	}}

	eng := newTestEngine(scorer, m, nil)
	res, err := eng.ComputeForRole(ctx, roleID, []int64{1})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	// (100*5 + 50*4) / 9 = 77.78 → 78
	assert.Equal(t, 78, res.Matches[0].OverallScore)
}

func TestComputeForRoleSkipsIneligible(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	roleID := activeRole(t, m.Roles, "SRE")

	m.Engineers.Put(eligibleProfile(1, "alice", `{}`))
	draft := &models.EngineerProfile{EngineerID: 2, Status: models.ProfileDraft}
	m.Engineers.Put(draft)
	noRatings := &models.EngineerProfile{EngineerID: 3, Status: models.ProfileComplete}
	m.Engineers.Put(noRatings)

	eng := newTestEngine(&fakeScorer{def: 80}, m, nil)
	res, err := eng.ComputeForRole(ctx, roleID, []int64{1, 2, 3, 4})
	require.NoError(t, err)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, int64(1), res.Matches[0].EngineerID)

	require.Len(t, res.Skipped, 3)
	reasons := map[int64]string{}
	for _, s := range res.Skipped {
		reasons[s.EngineerID] = s.Reason
	}
	assert.Contains(t, reasons[2], "not complete")
	assert.Contains(t, reasons[3], "priority ratings")
	assert.Equal(t, "no profile", reasons[4])
}

func TestComputeForRoleExcludesDecidedPairs(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	roleID := activeRole(t, m.Roles, "Data Engineer")

	m.Engineers.Put(eligibleProfile(1, "alice", `{}`))
	m.Engineers.Put(eligibleProfile(2, "bob", `{}`))

	decision := models.DecisionMovedForward
	require.NoError(t, m.Matches.InsertMatches(ctx, []*models.Match{{
		RoleID:          &roleID,
		EngineerID:      2,
		BatchID:         "old",
		OverallScore:    88,
		DimensionScores: "{}",
		Decision:        &decision,
	}}))

	eng := newTestEngine(&fakeScorer{def: 75}, m, nil)
	res, err := eng.ComputeForRole(ctx, roleID, []int64{1, 2})
	require.NoError(t, err)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, int64(1), res.Matches[0].EngineerID)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, int64(2), res.Skipped[0].EngineerID)

	// the decided match survives untouched
	old, err := m.Matches.GetMatch(ctx, 1)
	require.NoError(t, err)
	assert.False(t, old.Superseded)
	assert.NotNil(t, old.Decision)
}

func TestComputeForRolePreconditions(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	eng := newTestEngine(&fakeScorer{def: 50}, m, nil)

	_, err := eng.ComputeForRole(ctx, 42, []int64{1})
	assert.ErrorIs(t, err, match.ErrRoleNotFound)

	id, err := m.Roles.CreateRole(ctx, &models.Role{Title: "Draft", Status: models.RoleDraft, PublicSlug: "draft"})
	require.NoError(t, err)
	_, err = eng.ComputeForRole(ctx, id, []int64{1})
	assert.ErrorIs(t, err, match.ErrRoleNotMatchable)
}

func TestComputeForRoleNotifierFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	roleID := activeRole(t, m.Roles, "Backend Engineer")
	m.Engineers.Put(eligibleProfile(1, "alice", `{}`))

	n := &failingNotifier{}
	eng := newTestEngine(&fakeScorer{def: 60}, m, n)

	res, err := eng.ComputeForRole(ctx, roleID, []int64{1})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.Equal(t, 1, n.calls)
}

func TestComputeForEngineer(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	roleA := activeRole(t, m.Roles, "Backend Engineer")
	roleB := activeRole(t, m.Roles, "Frontend Engineer")
	_, err := m.Roles.CreateRole(ctx, &models.Role{Title: "Paused", Status: models.RolePaused, PublicSlug: "paused"})
	require.NoError(t, err)

	m.Engineers.Put(eligibleProfile(7, "alice", `{}`))

	eng := newTestEngine(&fakeScorer{def: 65}, m, nil)
	res, err := eng.ComputeForEngineer(ctx, 7)
	require.NoError(t, err)

	require.Len(t, res.Matches, 2)
	got := map[int64]bool{}
	for _, mm := range res.Matches {
		require.NotNil(t, mm.RoleID)
		got[*mm.RoleID] = true
		assert.Equal(t, int64(7), mm.EngineerID)
	}
	assert.True(t, got[roleA])
	assert.True(t, got[roleB])
	assert.Equal(t, []int64{7}, m.Matches.SupersededEngineer)
}

func TestComputeForEngineerIneligible(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	m.Engineers.Put(&models.EngineerProfile{EngineerID: 7, Status: models.ProfileDraft})

	eng := newTestEngine(&fakeScorer{def: 65}, m, nil)
	_, err := eng.ComputeForEngineer(ctx, 7)
	assert.ErrorIs(t, err, match.ErrProfileIneligible)
}

func TestComputeAdHocAppendsHistory(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	m.Engineers.Put(eligibleProfile(1, "alice", `{}`))

	jd := &models.BeautifiedJD{Title: "Staff Engineer"}
	eng := newTestEngine(&fakeScorer{def: 70}, m, nil)

	first, err := eng.ComputeAdHoc(ctx, "https://example.com/jd", []int64{1}, jd)
	require.NoError(t, err)
	second, err := eng.ComputeAdHoc(ctx, "https://example.com/jd", []int64{1}, jd)
	require.NoError(t, err)

	assert.NotEqual(t, first.BatchID, second.BatchID)
	assert.Len(t, m.Matches.Stored, 2)
	for _, mm := range m.Matches.Stored {
		assert.True(t, mm.AdHoc)
		assert.Nil(t, mm.RoleID)
		require.NotNil(t, mm.JDURL)
		assert.Equal(t, "https://example.com/jd", *mm.JDURL)
		assert.False(t, mm.Superseded)
	}
	// ad-hoc runs never supersede anything
	assert.Empty(t, m.Matches.SupersededRoles)
	assert.Empty(t, m.Matches.SupersededEngineer)

	eng.AttachNotes(ctx, second.BatchID, "pipeline review")
	assert.Equal(t, "pipeline review", m.Matches.Notes[second.BatchID])
}

func TestComputeAdHocSkipsWithoutRatings(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	m.Engineers.Put(eligibleProfile(1, "alice", `{}`))
	noRatings := &models.EngineerProfile{EngineerID: 2, Status: models.ProfileComplete}
	m.Engineers.Put(noRatings)

	jd := &models.BeautifiedJD{Title: "Staff Engineer"}
	eng := newTestEngine(&fakeScorer{def: 70}, m, nil)

	// naming an engineer explicitly does not bypass the eligibility gate
	res, err := eng.ComputeAdHoc(ctx, "https://example.com/jd", []int64{1, 2}, jd)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, int64(1), res.Matches[0].EngineerID)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, int64(2), res.Skipped[0].EngineerID)
	assert.Contains(t, res.Skipped[0].Reason, "priority ratings")
}

func TestComputeAdHocRequiresTarget(t *testing.T) {
	m := mock.NewMocks()
	eng := newTestEngine(&fakeScorer{def: 70}, m, nil)
	_, err := eng.ComputeAdHoc(context.Background(), "https://example.com/jd", []int64{1}, nil)
	assert.ErrorIs(t, err, match.ErrNoTarget)
}

func TestScoringFailureSkipsCandidateOnly(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()
	roleID := activeRole(t, m.Roles, "Backend Engineer")
	m.Engineers.Put(eligibleProfile(1, "alice", `{}`))

	eng := newTestEngine(&fakeScorer{err: errors.New("model offline")}, m, nil)
	res, err := eng.ComputeForRole(ctx, roleID, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0].Reason, "scoring failed")
}
