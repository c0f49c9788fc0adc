package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"log/slog"

	"github.com/garnizeh/curator/internal/notify"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
	"github.com/google/uuid"
)

// The five fit dimensions. Fixed: every match carries exactly these scores.
const (
	DimMission            = "mission"
	DimTechnical          = "technical"
	DimCulture            = "culture"
	DimWorkingEnvironment = "working_environment"
	DimCareerTrajectory   = "career_trajectory"
)

// Dimensions in scoring order.
var Dimensions = []string{DimMission, DimTechnical, DimCulture, DimWorkingEnvironment, DimCareerTrajectory}

var dimensionHints = map[string]string{
	DimMission:            "alignment between what the engineer cares about and what the company exists to do",
	DimTechnical:          "overlap between the engineer's skills and the role's technical requirements",
	DimCulture:            "compatibility of values and working norms",
	DimWorkingEnvironment: "fit of day-to-day working style, pace, and collaboration habits",
	DimCareerTrajectory:   "whether this role advances where the engineer wants to go",
}

var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleNotMatchable  = errors.New("role must be active with a beautified job description")
	ErrProfileIneligible = errors.New("engineer profile must be complete with priority ratings")
	ErrNoTarget          = errors.New("a job description target is required")
)

// Scorer is the slice of the AI engine the matcher needs. Model output is
// non-deterministic, so tests inject a fixed-score fake.
type Scorer interface {
	ScoreDimension(ctx context.Context, dimension, hint, engineerDoc, targetDoc string) (int, error)
}

// Skip records why one candidate was left out of a computation.
type Skip struct {
	EngineerID int64  `json:"engineer_id"`
	Reason     string `json:"reason"`
}

// Result is the outcome of one computation run.
type Result struct {
	BatchID string         `json:"batch_id"`
	Matches []models.Match `json:"matches"`
	Skipped []Skip         `json:"skipped,omitempty"`
}

// Engine scores engineer↔target pairs across the five dimensions, ranks
// them, and persists the ranked set.
type Engine struct {
	scorer    Scorer
	engineers repository.EngineerProfileRepo
	roles     repository.RoleRepo
	matches   repository.MatchRepo
	notifier  notify.Notifier
	analytics notify.Analytics
	topN      int
	deadline  time.Duration
	logger    *slog.Logger
}

func NewEngine(
	scorer Scorer,
	engineers repository.EngineerProfileRepo,
	roles repository.RoleRepo,
	matches repository.MatchRepo,
	notifier notify.Notifier,
	analytics notify.Analytics,
	topN int,
	deadline time.Duration,
	logger *slog.Logger,
) *Engine {
	if topN <= 0 {
		topN = 10
	}
	if deadline <= 0 {
		deadline = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		scorer:    scorer,
		engineers: engineers,
		roles:     roles,
		matches:   matches,
		notifier:  notifier,
		analytics: analytics,
		topN:      topN,
		deadline:  deadline,
		logger:    logger,
	}
}

// scored pairs a candidate with its computed scores, keeping insertion order
// for deterministic tie-breaking.
type scored struct {
	engineerID int64
	overall    int
	dims       map[string]int
	order      int
}

// ComputeForRole recomputes the ranked match set for a stored role over the
// given candidates. Previously displayed non-terminal matches are superseded;
// pairs that already carry a decision or challenge response are excluded.
func (e *Engine) ComputeForRole(ctx context.Context, roleID int64, engineerIDs []int64) (*Result, error) {
	role, err := e.roles.GetRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	if !role.Matchable() {
		return nil, ErrRoleNotMatchable
	}

	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	terminal, err := e.terminalEngineersForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	targetDoc := targetDocForRole(role)
	result := &Result{BatchID: uuid.NewString()}

	var pairs []scored
	for i, engID := range engineerIDs {
		if terminal[engID] {
			result.Skipped = append(result.Skipped, Skip{EngineerID: engID, Reason: "pair already has a decision or challenge response"})
			continue
		}

		profile, skip, err := e.eligibleProfile(ctx, engID)
		if err != nil {
			return nil, err
		}
		if skip != "" {
			result.Skipped = append(result.Skipped, Skip{EngineerID: engID, Reason: skip})
			continue
		}

		s, err := e.scorePair(ctx, profile, targetDoc)
		if err != nil {
			// an individual scoring failure skips the candidate, not the batch
			e.logger.Warn("scoring failed", "engineer_id", engID, "role_id", roleID, "err", err)
			result.Skipped = append(result.Skipped, Skip{EngineerID: engID, Reason: fmt.Sprintf("scoring failed: %v", err)})
			continue
		}
		s.order = i
		pairs = append(pairs, s)
	}

	ms := rank(pairs, e.topN, func(s scored) *models.Match {
		return &models.Match{RoleID: &roleID, EngineerID: s.engineerID, BatchID: result.BatchID}
	})

	if len(ms) > 0 {
		if err := e.matches.SupersedeMatchesForRole(ctx, roleID); err != nil {
			return nil, fmt.Errorf("supersede prior matches: %w", err)
		}
		if err := e.matches.InsertMatches(ctx, ms); err != nil {
			return nil, fmt.Errorf("persist matches: %w", err)
		}
		e.afterCompute(ctx, "role", role.ID, len(ms))
	}

	for _, m := range ms {
		result.Matches = append(result.Matches, *m)
	}
	return result, nil
}

// ComputeForEngineer recomputes the ranked match set for one engineer across
// every active role. Runs as a background job.
func (e *Engine) ComputeForEngineer(ctx context.Context, engineerID int64) (*Result, error) {
	profile, skip, err := e.eligibleProfile(ctx, engineerID)
	if err != nil {
		return nil, err
	}
	if skip != "" {
		return nil, fmt.Errorf("%w: %s", ErrProfileIneligible, skip)
	}

	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	roles, err := e.roles.ListActiveRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active roles: %w", err)
	}

	terminalRoles, err := e.terminalRolesForEngineer(ctx, engineerID)
	if err != nil {
		return nil, err
	}

	result := &Result{BatchID: uuid.NewString()}

	var pairs []scored
	roleByOrder := map[int]int64{}
	for i := range roles {
		role := roles[i]
		if !role.Matchable() || terminalRoles[role.ID] {
			continue
		}

		s, err := e.scorePair(ctx, profile, targetDocForRole(&role))
		if err != nil {
			e.logger.Warn("scoring failed", "engineer_id", engineerID, "role_id", role.ID, "err", err)
			continue
		}
		s.order = i
		roleByOrder[i] = role.ID
		pairs = append(pairs, s)
	}

	ms := rank(pairs, e.topN, func(s scored) *models.Match {
		roleID := roleByOrder[s.order]
		return &models.Match{RoleID: &roleID, EngineerID: engineerID, BatchID: result.BatchID}
	})

	if len(ms) > 0 {
		if err := e.matches.SupersedeMatchesForEngineer(ctx, engineerID); err != nil {
			return nil, fmt.Errorf("supersede prior matches: %w", err)
		}
		if err := e.matches.InsertMatches(ctx, ms); err != nil {
			return nil, fmt.Errorf("persist matches: %w", err)
		}
		e.afterCompute(ctx, "engineer", engineerID, len(ms))
	}

	for _, m := range ms {
		result.Matches = append(result.Matches, *m)
	}
	return result, nil
}

// ComputeAdHoc scores an explicit candidate list against an external job
// description. Every invocation appends history rows; nothing is superseded
// and the role-active precondition does not apply.
func (e *Engine) ComputeAdHoc(ctx context.Context, jdURL string, engineerIDs []int64, jd *models.BeautifiedJD) (*Result, error) {
	if jd == nil {
		return nil, ErrNoTarget
	}

	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	targetDoc := mustJSON(jd)
	result := &Result{BatchID: uuid.NewString()}

	var pairs []scored
	for i, engID := range engineerIDs {
		profile, skip, err := e.eligibleProfile(ctx, engID)
		if err != nil {
			return nil, err
		}
		if skip != "" {
			result.Skipped = append(result.Skipped, Skip{EngineerID: engID, Reason: skip})
			continue
		}

		s, err := e.scorePair(ctx, profile, targetDoc)
		if err != nil {
			e.logger.Warn("scoring failed", "engineer_id", engID, "jd_url", jdURL, "err", err)
			result.Skipped = append(result.Skipped, Skip{EngineerID: engID, Reason: fmt.Sprintf("scoring failed: %v", err)})
			continue
		}
		s.order = i
		pairs = append(pairs, s)
	}

	url := jdURL
	ms := rank(pairs, e.topN, func(s scored) *models.Match {
		return &models.Match{JDURL: &url, EngineerID: s.engineerID, BatchID: result.BatchID, AdHoc: true}
	})

	if len(ms) > 0 {
		if err := e.matches.InsertMatches(ctx, ms); err != nil {
			return nil, fmt.Errorf("persist matches: %w", err)
		}
	}

	for _, m := range ms {
		result.Matches = append(result.Matches, *m)
	}
	return result, nil
}

// AttachNotes is a best-effort secondary write over an ad-hoc batch. The
// scoring result already returned to the caller is never invalidated by a
// notes failure.
func (e *Engine) AttachNotes(ctx context.Context, batchID, notes string) {
	if err := e.matches.AttachBatchNotes(ctx, batchID, notes); err != nil {
		e.logger.Warn("attach batch notes failed", "batch_id", batchID, "err", err)
	}
}

func (e *Engine) eligibleProfile(ctx context.Context, engineerID int64) (*models.EngineerProfile, string, error) {
	profile, err := e.engineers.GetEngineerProfile(ctx, engineerID)
	if err != nil {
		return nil, "", fmt.Errorf("load engineer profile %d: %w", engineerID, err)
	}
	if profile == nil {
		return nil, "no profile", nil
	}
	if profile.Status != models.ProfileComplete {
		return nil, fmt.Sprintf("profile status is %s, not complete", profile.Status), nil
	}
	if profile.PriorityRatings == nil {
		return nil, "priority ratings missing", nil
	}
	return profile, "", nil
}

// scorePair asks the scorer for each of the five dimensions and combines
// them into a weighted overall score.
func (e *Engine) scorePair(ctx context.Context, profile *models.EngineerProfile, targetDoc string) (scored, error) {
	engineerDoc := engineerDocFor(profile)
	weights := parseWeights(profile.PriorityRatings)

	dims := make(map[string]int, len(Dimensions))
	var weightedSum, weightSum float64
	for _, dim := range Dimensions {
		score, err := e.scorer.ScoreDimension(ctx, dim, dimensionHints[dim], engineerDoc, targetDoc)
		if err != nil {
			return scored{}, fmt.Errorf("dimension %s: %w", dim, err)
		}
		dims[dim] = score

		w := weights[dim]
		weightedSum += float64(score) * w
		weightSum += w
	}

	overall := int(math.Round(weightedSum / weightSum))
	return scored{engineerID: profile.EngineerID, overall: overall, dims: dims}, nil
}

// rank orders pairs by score descending with insertion order as the stable
// tie-break, assigns 1-based dense ranks, cuts to topN, and builds the match
// rows via mk.
func rank(pairs []scored, topN int, mk func(scored) *models.Match) []*models.Match {
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].overall != pairs[j].overall {
			return pairs[i].overall > pairs[j].overall
		}
		return pairs[i].order < pairs[j].order
	})

	if len(pairs) > topN {
		pairs = pairs[:topN]
	}

	var out []*models.Match
	denseRank := 0
	prevScore := -1
	for _, p := range pairs {
		if p.overall != prevScore {
			denseRank++
			prevScore = p.overall
		}

		m := mk(p)
		m.OverallScore = p.overall
		m.DimensionScores = mustJSON(p.dims)
		m.DisplayRank = denseRank
		out = append(out, m)
	}
	return out
}

// afterCompute fires the matches-ready notification and analytics event.
// Both are fire-and-forget; neither can fail the computation.
func (e *Engine) afterCompute(ctx context.Context, subjectKind string, subjectID int64, count int) {
	notify.Fire(ctx, e.notifier, e.logger, notify.Event{
		Kind:    notify.KindMatchesReady,
		Subject: fmt.Sprintf("%s:%d", subjectKind, subjectID),
		Data:    map[string]any{"count": count},
	})
	notify.Track(ctx, e.analytics, e.logger, "matches_computed", map[string]any{
		"subject_kind": subjectKind,
		"subject_id":   subjectID,
		"count":        count,
	})
}

func (e *Engine) terminalEngineersForRole(ctx context.Context, roleID int64) (map[int64]bool, error) {
	existing, err := e.matches.ListMatchHistoryForRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("list existing matches: %w", err)
	}
	out := map[int64]bool{}
	for i := range existing {
		if existing[i].Terminal() {
			out[existing[i].EngineerID] = true
		}
	}
	return out, nil
}

func (e *Engine) terminalRolesForEngineer(ctx context.Context, engineerID int64) (map[int64]bool, error) {
	existing, err := e.matches.ListMatchHistoryForEngineer(ctx, engineerID)
	if err != nil {
		return nil, fmt.Errorf("list existing matches: %w", err)
	}
	out := map[int64]bool{}
	for i := range existing {
		if existing[i].Terminal() && existing[i].RoleID != nil {
			out[*existing[i].RoleID] = true
		}
	}
	return out, nil
}

// targetDocForRole is the document the scorer sees for a stored role.
func targetDocForRole(role *models.Role) string {
	doc := map[string]any{"title": role.Title}
	if role.BeautifiedJD != nil {
		doc["beautified_jd"] = json.RawMessage(*role.BeautifiedJD)
	}
	return mustJSON(doc)
}

// engineerDocFor assembles the structured profile document for scoring.
func engineerDocFor(p *models.EngineerProfile) string {
	doc := map[string]any{}
	put := func(key string, v *string) {
		if v != nil {
			doc[key] = json.RawMessage(*v)
		}
	}
	put("engineer_dna", p.EngineerDNA)
	put("work_preferences", p.WorkPreferences)
	put("career_growth", p.CareerGrowth)
	put("strengths", p.Strengths)
	put("growth_areas", p.GrowthAreas)
	put("deal_breakers", p.DealBreakers)
	if p.ProfileSummary != nil {
		doc["summary"] = *p.ProfileSummary
	}
	return mustJSON(doc)
}

// parseWeights decodes priority ratings into per-dimension weights. Unknown
// or missing dimensions weigh 1 so a sparse rating still covers all five.
func parseWeights(ratings *string) map[string]float64 {
	out := map[string]float64{}
	for _, d := range Dimensions {
		out[d] = 1
	}
	if ratings == nil {
		return out
	}

	raw := map[string]float64{}
	if err := json.Unmarshal([]byte(*ratings), &raw); err != nil {
		return out
	}
	for d, w := range raw {
		if _, ok := out[d]; ok && w > 0 {
			out[d] = w
		}
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
