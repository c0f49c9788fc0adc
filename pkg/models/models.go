package models

import (
	"encoding/json"
)

// Domain models matching the database schema in db/migrations/0001_init.sql

// Account kinds recognized by the identity layer.
const (
	KindEngineer = "engineer"
	KindCompany  = "company"
	KindAdmin    = "admin"
)

type Account struct {
	ID           int64  `json:"id" db:"id"`
	Kind         string `json:"kind" db:"kind"`
	Name         string `json:"name" db:"name" validate:"required"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	PasswordHash string `json:"password_hash,omitempty" db:"password_hash"`
	Created      int64  `json:"created" db:"created"`
	Updated      int64  `json:"updated" db:"updated"`
}

// Profile lifecycle statuses, shared by company and engineer profiles.
const (
	ProfileDraft         = "draft"
	ProfileCrawling      = "crawling"
	ProfileQuestionnaire = "questionnaire"
	ProfileComplete      = "complete"
)

// CompanyProfile is the hiring profile for one company. One row per company,
// upserted on the first crawl request and never hard-deleted.
type CompanyProfile struct {
	ID                   int64   `json:"id" db:"id"`
	CompanyID            int64   `json:"company_id" db:"company_id"`
	Status               string  `json:"status" db:"status"`
	CrawlError           *string `json:"crawl_error,omitempty" db:"crawl_error"`
	CompanyDNA           *string `json:"company_dna,omitempty" db:"company_dna"`
	TechnicalEnvironment *string `json:"technical_environment,omitempty" db:"technical_environment"`
	CultureAnswers       *string `json:"culture_answers,omitempty" db:"culture_answers"`
	MissionAnswers       *string `json:"mission_answers,omitempty" db:"mission_answers"`
	TeamDynamicsAnswers  *string `json:"team_dynamics_answers,omitempty" db:"team_dynamics_answers"`
	ProfileSummary       *string `json:"profile_summary,omitempty" db:"profile_summary"`
	Created              int64   `json:"created" db:"created"`
	Updated              int64   `json:"updated" db:"updated"`
}

// QuestionnaireDone reports whether every required company section is present.
func (p *CompanyProfile) QuestionnaireDone() bool {
	return p.CultureAnswers != nil && p.MissionAnswers != nil && p.TeamDynamicsAnswers != nil
}

// EngineerProfile mirrors CompanyProfile for the engineer side. Matching
// requires Status == complete and non-nil PriorityRatings.
type EngineerProfile struct {
	ID                       int64   `json:"id" db:"id"`
	EngineerID               int64   `json:"engineer_id" db:"engineer_id"`
	Status                   string  `json:"status" db:"status"`
	CrawlError               *string `json:"crawl_error,omitempty" db:"crawl_error"`
	CrawlData                *string `json:"crawl_data,omitempty" db:"crawl_data"`
	EngineerDNA              *string `json:"engineer_dna,omitempty" db:"engineer_dna"`
	WorkPreferences          *string `json:"work_preferences,omitempty" db:"work_preferences"`
	CareerGrowth             *string `json:"career_growth,omitempty" db:"career_growth"`
	Strengths                *string `json:"strengths,omitempty" db:"strengths"`
	GrowthAreas              *string `json:"growth_areas,omitempty" db:"growth_areas"`
	DealBreakers             *string `json:"deal_breakers,omitempty" db:"deal_breakers"`
	PriorityRatings          *string `json:"priority_ratings,omitempty" db:"priority_ratings"`
	QuestionnaireCompletedAt *int64  `json:"questionnaire_completed_at,omitempty" db:"questionnaire_completed_at"`
	ProfileSummary           *string `json:"profile_summary,omitempty" db:"profile_summary"`
	Created                  int64   `json:"created" db:"created"`
	Updated                  int64   `json:"updated" db:"updated"`
}

// QuestionnaireDone reports whether every required engineer section is
// present. PriorityRatings counts as a section because matching is unusable
// without it.
func (p *EngineerProfile) QuestionnaireDone() bool {
	return p.WorkPreferences != nil && p.CareerGrowth != nil && p.Strengths != nil &&
		p.GrowthAreas != nil && p.DealBreakers != nil && p.PriorityRatings != nil
}

// Eligible reports whether this profile can enter a match computation.
func (p *EngineerProfile) Eligible() bool {
	return p.Status == ProfileComplete && p.PriorityRatings != nil
}

// Role statuses.
const (
	RoleDraft       = "draft"
	RoleBeautifying = "beautifying"
	RoleActive      = "active"
	RolePaused      = "paused"
	RoleClosed      = "closed"
)

// Role is a job posting owned by a company profile. Roles pulled from an ATS
// carry Source and ExternalID so repeated syncs upsert instead of duplicating.
type Role struct {
	ID           int64   `json:"id" db:"id"`
	CompanyID    int64   `json:"company_id" db:"company_id"`
	Title        string  `json:"title" db:"title"`
	Status       string  `json:"status" db:"status"`
	SourceURL    *string `json:"source_url,omitempty" db:"source_url"`
	RawText      *string `json:"raw_text,omitempty" db:"raw_text"`
	BeautifiedJD *string `json:"beautified_jd,omitempty" db:"beautified_jd"`
	PublicSlug   string  `json:"public_slug" db:"public_slug"`
	Source       *string `json:"source,omitempty" db:"source"`
	ExternalID   *string `json:"external_id,omitempty" db:"external_id"`
	Created      int64   `json:"created" db:"created"`
	Updated      int64   `json:"updated" db:"updated"`
}

// Matchable reports whether the role satisfies the matching preconditions.
func (r *Role) Matchable() bool {
	return r.Status == RoleActive && r.BeautifiedJD != nil
}

// Requirement categories inside a beautified JD.
const (
	ReqEssential  = "essential"
	ReqNiceToHave = "nice_to_have"
)

type Requirement struct {
	Text     string  `json:"text"`
	Category string  `json:"category"`
	Caveat   *string `json:"caveat,omitempty"`
}

// BeautifiedJD is a job posting normalized into requirements plus narrative
// context sections.
type BeautifiedJD struct {
	Title        string        `json:"title"`
	Requirements []Requirement `json:"requirements"`
	TeamContext  string        `json:"team_context"`
	WorkingVibe  string        `json:"working_vibe"`
	CultureCheck string        `json:"culture_check"`
}

// Match decisions and challenge responses.
const (
	DecisionMovedForward = "moved_forward"
	DecisionPassed       = "passed"

	ChallengeAccepted = "accepted"
	ChallengeDeclined = "declined"
)

// Match is the scored result of one (engineer, role) pair within a
// computation run. Ad-hoc matches are keyed by JDURL instead of RoleID and
// are kept as history forever (never superseded).
type Match struct {
	ID                   int64   `json:"id" db:"id"`
	RoleID               *int64  `json:"role_id,omitempty" db:"role_id"`
	JDURL                *string `json:"jd_url,omitempty" db:"jd_url"`
	EngineerID           int64   `json:"engineer_id" db:"engineer_id"`
	BatchID              string  `json:"batch_id" db:"batch_id"`
	OverallScore         int     `json:"overall_score" db:"overall_score"`
	DimensionScores      string  `json:"dimension_scores" db:"dimension_scores"`
	DisplayRank          int     `json:"display_rank" db:"display_rank"`
	Decision             *string `json:"decision,omitempty" db:"decision"`
	DecisionAt           *int64  `json:"decision_at,omitempty" db:"decision_at"`
	ChallengeResponse    *string `json:"challenge_response,omitempty" db:"challenge_response"`
	ChallengeRespondedAt *int64  `json:"challenge_responded_at,omitempty" db:"challenge_responded_at"`
	Notes                *string `json:"notes,omitempty" db:"notes"`
	AdHoc                bool    `json:"ad_hoc" db:"ad_hoc"`
	Superseded           bool    `json:"superseded" db:"superseded"`
	Created              int64   `json:"created" db:"created"`
}

// Terminal reports whether this match carries a decision or challenge
// response; terminal matches are excluded from recomputation.
func (m *Match) Terminal() bool {
	return m.Decision != nil || m.ChallengeResponse != nil
}

// DimensionMap decodes the per-dimension score breakdown.
func (m *Match) DimensionMap() (map[string]int, error) {
	out := map[string]int{}
	if err := json.Unmarshal([]byte(m.DimensionScores), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChallengeSubmission is attached to a match once the candidate completes the
// optional skills assessment. FinalScore merges auto and human grading.
type ChallengeSubmission struct {
	ID                  int64   `json:"id" db:"id"`
	MatchID             int64   `json:"match_id" db:"match_id"`
	Content             string  `json:"content" db:"content"`
	AutoScore           *int    `json:"auto_score,omitempty" db:"auto_score"`
	HumanScore          *int    `json:"human_score,omitempty" db:"human_score"`
	HumanFeedback       *string `json:"human_feedback,omitempty" db:"human_feedback"`
	ReviewerName        *string `json:"reviewer_name,omitempty" db:"reviewer_name"`
	ReviewerLinkedInURL *string `json:"reviewer_linkedin_url,omitempty" db:"reviewer_linkedin_url"`
	FinalScore          *int    `json:"final_score,omitempty" db:"final_score"`
	ReviewedAt          *int64  `json:"reviewed_at,omitempty" db:"reviewed_at"`
	Created             int64   `json:"created" db:"created"`
}

// ATSConnection holds the credentials and sync bookkeeping for one
// (company, provider) pair. Sync failures only record the error; the
// connection is never removed.
type ATSConnection struct {
	ID            int64   `json:"id" db:"id"`
	CompanyID     int64   `json:"company_id" db:"company_id"`
	Provider      string  `json:"provider" db:"provider"`
	APIKey        string  `json:"-" db:"api_key"`
	LastSyncAt    *int64  `json:"last_sync_at,omitempty" db:"last_sync_at"`
	LastSyncError *string `json:"last_sync_error,omitempty" db:"last_sync_error"`
	Created       int64   `json:"created" db:"created"`
	Updated       int64   `json:"updated" db:"updated"`
}
