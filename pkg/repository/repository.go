package repository

import (
	"context"

	"github.com/garnizeh/curator/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type AccountRepo interface {
	CreateAccount(ctx context.Context, a *models.Account) (int64, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Company questionnaire sections. Only these names are writable; anything
// else is a validation error.
const (
	CompanySectionCulture      = "culture"
	CompanySectionMission      = "mission"
	CompanySectionTeamDynamics = "team_dynamics"
)

type CompanyProfileRepo interface {
	// UpsertCompanyProfile creates the draft profile row for a company if it
	// does not exist yet and returns the current row either way.
	UpsertCompanyProfile(ctx context.Context, companyID int64) (*models.CompanyProfile, error)
	GetCompanyProfile(ctx context.Context, companyID int64) (*models.CompanyProfile, error)
	// BeginCompanyCrawl is a compare-and-swap transition into `crawling` that
	// clears crawl_error. It returns false when a clean crawl is already in
	// flight for the company.
	BeginCompanyCrawl(ctx context.Context, companyID int64) (bool, error)
	SetCompanyCrawlError(ctx context.Context, companyID int64, msg string) error
	// SetCompanyDNA persists crawl output and advances crawling→questionnaire.
	SetCompanyDNA(ctx context.Context, companyID int64, dna, techEnv string) (bool, error)
	SetCompanySection(ctx context.Context, companyID int64, section, answers string) error
	// SetCompanySummary stores the generated summary and advances
	// questionnaire→complete.
	SetCompanySummary(ctx context.Context, companyID int64, summary string) error
}

// Engineer questionnaire sections.
const (
	EngineerSectionWorkPreferences = "work_preferences"
	EngineerSectionCareerGrowth    = "career_growth"
	EngineerSectionStrengths       = "strengths"
	EngineerSectionGrowthAreas     = "growth_areas"
	EngineerSectionDealBreakers    = "deal_breakers"
	EngineerSectionPriorityRatings = "priority_ratings"
)

type EngineerProfileRepo interface {
	UpsertEngineerProfile(ctx context.Context, engineerID int64) (*models.EngineerProfile, error)
	GetEngineerProfile(ctx context.Context, engineerID int64) (*models.EngineerProfile, error)
	BeginEngineerCrawl(ctx context.Context, engineerID int64) (bool, error)
	SetEngineerCrawlError(ctx context.Context, engineerID int64, msg string) error
	SetEngineerDNA(ctx context.Context, engineerID int64, crawlData, dna string) (bool, error)
	SetEngineerSection(ctx context.Context, engineerID int64, section, answers string) error
	// BackfillQuestionnaireCompletedAt stamps the completion timestamp only
	// when it is still NULL. Tolerated historical inconsistency: a profile may
	// reach `complete` before the stamp exists.
	BackfillQuestionnaireCompletedAt(ctx context.Context, engineerID, ts int64) error
	SetEngineerSummary(ctx context.Context, engineerID int64, summary string) error
}

type RoleRepo interface {
	CreateRole(ctx context.Context, r *models.Role) (int64, error)
	GetRole(ctx context.Context, id int64) (*models.Role, error)
	GetRoleBySlug(ctx context.Context, slug string) (*models.Role, error)
	SetRoleStatus(ctx context.Context, id int64, status string) error
	// TransitionRole flips status only when the row is currently in `from`.
	TransitionRole(ctx context.Context, id int64, from, to string) (bool, error)
	SetRoleBeautifiedJD(ctx context.Context, id int64, jd string) error
	ListActiveRoles(ctx context.Context) ([]models.Role, error)
	// UpsertExternalRole inserts or updates a role keyed by
	// (company_id, source, external_id). Returns the role id and whether the
	// posting content changed (new row or updated raw text).
	UpsertExternalRole(ctx context.Context, r *models.Role) (int64, bool, error)
}

type MatchRepo interface {
	InsertMatches(ctx context.Context, ms []*models.Match) error
	// SupersedeMatchesForRole hides the previously displayed set for a role.
	// Terminal matches (decision or challenge_response present) and ad-hoc
	// history are never touched.
	SupersedeMatchesForRole(ctx context.Context, roleID int64) error
	SupersedeMatchesForEngineer(ctx context.Context, engineerID int64) error
	// ListMatchesForRole is the default listing view: superseded matches and
	// terminal matches (decision or challenge_response present) are excluded.
	ListMatchesForRole(ctx context.Context, roleID int64) ([]models.Match, error)
	ListMatchesForEngineer(ctx context.Context, engineerID int64) ([]models.Match, error)
	// ListMatchHistoryForRole returns every non-superseded match including
	// terminal rows, so recomputation can exclude decided pairs.
	ListMatchHistoryForRole(ctx context.Context, roleID int64) ([]models.Match, error)
	ListMatchHistoryForEngineer(ctx context.Context, engineerID int64) ([]models.Match, error)
	GetMatch(ctx context.Context, id int64) (*models.Match, error)
	SetMatchDecision(ctx context.Context, id int64, decision string, at int64) error
	// SetChallengeResponse records accepted/declined on the non-superseded
	// match found via role public_slug + engineer email. Returns false when
	// no such match exists.
	SetChallengeResponse(ctx context.Context, slug, email, response string, at int64) (bool, error)
	// AttachBatchNotes is a best-effort secondary write over an ad-hoc batch.
	AttachBatchNotes(ctx context.Context, batchID, notes string) error
}

type ChallengeRepo interface {
	GetSubmissionByMatchID(ctx context.Context, matchID int64) (*models.ChallengeSubmission, error)
	CreateSubmission(ctx context.Context, matchID int64, content string) (int64, error)
	SetAutoScore(ctx context.Context, matchID int64, score int) error
	// ReviewSubmission persists the human review fields plus the merged
	// final_score and reviewed_at in one update.
	ReviewSubmission(ctx context.Context, matchID int64, s *models.ChallengeSubmission) error
}

type ATSRepo interface {
	UpsertATSConnection(ctx context.Context, c *models.ATSConnection) (int64, error)
	GetATSConnection(ctx context.Context, companyID int64, provider string) (*models.ATSConnection, error)
	// RecordSyncResult stamps last_sync_at unconditionally and last_sync_error
	// with the failure message (nil on success). The connection row survives
	// every failure.
	RecordSyncResult(ctx context.Context, companyID int64, provider string, at int64, syncErr *string) error
}

type JobRepo interface {
	Enqueue(ctx context.Context, j *models.BackgroundJob) (int64, error)
	FetchNext(ctx context.Context) (*models.BackgroundJob, error)
	UpdateJob(ctx context.Context, j *models.BackgroundJob) error
	MoveToDeadLetter(ctx context.Context, j *models.BackgroundJob) error
}
