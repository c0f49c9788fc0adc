package mock

import (
	"context"
	"encoding/json"

	"github.com/garnizeh/curator/pkg/models"
)

// Test helpers and mocks for the repository interfaces. State is exported so
// tests can seed and assert directly.

type Mocks struct {
	Accounts    *AccountRepo
	Companies   *CompanyProfileRepo
	Engineers   *EngineerProfileRepo
	Roles       *RoleRepo
	Matches     *MatchRepo
	Challenges  *ChallengeRepo
	Connections *ATSRepo
	Queue       *Queue
}

func NewMocks() *Mocks {
	return &Mocks{
		Accounts:    &AccountRepo{},
		Companies:   &CompanyProfileRepo{},
		Engineers:   &EngineerProfileRepo{},
		Roles:       &RoleRepo{},
		Matches:     &MatchRepo{},
		Challenges:  &ChallengeRepo{},
		Connections: &ATSRepo{},
		Queue:       &Queue{},
	}
}

type AccountRepo struct {
	Stored    *models.Account
	CreateErr error
}

func (m *AccountRepo) CreateAccount(ctx context.Context, a *models.Account) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.Stored = &models.Account{ID: 1, Kind: a.Kind, Name: a.Name, Email: a.Email, PasswordHash: a.PasswordHash}
	return 1, nil
}

func (m *AccountRepo) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *AccountRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

type CompanyProfileRepo struct {
	Profiles    map[int64]*models.CompanyProfile
	BeginOK     bool
	BeginErr    error
	CrawlErrors []string
	Sections    map[string]string
	Summary     string
}

// Put seeds a profile for its company id.
func (m *CompanyProfileRepo) Put(p *models.CompanyProfile) {
	if m.Profiles == nil {
		m.Profiles = map[int64]*models.CompanyProfile{}
	}
	m.Profiles[p.CompanyID] = p
}

func (m *CompanyProfileRepo) UpsertCompanyProfile(ctx context.Context, companyID int64) (*models.CompanyProfile, error) {
	if p := m.Profiles[companyID]; p != nil {
		return p, nil
	}
	p := &models.CompanyProfile{ID: companyID, CompanyID: companyID, Status: models.ProfileDraft}
	m.Put(p)
	return p, nil
}

func (m *CompanyProfileRepo) GetCompanyProfile(ctx context.Context, companyID int64) (*models.CompanyProfile, error) {
	return m.Profiles[companyID], nil
}

func (m *CompanyProfileRepo) BeginCompanyCrawl(ctx context.Context, companyID int64) (bool, error) {
	if m.BeginErr != nil {
		return false, m.BeginErr
	}
	if p := m.Profiles[companyID]; m.BeginOK && p != nil {
		p.Status = models.ProfileCrawling
		p.CrawlError = nil
	}
	return m.BeginOK, nil
}

func (m *CompanyProfileRepo) SetCompanyCrawlError(ctx context.Context, companyID int64, msg string) error {
	m.CrawlErrors = append(m.CrawlErrors, msg)
	if p := m.Profiles[companyID]; p != nil {
		p.CrawlError = &msg
	}
	return nil
}

func (m *CompanyProfileRepo) SetCompanyDNA(ctx context.Context, companyID int64, dna, techEnv string) (bool, error) {
	p := m.Profiles[companyID]
	if p == nil || p.Status != models.ProfileCrawling {
		return false, nil
	}
	p.CompanyDNA = &dna
	p.TechnicalEnvironment = &techEnv
	p.Status = models.ProfileQuestionnaire
	return true, nil
}

func (m *CompanyProfileRepo) SetCompanySection(ctx context.Context, companyID int64, section, answers string) error {
	if m.Sections == nil {
		m.Sections = map[string]string{}
	}
	m.Sections[section] = answers
	if p := m.Profiles[companyID]; p != nil {
		switch section {
		case "culture":
			p.CultureAnswers = &answers
		case "mission":
			p.MissionAnswers = &answers
		case "team_dynamics":
			p.TeamDynamicsAnswers = &answers
		}
	}
	return nil
}

func (m *CompanyProfileRepo) SetCompanySummary(ctx context.Context, companyID int64, summary string) error {
	m.Summary = summary
	if p := m.Profiles[companyID]; p != nil {
		p.ProfileSummary = &summary
		p.Status = models.ProfileComplete
	}
	return nil
}

type EngineerProfileRepo struct {
	Profiles     map[int64]*models.EngineerProfile
	BeginOK      bool
	BeginErr     error
	CrawlErrors  []string
	Sections     map[string]string
	Summary      string
	BackfilledAt []int64
}

// Put seeds a profile for its engineer id.
func (m *EngineerProfileRepo) Put(p *models.EngineerProfile) {
	if m.Profiles == nil {
		m.Profiles = map[int64]*models.EngineerProfile{}
	}
	m.Profiles[p.EngineerID] = p
}

func (m *EngineerProfileRepo) UpsertEngineerProfile(ctx context.Context, engineerID int64) (*models.EngineerProfile, error) {
	if p := m.Profiles[engineerID]; p != nil {
		return p, nil
	}
	p := &models.EngineerProfile{ID: engineerID, EngineerID: engineerID, Status: models.ProfileDraft}
	m.Put(p)
	return p, nil
}

func (m *EngineerProfileRepo) GetEngineerProfile(ctx context.Context, engineerID int64) (*models.EngineerProfile, error) {
	return m.Profiles[engineerID], nil
}

func (m *EngineerProfileRepo) BeginEngineerCrawl(ctx context.Context, engineerID int64) (bool, error) {
	if m.BeginErr != nil {
		return false, m.BeginErr
	}
	if p := m.Profiles[engineerID]; m.BeginOK && p != nil {
		p.Status = models.ProfileCrawling
		p.CrawlError = nil
	}
	return m.BeginOK, nil
}

func (m *EngineerProfileRepo) SetEngineerCrawlError(ctx context.Context, engineerID int64, msg string) error {
	m.CrawlErrors = append(m.CrawlErrors, msg)
	if p := m.Profiles[engineerID]; p != nil {
		p.CrawlError = &msg
	}
	return nil
}

func (m *EngineerProfileRepo) SetEngineerDNA(ctx context.Context, engineerID int64, crawlData, dna string) (bool, error) {
	p := m.Profiles[engineerID]
	if p == nil || p.Status != models.ProfileCrawling {
		return false, nil
	}
	p.CrawlData = &crawlData
	p.EngineerDNA = &dna
	p.Status = models.ProfileQuestionnaire
	return true, nil
}

func (m *EngineerProfileRepo) SetEngineerSection(ctx context.Context, engineerID int64, section, answers string) error {
	if m.Sections == nil {
		m.Sections = map[string]string{}
	}
	m.Sections[section] = answers
	if p := m.Profiles[engineerID]; p != nil {
		switch section {
		case "work_preferences":
			p.WorkPreferences = &answers
		case "career_growth":
			p.CareerGrowth = &answers
		case "strengths":
			p.Strengths = &answers
		case "growth_areas":
			p.GrowthAreas = &answers
		case "deal_breakers":
			p.DealBreakers = &answers
		case "priority_ratings":
			p.PriorityRatings = &answers
		}
	}
	return nil
}

func (m *EngineerProfileRepo) BackfillQuestionnaireCompletedAt(ctx context.Context, engineerID, ts int64) error {
	m.BackfilledAt = append(m.BackfilledAt, ts)
	if p := m.Profiles[engineerID]; p != nil && p.QuestionnaireCompletedAt == nil {
		p.QuestionnaireCompletedAt = &ts
	}
	return nil
}

func (m *EngineerProfileRepo) SetEngineerSummary(ctx context.Context, engineerID int64, summary string) error {
	m.Summary = summary
	if p := m.Profiles[engineerID]; p != nil {
		p.ProfileSummary = &summary
		p.Status = models.ProfileComplete
	}
	return nil
}

type RoleRepo struct {
	Roles     map[int64]*models.Role
	NextID    int64
	CreateErr error
	Upserted  []models.Role
	Changed   bool
}

func (m *RoleRepo) put(r *models.Role) int64 {
	if m.Roles == nil {
		m.Roles = map[int64]*models.Role{}
	}
	m.NextID++
	r.ID = m.NextID
	m.Roles[r.ID] = r
	return r.ID
}

func (m *RoleRepo) CreateRole(ctx context.Context, r *models.Role) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	return m.put(r), nil
}

func (m *RoleRepo) GetRole(ctx context.Context, id int64) (*models.Role, error) {
	return m.Roles[id], nil
}

func (m *RoleRepo) GetRoleBySlug(ctx context.Context, slug string) (*models.Role, error) {
	for _, r := range m.Roles {
		if r.PublicSlug == slug {
			return r, nil
		}
	}
	return nil, nil
}

func (m *RoleRepo) SetRoleStatus(ctx context.Context, id int64, status string) error {
	if r := m.Roles[id]; r != nil {
		r.Status = status
	}
	return nil
}

func (m *RoleRepo) TransitionRole(ctx context.Context, id int64, from, to string) (bool, error) {
	r := m.Roles[id]
	if r == nil || r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (m *RoleRepo) SetRoleBeautifiedJD(ctx context.Context, id int64, jd string) error {
	if r := m.Roles[id]; r != nil {
		r.BeautifiedJD = &jd
	}
	return nil
}

func (m *RoleRepo) ListActiveRoles(ctx context.Context) ([]models.Role, error) {
	var out []models.Role
	for _, r := range m.Roles {
		if r.Status == models.RoleActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *RoleRepo) UpsertExternalRole(ctx context.Context, r *models.Role) (int64, bool, error) {
	m.Upserted = append(m.Upserted, *r)
	for _, stored := range m.Roles {
		if stored.Source != nil && r.Source != nil && *stored.Source == *r.Source &&
			stored.ExternalID != nil && r.ExternalID != nil && *stored.ExternalID == *r.ExternalID {
			changed := stored.Title != r.Title
			if stored.RawText == nil || r.RawText == nil || *stored.RawText != *r.RawText {
				changed = true
			}
			stored.Title = r.Title
			stored.RawText = r.RawText
			stored.SourceURL = r.SourceURL
			return stored.ID, changed, nil
		}
	}
	return m.put(r), true, nil
}

type MatchRepo struct {
	Stored             []*models.Match
	NextID             int64
	SupersededRoles    []int64
	SupersededEngineer []int64
	Decisions          map[int64]string
	Responses          []string
	ResponseFound      bool
	Notes              map[string]string
	InsertErr          error
	ListErr            error
}

func (m *MatchRepo) InsertMatches(ctx context.Context, ms []*models.Match) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	for _, mm := range ms {
		m.NextID++
		mm.ID = m.NextID
		m.Stored = append(m.Stored, mm)
	}
	return nil
}

func (m *MatchRepo) SupersedeMatchesForRole(ctx context.Context, roleID int64) error {
	m.SupersededRoles = append(m.SupersededRoles, roleID)
	for _, mm := range m.Stored {
		if mm.RoleID != nil && *mm.RoleID == roleID && !mm.AdHoc && !mm.Terminal() {
			mm.Superseded = true
		}
	}
	return nil
}

func (m *MatchRepo) SupersedeMatchesForEngineer(ctx context.Context, engineerID int64) error {
	m.SupersededEngineer = append(m.SupersededEngineer, engineerID)
	for _, mm := range m.Stored {
		if mm.EngineerID == engineerID && !mm.AdHoc && !mm.Terminal() {
			mm.Superseded = true
		}
	}
	return nil
}

func (m *MatchRepo) ListMatchesForRole(ctx context.Context, roleID int64) ([]models.Match, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []models.Match
	for _, mm := range m.Stored {
		if mm.RoleID != nil && *mm.RoleID == roleID && !mm.Superseded && !mm.Terminal() {
			out = append(out, *mm)
		}
	}
	return out, nil
}

func (m *MatchRepo) ListMatchesForEngineer(ctx context.Context, engineerID int64) ([]models.Match, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []models.Match
	for _, mm := range m.Stored {
		if mm.EngineerID == engineerID && !mm.Superseded && !mm.Terminal() {
			out = append(out, *mm)
		}
	}
	return out, nil
}

func (m *MatchRepo) ListMatchHistoryForRole(ctx context.Context, roleID int64) ([]models.Match, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []models.Match
	for _, mm := range m.Stored {
		if mm.RoleID != nil && *mm.RoleID == roleID && !mm.Superseded {
			out = append(out, *mm)
		}
	}
	return out, nil
}

func (m *MatchRepo) ListMatchHistoryForEngineer(ctx context.Context, engineerID int64) ([]models.Match, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []models.Match
	for _, mm := range m.Stored {
		if mm.EngineerID == engineerID && !mm.Superseded {
			out = append(out, *mm)
		}
	}
	return out, nil
}

func (m *MatchRepo) GetMatch(ctx context.Context, id int64) (*models.Match, error) {
	for _, mm := range m.Stored {
		if mm.ID == id {
			return mm, nil
		}
	}
	return nil, nil
}

func (m *MatchRepo) SetMatchDecision(ctx context.Context, id int64, decision string, at int64) error {
	if m.Decisions == nil {
		m.Decisions = map[int64]string{}
	}
	m.Decisions[id] = decision
	for _, mm := range m.Stored {
		if mm.ID == id {
			mm.Decision = &decision
			mm.DecisionAt = &at
		}
	}
	return nil
}

func (m *MatchRepo) SetChallengeResponse(ctx context.Context, slug, email, response string, at int64) (bool, error) {
	m.Responses = append(m.Responses, response)
	return m.ResponseFound, nil
}

func (m *MatchRepo) AttachBatchNotes(ctx context.Context, batchID, notes string) error {
	if m.Notes == nil {
		m.Notes = map[string]string{}
	}
	m.Notes[batchID] = notes
	return nil
}

type ChallengeRepo struct {
	Submission *models.ChallengeSubmission
	AutoScores map[int64]int
	Reviewed   *models.ChallengeSubmission
}

func (m *ChallengeRepo) GetSubmissionByMatchID(ctx context.Context, matchID int64) (*models.ChallengeSubmission, error) {
	if m.Submission != nil && m.Submission.MatchID == matchID {
		return m.Submission, nil
	}
	return nil, nil
}

func (m *ChallengeRepo) CreateSubmission(ctx context.Context, matchID int64, content string) (int64, error) {
	m.Submission = &models.ChallengeSubmission{ID: 1, MatchID: matchID, Content: content}
	return 1, nil
}

func (m *ChallengeRepo) SetAutoScore(ctx context.Context, matchID int64, score int) error {
	if m.AutoScores == nil {
		m.AutoScores = map[int64]int{}
	}
	m.AutoScores[matchID] = score
	if m.Submission != nil && m.Submission.MatchID == matchID {
		m.Submission.AutoScore = &score
	}
	return nil
}

func (m *ChallengeRepo) ReviewSubmission(ctx context.Context, matchID int64, s *models.ChallengeSubmission) error {
	m.Reviewed = s
	return nil
}

type ATSRepo struct {
	Connection  *models.ATSConnection
	SyncResults []SyncResult
}

type SyncResult struct {
	CompanyID int64
	Provider  string
	At        int64
	Err       *string
}

func (m *ATSRepo) UpsertATSConnection(ctx context.Context, c *models.ATSConnection) (int64, error) {
	c.ID = 1
	m.Connection = c
	return 1, nil
}

func (m *ATSRepo) GetATSConnection(ctx context.Context, companyID int64, provider string) (*models.ATSConnection, error) {
	if m.Connection != nil && m.Connection.CompanyID == companyID && m.Connection.Provider == provider {
		return m.Connection, nil
	}
	return nil, nil
}

func (m *ATSRepo) RecordSyncResult(ctx context.Context, companyID int64, provider string, at int64, syncErr *string) error {
	m.SyncResults = append(m.SyncResults, SyncResult{CompanyID: companyID, Provider: provider, At: at, Err: syncErr})
	if m.Connection != nil {
		m.Connection.LastSyncAt = &at
		m.Connection.LastSyncError = syncErr
	}
	return nil
}

// Queue records enqueued jobs instead of running them.
type Queue struct {
	Jobs       []QueuedJob
	EnqueueErr error
}

type QueuedJob struct {
	Type    string
	Payload json.RawMessage
}

func (q *Queue) Enqueue(ctx context.Context, typ string, payload any, priority, maxAttempts int) (int64, error) {
	if q.EnqueueErr != nil {
		return 0, q.EnqueueErr
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	q.Jobs = append(q.Jobs, QueuedJob{Type: typ, Payload: b})
	return int64(len(q.Jobs)), nil
}
