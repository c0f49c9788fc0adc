package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/garnizeh/curator/internal/crawl"
	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/internal/match"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
)

type ProfilesHandler struct {
	companies repository.CompanyProfileRepo
	engineers repository.EngineerProfileRepo
	queue     Enqueuer
}

func NewProfilesHandler(cr repository.CompanyProfileRepo, er repository.EngineerProfileRepo, queue Enqueuer) *ProfilesHandler {
	return &ProfilesHandler{companies: cr, engineers: er, queue: queue}
}

func pathID(r *http.Request, key string) (int64, bool) {
	idStr := muxVar(r, key)
	id, err := strconv.ParseInt(idStr, 10, 64)
	return id, err == nil && id > 0
}

type companyCrawlRequest struct {
	WebsiteURL  string `json:"website_url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

type engineerCrawlRequest struct {
	GitHubURL    string `json:"github_url,omitempty"`
	PortfolioURL string `json:"portfolio_url,omitempty"`
}

// CompanyCrawl starts the background ingestion for a company. The transition
// into crawling is a compare-and-swap; a clean crawl already in flight makes
// the second trigger a 409.
func (h *ProfilesHandler) CompanyCrawl(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}

	var req companyCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	seeds := crawl.CompanySeeds{WebsiteURL: req.WebsiteURL, LinkedInURL: req.LinkedInURL}
	if seeds.Empty() {
		http.Error(w, "at least one of website_url or linkedin_url is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := h.companies.UpsertCompanyProfile(ctx, companyID); err != nil {
		http.Error(w, "failed to prepare profile", http.StatusInternalServerError)
		return
	}

	started, err := h.companies.BeginCompanyCrawl(ctx, companyID)
	if err != nil {
		http.Error(w, "failed to start crawl", http.StatusInternalServerError)
		return
	}
	if !started {
		http.Error(w, "crawl already in progress", http.StatusConflict)
		return
	}

	payload := map[string]any{"company_id": companyID, "website_url": req.WebsiteURL, "linkedin_url": req.LinkedInURL}
	if err := enqueue(ctx, h.queue, jobs.TypeCrawlCompany, payload); err != nil {
		logger.Error("enqueue company crawl", slog.Int64("company_id", companyID), slog.Any("err", err))
		http.Error(w, "failed to schedule crawl", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "crawling"}, http.StatusAccepted)
}

func (h *ProfilesHandler) GetCompanyProfile(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}

	p, err := h.companies.GetCompanyProfile(r.Context(), companyID)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, p, http.StatusOK)
}

type questionnaireRequest struct {
	Section string          `json:"section"`
	Answers json.RawMessage `json:"answers"`
}

// CompanyQuestionnaire persists one questionnaire section. When the last
// required section lands the summarization job is enqueued; the worker
// advances the profile to complete.
func (h *ProfilesHandler) CompanyQuestionnaire(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}

	var req questionnaireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	switch req.Section {
	case repository.CompanySectionCulture, repository.CompanySectionMission, repository.CompanySectionTeamDynamics:
	default:
		http.Error(w, "unknown section", http.StatusBadRequest)
		return
	}
	if len(req.Answers) == 0 || !json.Valid(req.Answers) {
		http.Error(w, "answers must be a JSON document", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := h.companies.SetCompanySection(ctx, companyID, req.Section, string(req.Answers)); err != nil {
		http.Error(w, "failed to store section", http.StatusInternalServerError)
		return
	}

	p, err := h.companies.GetCompanyProfile(ctx, companyID)
	if err != nil || p == nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	if p.QuestionnaireDone() && p.Status == models.ProfileQuestionnaire {
		payload := map[string]int64{"company_id": companyID}
		if err := enqueue(ctx, h.queue, jobs.TypeSummarizeCompany, payload); err != nil {
			logger.Warn("enqueue company summarize", slog.Int64("company_id", companyID), slog.Any("err", err))
		}
	}

	writeJSON(w, p, http.StatusOK)
}

func (h *ProfilesHandler) EngineerCrawl(w http.ResponseWriter, r *http.Request) {
	engineerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid engineer id", http.StatusBadRequest)
		return
	}

	var req engineerCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	seeds := crawl.EngineerSeeds{GitHubURL: req.GitHubURL, PortfolioURL: req.PortfolioURL}
	if seeds.Empty() {
		http.Error(w, "at least one of github_url or portfolio_url is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := h.engineers.UpsertEngineerProfile(ctx, engineerID); err != nil {
		http.Error(w, "failed to prepare profile", http.StatusInternalServerError)
		return
	}

	started, err := h.engineers.BeginEngineerCrawl(ctx, engineerID)
	if err != nil {
		http.Error(w, "failed to start crawl", http.StatusInternalServerError)
		return
	}
	if !started {
		http.Error(w, "crawl already in progress", http.StatusConflict)
		return
	}

	payload := map[string]any{"engineer_id": engineerID, "github_url": req.GitHubURL, "portfolio_url": req.PortfolioURL}
	if err := enqueue(ctx, h.queue, jobs.TypeCrawlEngineer, payload); err != nil {
		logger.Error("enqueue engineer crawl", slog.Int64("engineer_id", engineerID), slog.Any("err", err))
		http.Error(w, "failed to schedule crawl", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "crawling"}, http.StatusAccepted)
}

func (h *ProfilesHandler) GetEngineerProfile(w http.ResponseWriter, r *http.Request) {
	engineerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid engineer id", http.StatusBadRequest)
		return
	}

	p, err := h.engineers.GetEngineerProfile(r.Context(), engineerID)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, p, http.StatusOK)
}

func (h *ProfilesHandler) EngineerQuestionnaire(w http.ResponseWriter, r *http.Request) {
	engineerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid engineer id", http.StatusBadRequest)
		return
	}

	var req questionnaireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	switch req.Section {
	case repository.EngineerSectionWorkPreferences, repository.EngineerSectionCareerGrowth,
		repository.EngineerSectionStrengths, repository.EngineerSectionGrowthAreas,
		repository.EngineerSectionDealBreakers, repository.EngineerSectionPriorityRatings:
	default:
		http.Error(w, "unknown section", http.StatusBadRequest)
		return
	}
	if len(req.Answers) == 0 || !json.Valid(req.Answers) {
		http.Error(w, "answers must be a JSON document", http.StatusBadRequest)
		return
	}
	if req.Section == repository.EngineerSectionPriorityRatings {
		if err := validatePriorityRatings(req.Answers); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	if err := h.engineers.SetEngineerSection(ctx, engineerID, req.Section, string(req.Answers)); err != nil {
		http.Error(w, "failed to store section", http.StatusInternalServerError)
		return
	}

	p, err := h.engineers.GetEngineerProfile(ctx, engineerID)
	if err != nil || p == nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	if p.QuestionnaireDone() && p.Status == models.ProfileQuestionnaire {
		payload := map[string]int64{"engineer_id": engineerID}
		if err := enqueue(ctx, h.queue, jobs.TypeSummarizeEngineer, payload); err != nil {
			logger.Warn("enqueue engineer summarize", slog.Int64("engineer_id", engineerID), slog.Any("err", err))
		}
	}

	writeJSON(w, p, http.StatusOK)
}

// validatePriorityRatings requires a rating between 1 and 5 for known fit
// dimensions only.
func validatePriorityRatings(raw json.RawMessage) error {
	ratings := map[string]int{}
	if err := json.Unmarshal(raw, &ratings); err != nil {
		return errInvalidRatings
	}
	known := map[string]bool{}
	for _, d := range match.Dimensions {
		known[d] = true
	}
	for dim, v := range ratings {
		if !known[dim] || v < 1 || v > 5 {
			return errInvalidRatings
		}
	}
	return nil
}
