package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/garnizeh/curator/internal/ai"
	"github.com/garnizeh/curator/internal/ats"
	"github.com/garnizeh/curator/internal/crawl"
	"github.com/garnizeh/curator/internal/extract"
	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/internal/match"
	"github.com/garnizeh/curator/internal/repository/sqlite"
	"github.com/garnizeh/curator/pkg/models"
)

// buildJobHandlers registers one handler per job type. Handlers own all
// outcome persistence; a returned error means the job should retry.
func buildJobHandlers(
	repo *sqlite.SQLiteRepo,
	engine *ai.Engine,
	pipeline *crawl.Pipeline,
	extractor *extract.Extractor,
	matcher *match.Engine,
	syncer *ats.Syncer,
	logger *slog.Logger,
) map[string]jobs.Handler {
	return map[string]jobs.Handler{
		jobs.TypeCrawlCompany: func(ctx context.Context, j *models.BackgroundJob) error {
			var p struct {
				CompanyID   int64  `json:"company_id"`
				WebsiteURL  string `json:"website_url"`
				LinkedInURL string `json:"linkedin_url"`
			}
			if err := json.Unmarshal(j.Payload, &p); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			return pipeline.RunCompany(ctx, p.CompanyID, crawl.CompanySeeds{
				WebsiteURL:  p.WebsiteURL,
				LinkedInURL: p.LinkedInURL,
			})
		},

		jobs.TypeCrawlEngineer: func(ctx context.Context, j *models.BackgroundJob) error {
			var p struct {
				EngineerID   int64  `json:"engineer_id"`
				GitHubURL    string `json:"github_url"`
				PortfolioURL string `json:"portfolio_url"`
			}
			if err := json.Unmarshal(j.Payload, &p); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			return pipeline.RunEngineer(ctx, p.EngineerID, crawl.EngineerSeeds{
				GitHubURL:    p.GitHubURL,
				PortfolioURL: p.PortfolioURL,
			})
		},

		jobs.TypeSummarizeCompany: func(ctx context.Context, j *models.BackgroundJob) error {
			var p struct {
				CompanyID int64 `json:"company_id"`
			}
			if err := json.Unmarshal(j.Payload, &p); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			profile, err := repo.GetCompanyProfile(ctx, p.CompanyID)
			if err != nil {
				return err
			}
			if profile == nil {
				logger.Warn("summarize: company profile missing", "company_id", p.CompanyID)
				return nil
			}
			summary, err := engine.SummarizeCompany(ctx, profile)
			if err != nil {
				return err
			}
			return repo.SetCompanySummary(ctx, p.CompanyID, summary)
		},

		jobs.TypeSummarizeEngineer: func(ctx context.Context, j *models.BackgroundJob) error {
			var p struct {
				EngineerID int64 `json:"engineer_id"`
			}
			if err := json.Unmarshal(j.Payload, &p); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			profile, err := repo.GetEngineerProfile(ctx, p.EngineerID)
			if err != nil {
				return err
			}
			if profile == nil {
				logger.Warn("summarize: engineer profile missing", "engineer_id", p.EngineerID)
				return nil
			}
			summary, err := engine.SummarizeEngineer(ctx, profile)
			if err != nil {
				return err
			}
			// older rows may have completed the questionnaire without a stamp
			if err := repo.BackfillQuestionnaireCompletedAt(ctx, p.EngineerID, time.Now().UnixMilli()); err != nil {
				return err
			}
			return repo.SetEngineerSummary(ctx, p.EngineerID, summary)
		},

		jobs.TypeBeautifyRole: func(ctx context.Context, j *models.BackgroundJob) error {
			var p struct {
				RoleID int64 `json:"role_id"`
			}
			if err := json.Unmarshal(j.Payload, &p); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			return beautifyRole(ctx, repo, engine, extractor, p.RoleID, logger)
		},

		jobs.TypeRecomputeEngineer: func(ctx context.Context, j *models.BackgroundJob) error {
			var p struct {
				EngineerID int64 `json:"engineer_id"`
			}
			if err := json.Unmarshal(j.Payload, &p); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			_, err := matcher.ComputeForEngineer(ctx, p.EngineerID)
			if errors.Is(err, match.ErrProfileIneligible) {
				// retrying cannot help until the profile changes
				logger.Warn("recompute skipped", "engineer_id", p.EngineerID, "err", err)
				return nil
			}
			return err
		},

		jobs.TypeATSSync: func(ctx context.Context, j *models.BackgroundJob) error {
			var p struct {
				CompanyID int64  `json:"company_id"`
				Provider  string `json:"provider"`
			}
			if err := json.Unmarshal(j.Payload, &p); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			_, err := syncer.Sync(ctx, p.CompanyID, p.Provider)
			return err
		},

		jobs.TypeAutoGrade: func(ctx context.Context, j *models.BackgroundJob) error {
			var p struct {
				MatchID int64 `json:"match_id"`
			}
			if err := json.Unmarshal(j.Payload, &p); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			return autogradeSubmission(ctx, repo, engine, p.MatchID, logger)
		},
	}
}

// beautifyRole extracts the posting when only a source URL is stored, runs
// the structuring pass, and activates the role.
func beautifyRole(ctx context.Context, repo *sqlite.SQLiteRepo, engine *ai.Engine, extractor *extract.Extractor, roleID int64, logger *slog.Logger) error {
	role, err := repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role == nil {
		logger.Warn("beautify: role missing", "role_id", roleID)
		return nil
	}

	if ok, err := repo.TransitionRole(ctx, roleID, models.RoleDraft, models.RoleBeautifying); err != nil {
		return err
	} else if !ok {
		// re-beautification of an already active role (ATS content change)
		if _, err := repo.TransitionRole(ctx, roleID, models.RoleActive, models.RoleBeautifying); err != nil {
			return err
		}
	}

	title := role.Title
	rawText := ""
	switch {
	case role.RawText != nil:
		rawText = *role.RawText
	case role.SourceURL != nil:
		posting, err := extractor.FromURL(ctx, *role.SourceURL)
		if err != nil {
			return fmt.Errorf("extract posting: %w", err)
		}
		rawText = posting.RawText
		if title == "" {
			title = posting.Title
		}
	default:
		logger.Warn("beautify: role has no text or source", "role_id", roleID)
		return nil
	}

	jd, err := engine.BeautifyJD(ctx, title, rawText)
	if err != nil {
		return fmt.Errorf("beautify: %w", err)
	}
	jdJSON, err := json.Marshal(jd)
	if err != nil {
		return err
	}

	if err := repo.SetRoleBeautifiedJD(ctx, roleID, string(jdJSON)); err != nil {
		return err
	}
	return repo.SetRoleStatus(ctx, roleID, models.RoleActive)
}

// autogradeSubmission grades the challenge content against the role's
// structured JD and stores the automatic score.
func autogradeSubmission(ctx context.Context, repo *sqlite.SQLiteRepo, engine *ai.Engine, matchID int64, logger *slog.Logger) error {
	sub, err := repo.GetSubmissionByMatchID(ctx, matchID)
	if err != nil {
		return err
	}
	if sub == nil {
		logger.Warn("autograde: submission missing", "match_id", matchID)
		return nil
	}

	m, err := repo.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m == nil {
		logger.Warn("autograde: match missing", "match_id", matchID)
		return nil
	}

	targetDoc := "{}"
	if m.RoleID != nil {
		role, err := repo.GetRole(ctx, *m.RoleID)
		if err != nil {
			return err
		}
		if role != nil && role.BeautifiedJD != nil {
			targetDoc = *role.BeautifiedJD
		}
	}

	score, err := engine.GradeChallenge(ctx, targetDoc, sub.Content)
	if err != nil {
		return fmt.Errorf("grade: %w", err)
	}
	return repo.SetAutoScore(ctx, matchID, score)
}
