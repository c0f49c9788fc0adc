package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
)

func (r *SQLiteRepo) UpsertCompanyProfile(ctx context.Context, companyID int64) (*models.CompanyProfile, error) {
	ts := now()
	_, err := r.conn.Exec(ctx,
		`INSERT INTO company_profiles (company_id, status, created, updated) VALUES (?, ?, ?, ?)
		 ON CONFLICT(company_id) DO NOTHING`,
		companyID, models.ProfileDraft, ts, ts)
	if err != nil {
		return nil, err
	}

	return r.GetCompanyProfile(ctx, companyID)
}

func (r *SQLiteRepo) GetCompanyProfile(ctx context.Context, companyID int64) (*models.CompanyProfile, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT id, company_id, status, crawl_error, company_dna, technical_environment,
		        culture_answers, mission_answers, team_dynamics_answers, profile_summary, created, updated
		 FROM company_profiles WHERE company_id = ?`, companyID)

	var p models.CompanyProfile
	if err := row.Scan(&p.ID, &p.CompanyID, &p.Status, &p.CrawlError, &p.CompanyDNA, &p.TechnicalEnvironment,
		&p.CultureAnswers, &p.MissionAnswers, &p.TeamDynamicsAnswers, &p.ProfileSummary, &p.Created, &p.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &p, nil
}

// BeginCompanyCrawl enters `crawling` and clears crawl_error. The WHERE
// clause rejects the transition while a clean crawl is already in flight, so
// two near-simultaneous triggers cannot both start.
func (r *SQLiteRepo) BeginCompanyCrawl(ctx context.Context, companyID int64) (bool, error) {
	res, err := r.conn.Exec(ctx,
		`UPDATE company_profiles SET status = ?, crawl_error = NULL, updated = ?
		 WHERE company_id = ? AND NOT (status = ? AND crawl_error IS NULL)`,
		models.ProfileCrawling, now(), companyID, models.ProfileCrawling)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepo) SetCompanyCrawlError(ctx context.Context, companyID int64, msg string) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE company_profiles SET crawl_error = ?, updated = ? WHERE company_id = ?`,
		msg, now(), companyID)
	return err
}

func (r *SQLiteRepo) SetCompanyDNA(ctx context.Context, companyID int64, dna, techEnv string) (bool, error) {
	res, err := r.conn.Exec(ctx,
		`UPDATE company_profiles
		 SET company_dna = ?, technical_environment = ?, crawl_error = NULL, status = ?, updated = ?
		 WHERE company_id = ? AND status = ?`,
		dna, techEnv, models.ProfileQuestionnaire, now(), companyID, models.ProfileCrawling)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetCompanySection writes exactly one named questionnaire column. The
// section enum is the writable-field contract; unknown names are rejected.
func (r *SQLiteRepo) SetCompanySection(ctx context.Context, companyID int64, section, answers string) error {
	var column string
	switch section {
	case repository.CompanySectionCulture:
		column = "culture_answers"
	case repository.CompanySectionMission:
		column = "mission_answers"
	case repository.CompanySectionTeamDynamics:
		column = "team_dynamics_answers"
	default:
		return fmt.Errorf("unknown company questionnaire section %q", section)
	}

	q := fmt.Sprintf(`UPDATE company_profiles SET %s = ?, updated = ? WHERE company_id = ?`, column)
	_, err := r.conn.Exec(ctx, q, answers, now(), companyID)
	return err
}

func (r *SQLiteRepo) SetCompanySummary(ctx context.Context, companyID int64, summary string) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE company_profiles SET profile_summary = ?, status = ?, updated = ? WHERE company_id = ?`,
		summary, models.ProfileComplete, now(), companyID)
	return err
}
