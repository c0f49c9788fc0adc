package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
)

func (r *SQLiteRepo) UpsertEngineerProfile(ctx context.Context, engineerID int64) (*models.EngineerProfile, error) {
	ts := now()
	_, err := r.conn.Exec(ctx,
		`INSERT INTO engineer_profiles (engineer_id, status, created, updated) VALUES (?, ?, ?, ?)
		 ON CONFLICT(engineer_id) DO NOTHING`,
		engineerID, models.ProfileDraft, ts, ts)
	if err != nil {
		return nil, err
	}

	return r.GetEngineerProfile(ctx, engineerID)
}

func (r *SQLiteRepo) GetEngineerProfile(ctx context.Context, engineerID int64) (*models.EngineerProfile, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT id, engineer_id, status, crawl_error, crawl_data, engineer_dna,
		        work_preferences, career_growth, strengths, growth_areas, deal_breakers,
		        priority_ratings, questionnaire_completed_at, profile_summary, created, updated
		 FROM engineer_profiles WHERE engineer_id = ?`, engineerID)

	var p models.EngineerProfile
	if err := row.Scan(&p.ID, &p.EngineerID, &p.Status, &p.CrawlError, &p.CrawlData, &p.EngineerDNA,
		&p.WorkPreferences, &p.CareerGrowth, &p.Strengths, &p.GrowthAreas, &p.DealBreakers,
		&p.PriorityRatings, &p.QuestionnaireCompletedAt, &p.ProfileSummary, &p.Created, &p.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &p, nil
}

// BeginEngineerCrawl mirrors BeginCompanyCrawl: a compare-and-swap into
// `crawling` that rejects a second trigger while a clean crawl is in flight.
func (r *SQLiteRepo) BeginEngineerCrawl(ctx context.Context, engineerID int64) (bool, error) {
	res, err := r.conn.Exec(ctx,
		`UPDATE engineer_profiles SET status = ?, crawl_error = NULL, updated = ?
		 WHERE engineer_id = ? AND NOT (status = ? AND crawl_error IS NULL)`,
		models.ProfileCrawling, now(), engineerID, models.ProfileCrawling)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepo) SetEngineerCrawlError(ctx context.Context, engineerID int64, msg string) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE engineer_profiles SET crawl_error = ?, updated = ? WHERE engineer_id = ?`,
		msg, now(), engineerID)
	return err
}

func (r *SQLiteRepo) SetEngineerDNA(ctx context.Context, engineerID int64, crawlData, dna string) (bool, error) {
	res, err := r.conn.Exec(ctx,
		`UPDATE engineer_profiles
		 SET crawl_data = ?, engineer_dna = ?, crawl_error = NULL, status = ?, updated = ?
		 WHERE engineer_id = ? AND status = ?`,
		crawlData, dna, models.ProfileQuestionnaire, now(), engineerID, models.ProfileCrawling)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepo) SetEngineerSection(ctx context.Context, engineerID int64, section, answers string) error {
	var column string
	switch section {
	case repository.EngineerSectionWorkPreferences:
		column = "work_preferences"
	case repository.EngineerSectionCareerGrowth:
		column = "career_growth"
	case repository.EngineerSectionStrengths:
		column = "strengths"
	case repository.EngineerSectionGrowthAreas:
		column = "growth_areas"
	case repository.EngineerSectionDealBreakers:
		column = "deal_breakers"
	case repository.EngineerSectionPriorityRatings:
		column = "priority_ratings"
	default:
		return fmt.Errorf("unknown engineer questionnaire section %q", section)
	}

	q := fmt.Sprintf(`UPDATE engineer_profiles SET %s = ?, updated = ? WHERE engineer_id = ?`, column)
	_, err := r.conn.Exec(ctx, q, answers, now(), engineerID)
	return err
}

func (r *SQLiteRepo) BackfillQuestionnaireCompletedAt(ctx context.Context, engineerID, ts int64) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE engineer_profiles SET questionnaire_completed_at = ?, updated = ?
		 WHERE engineer_id = ? AND questionnaire_completed_at IS NULL`,
		ts, now(), engineerID)
	return err
}

func (r *SQLiteRepo) SetEngineerSummary(ctx context.Context, engineerID int64, summary string) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE engineer_profiles SET profile_summary = ?, status = ?, updated = ? WHERE engineer_id = ?`,
		summary, models.ProfileComplete, now(), engineerID)
	return err
}
