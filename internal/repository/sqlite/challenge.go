package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/curator/pkg/models"
)

func (r *SQLiteRepo) GetSubmissionByMatchID(ctx context.Context, matchID int64) (*models.ChallengeSubmission, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT id, match_id, content, auto_score, human_score, human_feedback, reviewer_name, reviewer_linkedin_url,
		        final_score, reviewed_at, created
		 FROM challenge_submissions WHERE match_id = ?`, matchID)

	var s models.ChallengeSubmission
	if err := row.Scan(&s.ID, &s.MatchID, &s.Content, &s.AutoScore, &s.HumanScore, &s.HumanFeedback, &s.ReviewerName,
		&s.ReviewerLinkedInURL, &s.FinalScore, &s.ReviewedAt, &s.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &s, nil
}

func (r *SQLiteRepo) CreateSubmission(ctx context.Context, matchID int64, content string) (int64, error) {
	res, err := r.conn.Exec(ctx,
		`INSERT INTO challenge_submissions (match_id, content, created) VALUES (?, ?, ?)
		 ON CONFLICT(match_id) DO UPDATE SET content = excluded.content`, matchID, content, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) SetAutoScore(ctx context.Context, matchID int64, score int) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE challenge_submissions SET auto_score = ? WHERE match_id = ?`, score, matchID)
	return err
}

func (r *SQLiteRepo) ReviewSubmission(ctx context.Context, matchID int64, s *models.ChallengeSubmission) error {
	if s == nil {
		return fmt.Errorf("submission is nil")
	}

	res, err := r.conn.Exec(ctx,
		`UPDATE challenge_submissions
		 SET human_score = ?, human_feedback = ?, reviewer_name = ?, reviewer_linkedin_url = ?,
		     final_score = ?, reviewed_at = ?
		 WHERE match_id = ?`,
		s.HumanScore, s.HumanFeedback, s.ReviewerName, s.ReviewerLinkedInURL, s.FinalScore, s.ReviewedAt, matchID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
