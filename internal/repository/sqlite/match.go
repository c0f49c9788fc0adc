package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/curator/pkg/models"
)

const matchColumns = `id, role_id, jd_url, engineer_id, batch_id, overall_score, dimension_scores, display_rank,
	decision, decision_at, challenge_response, challenge_responded_at, notes, ad_hoc, superseded, created`

func (r *SQLiteRepo) InsertMatches(ctx context.Context, ms []*models.Match) error {
	if len(ms) == 0 {
		return nil
	}

	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	ts := now()
	for _, m := range ms {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO matches (role_id, jd_url, engineer_id, batch_id, overall_score, dimension_scores, display_rank, notes, ad_hoc, created)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.RoleID, m.JDURL, m.EngineerID, m.BatchID, m.OverallScore, m.DimensionScores, m.DisplayRank, m.Notes, m.AdHoc, ts)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert match: %w", err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			_ = tx.Rollback()
			return err
		}
		m.Created = ts
	}

	return tx.Commit()
}

func (r *SQLiteRepo) SupersedeMatchesForRole(ctx context.Context, roleID int64) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE matches SET superseded = 1
		 WHERE role_id = ? AND ad_hoc = 0 AND superseded = 0
		   AND decision IS NULL AND challenge_response IS NULL`, roleID)
	return err
}

func (r *SQLiteRepo) SupersedeMatchesForEngineer(ctx context.Context, engineerID int64) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE matches SET superseded = 1
		 WHERE engineer_id = ? AND ad_hoc = 0 AND superseded = 0
		   AND decision IS NULL AND challenge_response IS NULL`, engineerID)
	return err
}

// ListMatchesForRole is the default view: superseded rows and terminal rows
// (decision or challenge_response present) are excluded.
func (r *SQLiteRepo) ListMatchesForRole(ctx context.Context, roleID int64) ([]models.Match, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE role_id = ? AND superseded = 0
		   AND decision IS NULL AND challenge_response IS NULL
		 ORDER BY display_rank, id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *SQLiteRepo) ListMatchesForEngineer(ctx context.Context, engineerID int64) ([]models.Match, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE engineer_id = ? AND superseded = 0
		   AND decision IS NULL AND challenge_response IS NULL
		 ORDER BY display_rank, id`, engineerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMatches(rows)
}

// ListMatchHistoryForRole returns every non-superseded match including
// terminal rows; recomputation reads this to keep decided pairs out of new
// batches.
func (r *SQLiteRepo) ListMatchHistoryForRole(ctx context.Context, roleID int64) ([]models.Match, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE role_id = ? AND superseded = 0 ORDER BY display_rank, id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *SQLiteRepo) ListMatchHistoryForEngineer(ctx context.Context, engineerID int64) ([]models.Match, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE engineer_id = ? AND superseded = 0 ORDER BY display_rank, id`, engineerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *SQLiteRepo) GetMatch(ctx context.Context, id int64) (*models.Match, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)

	var m models.Match
	if err := scanMatch(row.Scan, &m); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &m, nil
}

func (r *SQLiteRepo) SetMatchDecision(ctx context.Context, id int64, decision string, at int64) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE matches SET decision = ?, decision_at = ? WHERE id = ?`, decision, at, id)
	return err
}

// SetChallengeResponse resolves the match through role public_slug and the
// engineer account email, then records the response.
func (r *SQLiteRepo) SetChallengeResponse(ctx context.Context, slug, email, response string, at int64) (bool, error) {
	res, err := r.conn.Exec(ctx,
		`UPDATE matches SET challenge_response = ?, challenge_responded_at = ?
		 WHERE superseded = 0 AND challenge_response IS NULL
		   AND role_id = (SELECT id FROM roles WHERE public_slug = ?)
		   AND engineer_id = (SELECT id FROM accounts WHERE email = ? AND kind = 'engineer')`,
		response, at, slug, email)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepo) AttachBatchNotes(ctx context.Context, batchID, notes string) error {
	_, err := r.conn.Exec(ctx, `UPDATE matches SET notes = ? WHERE batch_id = ?`, notes, batchID)
	return err
}

func collectMatches(rows *sql.Rows) ([]models.Match, error) {
	var out []models.Match
	for rows.Next() {
		var m models.Match
		if err := scanMatch(rows.Scan, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMatch(scan func(...any) error, m *models.Match) error {
	return scan(&m.ID, &m.RoleID, &m.JDURL, &m.EngineerID, &m.BatchID, &m.OverallScore, &m.DimensionScores,
		&m.DisplayRank, &m.Decision, &m.DecisionAt, &m.ChallengeResponse, &m.ChallengeRespondedAt,
		&m.Notes, &m.AdHoc, &m.Superseded, &m.Created)
}
