package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/curator/pkg/models"
)

const roleColumns = `id, company_id, title, status, source_url, raw_text, beautified_jd, public_slug, source, external_id, created, updated`

func (r *SQLiteRepo) CreateRole(ctx context.Context, role *models.Role) (int64, error) {
	if role == nil {
		return 0, fmt.Errorf("role is nil")
	}
	if role.Status == "" {
		role.Status = models.RoleDraft
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO roles (company_id, title, status, source_url, raw_text, beautified_jd, public_slug, source, external_id, created, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		role.CompanyID, role.Title, role.Status, role.SourceURL, role.RawText, role.BeautifiedJD,
		role.PublicSlug, role.Source, role.ExternalID, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetRole(ctx context.Context, id int64) (*models.Role, error) {
	return r.scanRole(r.conn.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = ?`, id))
}

func (r *SQLiteRepo) GetRoleBySlug(ctx context.Context, slug string) (*models.Role, error) {
	return r.scanRole(r.conn.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE public_slug = ?`, slug))
}

func (r *SQLiteRepo) SetRoleStatus(ctx context.Context, id int64, status string) error {
	_, err := r.conn.Exec(ctx, `UPDATE roles SET status = ?, updated = ? WHERE id = ?`, status, now(), id)
	return err
}

func (r *SQLiteRepo) TransitionRole(ctx context.Context, id int64, from, to string) (bool, error) {
	res, err := r.conn.Exec(ctx,
		`UPDATE roles SET status = ?, updated = ? WHERE id = ? AND status = ?`, to, now(), id, from)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepo) SetRoleBeautifiedJD(ctx context.Context, id int64, jd string) error {
	_, err := r.conn.Exec(ctx, `UPDATE roles SET beautified_jd = ?, updated = ? WHERE id = ?`, jd, now(), id)
	return err
}

func (r *SQLiteRepo) ListActiveRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE status = ? AND beautified_jd IS NOT NULL ORDER BY id`,
		models.RoleActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Role
	for rows.Next() {
		role, err := scanRoleRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *role)
	}
	return out, rows.Err()
}

// UpsertExternalRole is keyed by (company_id, source, external_id) so
// repeated ATS syncs update in place. It reports whether the posting content
// changed (new row or different raw text), which drives re-beautification.
func (r *SQLiteRepo) UpsertExternalRole(ctx context.Context, role *models.Role) (int64, bool, error) {
	if role == nil || role.Source == nil || role.ExternalID == nil {
		return 0, false, fmt.Errorf("external role requires source and external_id")
	}

	existing, err := r.scanRoleMaybe(r.conn.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE company_id = ? AND source = ? AND external_id = ?`,
		role.CompanyID, *role.Source, *role.ExternalID))
	if err != nil {
		return 0, false, err
	}

	if existing == nil {
		id, err := r.CreateRole(ctx, role)
		return id, true, err
	}

	changed := !equalPtr(existing.RawText, role.RawText) || existing.Title != role.Title
	_, err = r.conn.Exec(ctx,
		`UPDATE roles SET title = ?, source_url = ?, raw_text = ?, updated = ? WHERE id = ?`,
		role.Title, role.SourceURL, role.RawText, now(), existing.ID)
	if err != nil {
		return 0, false, err
	}

	return existing.ID, changed, nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *SQLiteRepo) scanRole(row *sql.Row) (*models.Role, error) {
	role, err := r.scanRoleMaybe(row)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *SQLiteRepo) scanRoleMaybe(row *sql.Row) (*models.Role, error) {
	var role models.Role
	if err := row.Scan(&role.ID, &role.CompanyID, &role.Title, &role.Status, &role.SourceURL, &role.RawText,
		&role.BeautifiedJD, &role.PublicSlug, &role.Source, &role.ExternalID, &role.Created, &role.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &role, nil
}

func scanRoleRows(rows *sql.Rows) (*models.Role, error) {
	var role models.Role
	if err := rows.Scan(&role.ID, &role.CompanyID, &role.Title, &role.Status, &role.SourceURL, &role.RawText,
		&role.BeautifiedJD, &role.PublicSlug, &role.Source, &role.ExternalID, &role.Created, &role.Updated); err != nil {
		return nil, err
	}

	return &role, nil
}
