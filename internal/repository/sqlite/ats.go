package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/curator/pkg/models"
)

func (r *SQLiteRepo) UpsertATSConnection(ctx context.Context, c *models.ATSConnection) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("connection is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO ats_connections (company_id, provider, api_key, created, updated) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(company_id, provider) DO UPDATE SET api_key = excluded.api_key, updated = excluded.updated`,
		c.CompanyID, c.Provider, c.APIKey, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetATSConnection(ctx context.Context, companyID int64, provider string) (*models.ATSConnection, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT id, company_id, provider, api_key, last_sync_at, last_sync_error, created, updated
		 FROM ats_connections WHERE company_id = ? AND provider = ?`, companyID, provider)

	var c models.ATSConnection
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Provider, &c.APIKey, &c.LastSyncAt, &c.LastSyncError, &c.Created, &c.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &c, nil
}

func (r *SQLiteRepo) RecordSyncResult(ctx context.Context, companyID int64, provider string, at int64, syncErr *string) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE ats_connections SET last_sync_at = ?, last_sync_error = ?, updated = ?
		 WHERE company_id = ? AND provider = ?`,
		at, syncErr, now(), companyID, provider)
	return err
}
