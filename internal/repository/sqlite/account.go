package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/curator/pkg/models"
)

func (r *SQLiteRepo) CreateAccount(ctx context.Context, a *models.Account) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("account is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO accounts (kind, name, email, password_hash, created, updated) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Kind, a.Name, a.Email, a.PasswordHash, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.scanAccount(r.conn.QueryRow(ctx,
		`SELECT id, kind, name, email, password_hash, created, updated FROM accounts WHERE id = ?`, id))
}

func (r *SQLiteRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.scanAccount(r.conn.QueryRow(ctx,
		`SELECT id, kind, name, email, password_hash, created, updated FROM accounts WHERE email = ?`, email))
}

func (r *SQLiteRepo) scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Kind, &a.Name, &a.Email, &a.PasswordHash, &a.Created, &a.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &a, nil
}
