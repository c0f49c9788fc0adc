package sqlite

import (
	"time"

	"log/slog"

	"github.com/garnizeh/curator/internal/db"
	"github.com/garnizeh/curator/pkg/repository"
)

// SQLiteRepo implements the repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.AccountRepo = (*SQLiteRepo)(nil)
var _ repository.CompanyProfileRepo = (*SQLiteRepo)(nil)
var _ repository.EngineerProfileRepo = (*SQLiteRepo)(nil)
var _ repository.RoleRepo = (*SQLiteRepo)(nil)
var _ repository.MatchRepo = (*SQLiteRepo)(nil)
var _ repository.ChallengeRepo = (*SQLiteRepo)(nil)
var _ repository.ATSRepo = (*SQLiteRepo)(nil)
var _ repository.JobRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}
