package ats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
	"github.com/google/uuid"
)

var (
	ErrNoConnection    = errors.New("no ats connection for company and provider")
	ErrUnknownProvider = errors.New("unknown ats provider")
)

// Enqueuer is the slice of the worker pool the syncer uses to schedule
// follow-up beautification jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error)
}

// SyncStats summarizes one sync run.
type SyncStats struct {
	Fetched int `json:"fetched"`
	Changed int `json:"changed"`
}

// Syncer pulls postings from a company's connected ATS board and upserts them
// as roles. Changed postings get a beautification job so they re-enter the
// matching pool with a fresh structured JD.
type Syncer struct {
	connections repository.ATSRepo
	roles       repository.RoleRepo
	queue       Enqueuer
	providers   map[string]Provider
	logger      *slog.Logger
}

func NewSyncer(connections repository.ATSRepo, roles repository.RoleRepo, queue Enqueuer, providers []Provider, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Syncer{connections: connections, roles: roles, queue: queue, providers: byName, logger: logger}
}

// Sync runs one full sync for a (company, provider) connection. The sync
// outcome is always recorded on the connection; a failed run stamps
// last_sync_at with the error and leaves the connection in place.
func (s *Syncer) Sync(ctx context.Context, companyID int64, providerName string) (*SyncStats, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerName)
	}

	conn, err := s.connections.GetATSConnection(ctx, companyID, providerName)
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}
	if conn == nil {
		return nil, ErrNoConnection
	}

	stats, err := s.run(ctx, conn, provider)
	now := time.Now().UnixMilli()
	var syncErr *string
	if err != nil {
		msg := err.Error()
		syncErr = &msg
	}
	if recErr := s.connections.RecordSyncResult(ctx, companyID, providerName, now, syncErr); recErr != nil {
		s.logger.Error("record sync result", "company_id", companyID, "provider", providerName, "err", recErr)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("ats sync complete",
		"company_id", companyID,
		"provider", providerName,
		"fetched", stats.Fetched,
		"changed", stats.Changed)
	return stats, nil
}

func (s *Syncer) run(ctx context.Context, conn *models.ATSConnection, provider Provider) (*SyncStats, error) {
	postings, err := provider.FetchPostings(ctx, conn.APIKey)
	if err != nil {
		return nil, fmt.Errorf("fetch postings: %w", err)
	}

	stats := &SyncStats{Fetched: len(postings)}
	providerName := provider.Name()
	for i := range postings {
		p := postings[i]
		role := &models.Role{
			CompanyID:  conn.CompanyID,
			Title:      p.Title,
			Status:     models.RoleDraft,
			SourceURL:  &p.URL,
			RawText:    &p.Body,
			PublicSlug: uuid.NewString(),
			Source:     &providerName,
			ExternalID: &p.ExternalID,
		}

		roleID, changed, err := s.roles.UpsertExternalRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("upsert posting %s: %w", p.ExternalID, err)
		}
		if !changed {
			continue
		}

		stats.Changed++
		if _, err := s.queue.Enqueue(ctx, jobs.TypeBeautifyRole, map[string]int64{"role_id": roleID}, 0, 3); err != nil {
			return nil, fmt.Errorf("enqueue beautify for role %d: %w", roleID, err)
		}
	}
	return stats, nil
}
