package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/models"
)

var _ domain.AuditService = (*AuditService)(nil)

// AuditService fronts the audit store: it turns a retention in days into a
// cutoff and records purges in the log they prune.
type AuditService struct {
	store domain.AuditStore
	log   *logrus.Logger
	now   func() time.Time
}

// NewAuditService creates an AuditService.
func NewAuditService(store domain.AuditStore, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, log: log, now: time.Now}
}

// RecordAudit persists rec.
func (s *AuditService) RecordAudit(ctx context.Context, rec models.AuditRecord) error {
	return s.store.RecordAudit(ctx, rec)
}

// QueryAudit returns one page of matching entries newest first.
func (s *AuditService) QueryAudit(ctx context.Context, q models.AuditQuery) ([]models.AuditEntry, bool, error) {
	return s.store.QueryAudit(ctx, q)
}

// PurgeOldEntries deletes entries older than retentionDays, then records the
// purge itself so the log shows when it was last pruned.
func (s *AuditService) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("%w: retention must be at least 1 day, got %d", models.ErrInvalidArgument, retentionDays)
	}

	now := s.now()

	deleted, err := s.store.PurgeAuditBefore(ctx, models.RetentionCutoff(now, retentionDays))
	if err != nil {
		return deleted, err
	}

	rec := models.AuditRecord{
		Action:     models.AuditLogPurge,
		EntityType: models.AuditEntityLog,
		Detail:     map[string]any{"deleted": deleted, "retention_days": retentionDays},
		At:         now,
	}

	if err := s.store.RecordAudit(ctx, rec); err != nil {
		s.log.WithError(err).Warn("recording audit purge failed")
	}

	s.log.WithFields(logrus.Fields{
		"retention_days": retentionDays,
		"deleted":        deleted,
	}).Info(models.AuditLogPurge)

	return deleted, nil
}
