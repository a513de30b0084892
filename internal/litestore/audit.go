package litestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/models"
)

var _ domain.AuditStore = (*Store)(nil)

const purgeBatchSize = 5000

// RecordAudit inserts rec. An empty actor is stored as NULL and a zero At is
// stamped with the current time.
func (s *Store) RecordAudit(ctx context.Context, rec models.AuditRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}

	row := auditRow{
		Action:        rec.Action,
		EntityType:    rec.EntityType,
		EntityID:      rec.EntityID,
		CreatedMicros: toMicros(at),
	}

	if rec.Actor != "" {
		row.Actor = &rec.Actor
	}

	if rec.Detail != nil {
		b, err := json.Marshal(rec.Detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}

		detail := string(b)
		row.Detail = &detail
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

func auditScope(q models.AuditQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.EntityType != "" {
			db = db.Where("entity_type = ?", q.EntityType)
		}

		if q.EntityID != "" {
			db = db.Where("entity_id = ?", q.EntityID)
		}

		if q.Action != "" {
			db = db.Where("action = ?", q.Action)
		}

		if q.Since != nil {
			db = db.Where("created_at >= ?", toMicros(*q.Since))
		}

		return db
	}
}

// QueryAudit returns one page of matching entries newest first, and whether
// more follow.
func (s *Store) QueryAudit(ctx context.Context, q models.AuditQuery) ([]models.AuditEntry, bool, error) {
	limit, offset := q.Page()

	var rows []auditRow

	err := s.db.WithContext(ctx).Model(&auditRow{}).
		Scopes(auditScope(q)).
		Order("created_at DESC").Order("id DESC").
		Limit(limit + 1).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, false, fmt.Errorf("querying audit log: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	entries := make([]models.AuditEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, s.auditEntry(&rows[i]))
	}

	return entries, hasMore, nil
}

func (s *Store) auditEntry(r *auditRow) models.AuditEntry {
	e := models.AuditEntry{
		ID:         r.ID,
		Action:     r.Action,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		CreatedAt:  fromMicros(r.CreatedMicros),
	}

	if r.Actor != nil {
		e.Actor = *r.Actor
	}

	if r.Detail != nil {
		if err := json.Unmarshal([]byte(*r.Detail), &e.Detail); err != nil {
			s.log.WithError(err).WithField("audit_id", r.ID).Warn("undecodable audit detail")
		}
	}

	return e
}

// PurgeAuditBefore deletes entries created before cutoff in batches and
// returns the number removed.
func (s *Store) PurgeAuditBefore(ctx context.Context, cutoff time.Time) (int, error) {
	total := 0

	for {
		res := s.db.WithContext(ctx).Exec(
			`DELETE FROM audit_log WHERE id IN (SELECT id FROM audit_log WHERE created_at < ? LIMIT ?)`,
			toMicros(cutoff), purgeBatchSize,
		)
		if res.Error != nil {
			return total, fmt.Errorf("purging audit entries: %w", res.Error)
		}

		total += int(res.RowsAffected)
		if res.RowsAffected < purgeBatchSize {
			return total, nil
		}
	}
}
