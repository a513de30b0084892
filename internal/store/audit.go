package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/models"
)

var _ domain.AuditStore = (*AuditStore)(nil)

// purgeBatchSize bounds each purge transaction so a large backlog never
// holds a long lock on audit_log.
const purgeBatchSize = 5000

const auditColumns = "id, action, entity_type, entity_id, actor, detail, created_at"

// AuditStore persists the audit log. Entries outlive the buyers they name.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// RecordAudit inserts rec. An empty actor is stored as NULL and a zero At
// takes the database clock.
func (s *AuditStore) RecordAudit(ctx context.Context, rec models.AuditRecord) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var detail []byte

	if rec.Detail != nil {
		b, err := json.Marshal(rec.Detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}

		detail = b
	}

	var at *time.Time
	if !rec.At.IsZero() {
		at = &rec.At
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO audit_log (action, entity_type, entity_id, actor, detail, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, COALESCE($6, NOW()))`,
		rec.Action, rec.EntityType, rec.EntityID, rec.Actor, detail, at,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// auditWhere renders the query's filters as a WHERE clause with $n
// placeholders starting at 1.
func auditWhere(q models.AuditQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)

	eq := func(column string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if q.EntityType != "" {
		eq("entity_type", q.EntityType)
	}

	if q.EntityID != "" {
		eq("entity_id", q.EntityID)
	}

	if q.Action != "" {
		eq("action", q.Action)
	}

	if q.Since != nil {
		args = append(args, *q.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// QueryAudit returns one page of matching entries newest first, and whether
// more follow.
func (s *AuditStore) QueryAudit(ctx context.Context, q models.AuditQuery) ([]models.AuditEntry, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit, offset := q.Page()
	where, args := auditWhere(q)
	args = append(args, limit+1, offset)

	sql := fmt.Sprintf("SELECT %s FROM audit_log %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		auditColumns, where, len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying audit log: %w", err)
	}

	entries, err := pgx.CollectRows(rows, s.scanAuditEntry)
	if err != nil {
		return nil, false, fmt.Errorf("reading audit log: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// scanAuditEntry reads one row. Undecodable detail is logged and dropped so
// one bad row cannot hide the rest of the log.
func (s *AuditStore) scanAuditEntry(row pgx.CollectableRow) (models.AuditEntry, error) {
	var (
		e      models.AuditEntry
		actor  *string
		detail []byte
	)

	if err := row.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &actor, &detail, &e.CreatedAt); err != nil {
		return e, err
	}

	if actor != nil {
		e.Actor = *actor
	}

	if detail != nil {
		if err := json.Unmarshal(detail, &e.Detail); err != nil {
			s.Log.WithError(err).WithField("audit_id", e.ID).Warn("undecodable audit detail")
		}
	}

	e.CreatedAt = e.CreatedAt.UTC()

	return e, nil
}

// PurgeAuditBefore deletes entries created before cutoff, one batch per
// transaction, and returns the number removed.
func (s *AuditStore) PurgeAuditBefore(ctx context.Context, cutoff time.Time) (int, error) {
	total := 0

	for {
		n, err := s.purgeBatch(ctx, cutoff)
		total += n

		if err != nil {
			return total, err
		}

		if n < purgeBatchSize {
			return total, nil
		}
	}
}

func (s *AuditStore) purgeBatch(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `
		DELETE FROM audit_log WHERE id IN (
			SELECT id FROM audit_log WHERE created_at < $1 LIMIT $2
		)`,
		cutoff, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging audit entries: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
