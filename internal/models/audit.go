package models

import "time"

// Audit actions. Buyer history records what changed on a record; the audit
// log records who did what and survives buyer deletion.
const (
	AuditLogin       = "auth.login"
	AuditBuyerCreate = "buyer.create"
	AuditBuyerUpdate = "buyer.update"
	AuditBuyerDelete = "buyer.delete"
	AuditBuyerImport = "buyer.import"
	AuditBuyerExport = "buyer.export"
	AuditLogPurge    = "audit.purge"
)

// Audit entity types.
const (
	AuditEntityBuyer = "buyer"
	AuditEntityUser  = "user"
	AuditEntityLog   = "audit_log"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 1000
)

// AuditRecord is an audit event to be persisted. A zero At is stamped with
// the write time; EntityID is empty for batch operations.
type AuditRecord struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
	Detail     map[string]any
	At         time.Time
}

// AuditEntry is one stored audit log record.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQuery filters the audit log. Empty fields match everything.
type AuditQuery struct {
	EntityType string
	EntityID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// Page returns the effective limit and offset: limit defaults to 50 and is
// capped at 1000, offset is never negative.
func (q AuditQuery) Page() (limit, offset int) {
	limit = q.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	return min(limit, maxAuditLimit), max(q.Offset, 0)
}

// RetentionCutoff returns the instant before which entries older than days
// are purged.
func RetentionCutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
