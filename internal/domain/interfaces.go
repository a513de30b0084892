// Package domain defines the canonical service and store interfaces shared
// across layers (REST handlers, services, both store backends). Consumers
// should depend on these interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"
	"io"
	"time"

	"github.com/persistorai/leadintake/internal/models"
)

// BuyerService defines buyer record operations.
type BuyerService interface {
	ListBuyers(ctx context.Context, filter models.BuyerFilter, page models.PageRequest) (*models.BuyerPage, error)
	GetBuyer(ctx context.Context, buyerID string) (*models.BuyerDetail, error)
	CreateBuyer(ctx context.Context, actor models.Identity, req models.CreateBuyerRequest) (*models.Buyer, error)
	UpdateBuyer(ctx context.Context, actor models.Identity, buyerID string, req models.UpdateBuyerRequest) (*models.Buyer, error)
	DeleteBuyer(ctx context.Context, actor models.Identity, buyerID string) error
}

// HistoryService defines buyer history reads.
type HistoryService interface {
	ListHistory(ctx context.Context, buyerID string, limit, offset int) ([]models.HistoryEntry, bool, error)
}

// ImportService defines bulk CSV import.
type ImportService interface {
	ImportBuyers(ctx context.Context, actor models.Identity, r io.Reader, dryRun bool) (*models.ImportResult, error)
}

// ExportService defines CSV export. It returns the number of data rows written.
type ExportService interface {
	ExportBuyers(ctx context.Context, actor models.Identity, filter models.BuyerFilter, w io.Writer) (int, error)
}

// AuthService defines login and token verification.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// AuditService defines audit log query and retention.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, q models.AuditQuery) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// AuditStore is the persistence contract for the audit log. Both store
// backends implement it.
type AuditStore interface {
	Auditor
	QueryAudit(ctx context.Context, q models.AuditQuery) ([]models.AuditEntry, bool, error)
	PurgeAuditBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Auditor records one audit event.
type Auditor interface {
	RecordAudit(ctx context.Context, rec models.AuditRecord) error
}

// MutateFunc receives the locked current record and returns its next state.
// Returning an error aborts the write and rolls back the transaction.
type MutateFunc func(current *models.Buyer) (*models.Buyer, error)

// GuardFunc inspects the locked current record and may veto the operation.
type GuardFunc func(current *models.Buyer) error

// BuyerStore is the persistence contract for buyers. Every mutation writes
// the record and its history entry in one transaction; callers never write
// history on their own.
type BuyerStore interface {
	CreateBuyer(ctx context.Context, buyer *models.Buyer) (*models.Buyer, error)
	UpdateBuyer(ctx context.Context, buyerID, actor string, mutate MutateFunc) (*models.Buyer, bool, error)
	DeleteBuyer(ctx context.Context, buyerID string, guard GuardFunc) error
	ImportBuyers(ctx context.Context, buyers []*models.Buyer) ([]*models.Buyer, error)
	GetBuyer(ctx context.Context, buyerID string, historyLimit int) (*models.BuyerDetail, error)
	ListBuyers(ctx context.Context, filter models.BuyerFilter, page models.PageRequest) (*models.BuyerPage, error)
	ListHistory(ctx context.Context, buyerID string, limit, offset int) ([]models.HistoryEntry, bool, error)
	ExportBuyers(ctx context.Context, filter models.BuyerFilter, fn func(models.ExportRecord) error) error
}

// UserStore persists signed-in users.
type UserStore interface {
	UpsertUser(ctx context.Context, email, name string) (*models.User, error)
}

// HealthChecker reports backend connectivity and schema presence.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	CheckSchema(ctx context.Context) error
}
