package api_test

import (
	"context"
	"io"

	"github.com/persistorai/leadintake/internal/models"
)

// mockBuyerService implements api.BuyerService for testing.
type mockBuyerService struct {
	listFn   func(ctx context.Context, filter models.BuyerFilter, page models.PageRequest) (*models.BuyerPage, error)
	getFn    func(ctx context.Context, buyerID string) (*models.BuyerDetail, error)
	createFn func(ctx context.Context, actor models.Identity, req models.CreateBuyerRequest) (*models.Buyer, error)
	updateFn func(ctx context.Context, actor models.Identity, buyerID string, req models.UpdateBuyerRequest) (*models.Buyer, error)
	deleteFn func(ctx context.Context, actor models.Identity, buyerID string) error
}

func (m *mockBuyerService) ListBuyers(ctx context.Context, filter models.BuyerFilter, page models.PageRequest) (*models.BuyerPage, error) {
	return m.listFn(ctx, filter, page)
}

func (m *mockBuyerService) GetBuyer(ctx context.Context, buyerID string) (*models.BuyerDetail, error) {
	return m.getFn(ctx, buyerID)
}

func (m *mockBuyerService) CreateBuyer(ctx context.Context, actor models.Identity, req models.CreateBuyerRequest) (*models.Buyer, error) {
	return m.createFn(ctx, actor, req)
}

func (m *mockBuyerService) UpdateBuyer(ctx context.Context, actor models.Identity, buyerID string, req models.UpdateBuyerRequest) (*models.Buyer, error) {
	return m.updateFn(ctx, actor, buyerID, req)
}

func (m *mockBuyerService) DeleteBuyer(ctx context.Context, actor models.Identity, buyerID string) error {
	return m.deleteFn(ctx, actor, buyerID)
}

// mockHistoryService implements api.HistoryService for testing.
type mockHistoryService struct {
	listFn func(ctx context.Context, buyerID string, limit, offset int) ([]models.HistoryEntry, bool, error)
}

func (m *mockHistoryService) ListHistory(ctx context.Context, buyerID string, limit, offset int) ([]models.HistoryEntry, bool, error) {
	return m.listFn(ctx, buyerID, limit, offset)
}

// mockImportService implements api.ImportService for testing.
type mockImportService struct {
	importFn func(ctx context.Context, actor models.Identity, r io.Reader, dryRun bool) (*models.ImportResult, error)
}

func (m *mockImportService) ImportBuyers(ctx context.Context, actor models.Identity, r io.Reader, dryRun bool) (*models.ImportResult, error) {
	return m.importFn(ctx, actor, r, dryRun)
}

// mockExportService implements api.ExportService for testing.
type mockExportService struct {
	exportFn func(ctx context.Context, actor models.Identity, filter models.BuyerFilter, w io.Writer) (int, error)
}

func (m *mockExportService) ExportBuyers(ctx context.Context, actor models.Identity, filter models.BuyerFilter, w io.Writer) (int, error) {
	return m.exportFn(ctx, actor, filter, w)
}

// mockAuthService implements api.AuthService for testing.
type mockAuthService struct {
	loginFn func(ctx context.Context, email, password string) (*models.Session, error)
	authFn  func(ctx context.Context, token string) (*models.Identity, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	return m.authFn(ctx, token)
}

// mockAuditService implements api.AuditService for testing.
type mockAuditService struct {
	queryFn func(ctx context.Context, q models.AuditQuery) ([]models.AuditEntry, bool, error)
	purgeFn func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockAuditService) RecordAudit(context.Context, models.AuditRecord) error {
	return nil
}

func (m *mockAuditService) QueryAudit(ctx context.Context, q models.AuditQuery) ([]models.AuditEntry, bool, error) {
	return m.queryFn(ctx, q)
}

func (m *mockAuditService) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	return m.purgeFn(ctx, retentionDays)
}

// mockHealth implements api.HealthChecker for testing.
type mockHealth struct {
	healthErr error
	schemaErr error
}

func (m *mockHealth) HealthCheck(_ context.Context) error { return m.healthErr }

func (m *mockHealth) CheckSchema(_ context.Context) error { return m.schemaErr }

// fixedBacklog implements api.QueueProbe.
type fixedBacklog struct{ depth, capacity int }

func (f fixedBacklog) Backlog() (int, int) { return f.depth, f.capacity }

// passFilters accepts every filter.
type passFilters struct{}

func (passFilters) Filter(models.BuyerFilter) error { return nil }

// rejectFilters rejects every filter with a validation error on field.
type rejectFilters struct{ field string }

func (r rejectFilters) Filter(models.BuyerFilter) error {
	return &models.ValidationError{Fields: []models.FieldError{{Field: r.field, Message: "is not allowed"}}}
}
