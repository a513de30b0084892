package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/litestore"
	"github.com/persistorai/leadintake/internal/models"
)

func ptr[T any](v T) *T { return &v }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

// newLiteStore opens a private in-memory SQLite store.
func newLiteStore(t *testing.T) *litestore.Store {
	t.Helper()

	s, err := litestore.Open("file:service_"+uuid.New().String()+"?mode=memory&cache=shared", quietLogger())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func newIdentity(t *testing.T, s domain.UserStore, email, name string) models.Identity {
	t.Helper()

	u, err := s.UpsertUser(context.Background(), email, name)
	if err != nil {
		t.Fatalf("upserting user: %v", err)
	}

	return models.Identity{UserID: u.ID, Email: u.Email, Name: u.Name}
}

func validCreate() models.CreateBuyerRequest {
	return models.CreateBuyerRequest{
		FullName:     "Asha Rao",
		Email:        ptr("asha@example.com"),
		Phone:        "9876543210",
		City:         models.CityMohali,
		PropertyType: models.PropertyApartment,
		BHK:          ptr(models.BHKTwo),
		Purpose:      models.PurposeBuy,
		BudgetMin:    ptr(int64(5000000)),
		BudgetMax:    ptr(int64(7500000)),
		Timeline:     models.TimelineZeroToThree,
		Source:       models.SourceWebsite,
		Tags:         []string{"hot"},
	}
}

// mockBuyerStore records calls and returns configured responses.
type mockBuyerStore struct {
	mu    sync.Mutex
	calls []string

	createBuyer  func(ctx context.Context, buyer *models.Buyer) (*models.Buyer, error)
	updateBuyer  func(ctx context.Context, buyerID, actor string, mutate domain.MutateFunc) (*models.Buyer, bool, error)
	deleteBuyer  func(ctx context.Context, buyerID string, guard domain.GuardFunc) error
	importBuyers func(ctx context.Context, buyers []*models.Buyer) ([]*models.Buyer, error)
	getBuyer     func(ctx context.Context, buyerID string, historyLimit int) (*models.BuyerDetail, error)
	listBuyers   func(ctx context.Context, filter models.BuyerFilter, page models.PageRequest) (*models.BuyerPage, error)
	listHistory  func(ctx context.Context, buyerID string, limit, offset int) ([]models.HistoryEntry, bool, error)
	exportBuyers func(ctx context.Context, filter models.BuyerFilter, fn func(models.ExportRecord) error) error
}

var _ domain.BuyerStore = (*mockBuyerStore)(nil)

func (m *mockBuyerStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockBuyerStore) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.calls...)
}

func (m *mockBuyerStore) CreateBuyer(ctx context.Context, buyer *models.Buyer) (*models.Buyer, error) {
	m.record("CreateBuyer")
	return m.createBuyer(ctx, buyer)
}

func (m *mockBuyerStore) UpdateBuyer(ctx context.Context, buyerID, actor string, mutate domain.MutateFunc) (*models.Buyer, bool, error) {
	m.record("UpdateBuyer")
	return m.updateBuyer(ctx, buyerID, actor, mutate)
}

func (m *mockBuyerStore) DeleteBuyer(ctx context.Context, buyerID string, guard domain.GuardFunc) error {
	m.record("DeleteBuyer")
	return m.deleteBuyer(ctx, buyerID, guard)
}

func (m *mockBuyerStore) ImportBuyers(ctx context.Context, buyers []*models.Buyer) ([]*models.Buyer, error) {
	m.record("ImportBuyers")
	return m.importBuyers(ctx, buyers)
}

func (m *mockBuyerStore) GetBuyer(ctx context.Context, buyerID string, historyLimit int) (*models.BuyerDetail, error) {
	m.record("GetBuyer")
	return m.getBuyer(ctx, buyerID, historyLimit)
}

func (m *mockBuyerStore) ListBuyers(ctx context.Context, filter models.BuyerFilter, page models.PageRequest) (*models.BuyerPage, error) {
	m.record("ListBuyers")
	return m.listBuyers(ctx, filter, page)
}

func (m *mockBuyerStore) ListHistory(ctx context.Context, buyerID string, limit, offset int) ([]models.HistoryEntry, bool, error) {
	m.record("ListHistory")
	return m.listHistory(ctx, buyerID, limit, offset)
}

func (m *mockBuyerStore) ExportBuyers(ctx context.Context, filter models.BuyerFilter, fn func(models.ExportRecord) error) error {
	m.record("ExportBuyers")
	return m.exportBuyers(ctx, filter, fn)
}

// mockAuditor records audit calls.
type mockAuditor struct {
	mu    sync.Mutex
	calls []models.AuditRecord

	err error
}

func (m *mockAuditor) RecordAudit(_ context.Context, rec models.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, rec)

	return m.err
}

func (m *mockAuditor) getCalls() []models.AuditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.AuditRecord(nil), m.calls...)
}

// mockAuditStore is an in-memory audit log.
type mockAuditStore struct {
	mockAuditor

	purgedBefore time.Time
	purgeErr     error
	deleted      int
}

func (m *mockAuditStore) QueryAudit(context.Context, models.AuditQuery) ([]models.AuditEntry, bool, error) {
	return nil, false, nil
}

func (m *mockAuditStore) PurgeAuditBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.purgedBefore = cutoff
	return m.deleted, m.purgeErr
}

// mockEnqueuer captures audit records synchronously.
type mockEnqueuer struct {
	mu   sync.Mutex
	recs []models.AuditRecord
}

func (m *mockEnqueuer) Enqueue(rec models.AuditRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
}

func (m *mockEnqueuer) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.recs))
	for _, r := range m.recs {
		out = append(out, r.Action)
	}

	return out
}

func (m *mockEnqueuer) last() models.AuditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.recs[len(m.recs)-1]
}

// mockCredentials accepts one email/password pair.
type mockCredentials struct {
	email, password string
	err             error
}

func (m *mockCredentials) Verify(_ context.Context, email, password string) (*models.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}

	if email != m.email || password != m.password {
		return nil, models.ErrInvalidCredentials
	}

	return &models.Identity{Email: email, Name: "Demo"}, nil
}

// mockTokens issues the user ID as the token.
type mockTokens struct{}

func (mockTokens) Issue(id models.Identity) (string, time.Time, error) {
	return "tok-" + id.UserID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func (mockTokens) Parse(token string) (*models.Identity, error) {
	if len(token) < 5 || token[:4] != "tok-" {
		return nil, models.ErrUnauthenticated
	}

	return &models.Identity{UserID: token[4:]}, nil
}

// mockThrottle counts calls per key. A key in locked reports that lockout;
// lockAfter makes the nth failure lock the key.
type mockThrottle struct {
	locked    map[string]time.Duration
	failures  map[string]int
	resets    map[string]int
	lockAfter int
}

func newMockThrottle() *mockThrottle {
	return &mockThrottle{
		locked:   map[string]time.Duration{},
		failures: map[string]int{},
		resets:   map[string]int{},
	}
}

func (m *mockThrottle) Locked(key string) time.Duration { return m.locked[key] }

func (m *mockThrottle) RecordFailure(key string) time.Duration {
	m.failures[key]++
	if m.lockAfter > 0 && m.failures[key] == m.lockAfter {
		m.locked[key] = 5 * time.Minute
		return m.locked[key]
	}

	return 0
}

func (m *mockThrottle) Reset(key string) { m.resets[key]++ }
