package store_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/db"
	"github.com/persistorai/leadintake/internal/db/migrations"
	"github.com/persistorai/leadintake/internal/dbpool"
	"github.com/persistorai/leadintake/internal/models"
	"github.com/persistorai/leadintake/internal/store"
)

// The PostgreSQL tests share one pool, migrated once. They skip unless
// TEST_DATABASE_URL names a scratch database.
var (
	poolOnce sync.Once
	testPool *dbpool.Pool
	poolErr  error
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func sharedPool(t *testing.T) *dbpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	poolOnce.Do(func() {
		ctx := context.Background()

		testPool, poolErr = dbpool.NewPool(ctx, url, 4)
		if poolErr != nil {
			return
		}

		poolErr = db.RunMigrations(ctx, testPool, quietLogger(), migrations.FS)
	})

	if poolErr != nil {
		t.Fatalf("preparing test database: %v", poolErr)
	}

	return testPool
}

// setupTestBase returns a Base and the ID of a fresh owner. Everything the
// owner created is deleted when the test ends.
func setupTestBase(t *testing.T) (_ store.Base, ownerID string) {
	t.Helper()

	pool := sharedPool(t)
	base := store.Base{Pool: pool, Log: quietLogger()}

	u, err := store.NewUserStore(base).UpsertUser(context.Background(),
		"owner-"+uuid.NewString()[:8]+"@example.com", "Test Owner")
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()

		for _, stmt := range []string{
			"DELETE FROM buyer_history WHERE buyer_id IN (SELECT id FROM buyers WHERE owner_id = $1)",
			"DELETE FROM buyers WHERE owner_id = $1",
			"DELETE FROM users WHERE id = $1",
		} {
			if _, err := pool.Exec(ctx, stmt, u.ID); err != nil {
				t.Logf("cleanup %q: %v", stmt, err)
			}
		}
	})

	return base, u.ID
}

func TestCheckSchema(t *testing.T) {
	base, _ := setupTestBase(t)

	if err := base.CheckSchema(context.Background()); err != nil {
		t.Fatalf("CheckSchema on migrated database: %v", err)
	}

	if err := base.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

// newBuyer returns a valid plot buyer owned by ownerID.
func newBuyer(ownerID, name string, city models.City) *models.Buyer {
	return &models.Buyer{
		FullName:     name,
		Phone:        "9876543210",
		City:         city,
		PropertyType: models.PropertyPlot,
		Purpose:      models.PurposeBuy,
		BudgetMin:    ptr(int64(1000000)),
		Timeline:     models.TimelineExploring,
		Source:       models.SourceWebsite,
		Status:       models.StatusNew,
		Tags:         []string{"hot"},
		OwnerID:      ownerID,
	}
}
