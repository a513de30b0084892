package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/persistorai/leadintake/internal/models"
	"github.com/persistorai/leadintake/internal/store"
)

func TestImportBuyers_Creates(t *testing.T) {
	base, ownerID := setupTestBase(t)
	bs := store.NewBuyerStore(base)
	ctx := context.Background()

	created, err := bs.ImportBuyers(ctx, []*models.Buyer{
		newBuyer(ownerID, "Row One", models.CityMohali),
		newBuyer(ownerID, "Row Two", models.CityZirakpur),
	})
	if err != nil {
		t.Fatalf("ImportBuyers: %v", err)
	}

	if len(created) != 2 {
		t.Fatalf("ImportBuyers created %d, want 2", len(created))
	}

	if created[0].ID == "" || created[0].ID == created[1].ID {
		t.Errorf("imported IDs not assigned: %q %q", created[0].ID, created[1].ID)
	}

	if !created[0].CreatedAt.Equal(created[1].CreatedAt) {
		t.Error("rows of one import should share a timestamp")
	}

	entries, _, err := bs.ListHistory(ctx, created[1].ID, 10, 0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}

	if len(entries) != 1 || entries[0].Diff.Action != models.ActionImported {
		t.Fatalf("history = %+v, want one IMPORTED entry", entries)
	}

	if entries[0].ChangedBy != ownerID {
		t.Errorf("ChangedBy = %q, want owner %q", entries[0].ChangedBy, ownerID)
	}
}

func TestImportBuyers_RollsBackOnFailure(t *testing.T) {
	base, ownerID := setupTestBase(t)
	bs := store.NewBuyerStore(base)
	ctx := context.Background()

	name := "Rollback " + ownerID[:8]

	// The second row references an owner that does not exist.
	_, err := bs.ImportBuyers(ctx, []*models.Buyer{
		newBuyer(ownerID, name, models.CityMohali),
		newBuyer(uuid.New().String(), name, models.CityMohali),
	})
	if err == nil {
		t.Fatal("expected error for unknown owner")
	}

	page, err := bs.ListBuyers(ctx, models.BuyerFilter{Search: name}, models.PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListBuyers: %v", err)
	}

	if page.Total != 0 {
		t.Errorf("found %d buyers after failed import, want 0", page.Total)
	}
}
