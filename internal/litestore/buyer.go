package litestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/history"
	"github.com/persistorai/leadintake/internal/models"
)

// CreateBuyer inserts a validated buyer together with its CREATED history entry.
func (s *Store) CreateBuyer(ctx context.Context, buyer *models.Buyer) (*models.Buyer, error) {
	var created *models.Buyer

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = insertBuyer(tx, buyer, models.ActionCreated, history.Now())

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating buyer: %w", err)
	}

	return created, nil
}

// ImportBuyers inserts every buyer with an IMPORTED history entry in one
// transaction. Any failure rolls back the whole batch.
func (s *Store) ImportBuyers(ctx context.Context, buyers []*models.Buyer) ([]*models.Buyer, error) {
	created := make([]*models.Buyer, 0, len(buyers))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		at := history.Now()

		for i, b := range buyers {
			c, err := insertBuyer(tx, b, models.ActionImported, at)
			if err != nil {
				return fmt.Errorf("importing row %d: %w", i+1, err)
			}

			created = append(created, c)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importing buyers: %w", err)
	}

	return created, nil
}

func insertBuyer(tx *gorm.DB, buyer *models.Buyer, action models.Action, at time.Time) (*models.Buyer, error) {
	b := buyer.Clone()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	b.CreatedAt = at
	b.UpdatedAt = at

	row, err := newBuyerRow(b)
	if err != nil {
		return nil, err
	}

	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("inserting buyer: %w", err)
	}

	diff, err := history.Initial(action, b)
	if err != nil {
		return nil, err
	}

	if err := insertHistory(tx, history.NewEntry(b.ID, b.OwnerID, diff, at)); err != nil {
		return nil, err
	}

	return b, nil
}

func insertHistory(tx *gorm.DB, entry models.HistoryEntry) error {
	row, err := newHistoryRow(entry)
	if err != nil {
		return err
	}

	if err := tx.Create(row).Error; err != nil {
		return fmt.Errorf("inserting buyer history: %w", err)
	}

	return nil
}

// loadBuyer reads the current record inside tx.
func loadBuyer(tx *gorm.DB, buyerID string) (*models.Buyer, error) {
	var row buyerRow

	if err := tx.Where("id = ?", buyerID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBuyerNotFound
		}

		return nil, fmt.Errorf("loading buyer: %w", err)
	}

	return row.model()
}

// UpdateBuyer applies mutate to the current record inside one transaction.
// Only a result that differs from the current state is written, together
// with its UPDATED history entry.
func (s *Store) UpdateBuyer(
	ctx context.Context,
	buyerID, actor string,
	mutate domain.MutateFunc,
) (*models.Buyer, bool, error) {
	var (
		result  *models.Buyer
		changed bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadBuyer(tx, buyerID)
		if err != nil {
			return err
		}

		next, err := mutate(current.Clone())
		if err != nil {
			return err
		}

		diff, err := history.Changes(current, next)
		if err != nil {
			return err
		}

		if diff.Empty() {
			result = current
			return nil
		}

		next.ID = current.ID
		next.OwnerID = current.OwnerID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = history.NextVersion(current.UpdatedAt)

		row, err := newBuyerRow(next)
		if err != nil {
			return err
		}

		// Save writes every column, including nil pointers as NULL.
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("updating buyer row: %w", err)
		}

		if err := insertHistory(tx, history.NewEntry(next.ID, actor, diff, next.UpdatedAt)); err != nil {
			return err
		}

		result, changed = next, true

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, changed, nil
}

// DeleteBuyer removes a buyer and its history once guard approves the
// current record.
func (s *Store) DeleteBuyer(ctx context.Context, buyerID string, guard domain.GuardFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadBuyer(tx, buyerID)
		if err != nil {
			return err
		}

		if guard != nil {
			if err := guard(current); err != nil {
				return err
			}
		}

		if err := tx.Where("buyer_id = ?", buyerID).Delete(&historyRow{}).Error; err != nil {
			return fmt.Errorf("deleting buyer history: %w", err)
		}

		if err := tx.Where("id = ?", buyerID).Delete(&buyerRow{}).Error; err != nil {
			return fmt.Errorf("deleting buyer row: %w", err)
		}

		return nil
	})
}
