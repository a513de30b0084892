package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/history"
	"github.com/persistorai/leadintake/internal/models"
)

// BuyerStore handles buyer records and their change history.
type BuyerStore struct {
	Base
}

// NewBuyerStore creates a new BuyerStore.
func NewBuyerStore(base Base) *BuyerStore {
	return &BuyerStore{Base: base}
}

var _ domain.BuyerStore = (*BuyerStore)(nil)

// CreateBuyer inserts a validated buyer together with its CREATED history
// entry. The history actor is the buyer's owner.
func (s *BuyerStore) CreateBuyer(ctx context.Context, buyer *models.Buyer) (*models.Buyer, error) {
	var created *models.Buyer

	err := s.inTx(ctx, writeTx, func(ctx context.Context, tx pgx.Tx) (err error) {
		created, err = insertBuyer(ctx, tx, buyer, models.ActionCreated, history.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// insertBuyer stamps identity and version on a copy of buyer, inserts it and
// records the initial history entry within tx.
func insertBuyer(
	ctx context.Context,
	tx pgx.Tx,
	buyer *models.Buyer,
	action models.Action,
	at time.Time,
) (*models.Buyer, error) {
	b := buyer.Clone()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	b.CreatedAt = at
	b.UpdatedAt = at

	if b.Tags == nil {
		b.Tags = []string{}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO buyers (id, full_name, email, phone, city,
			property_type, bhk, purpose, budget_min, budget_max,
			timeline, source, status, notes, tags,
			owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		buyerArgs(b)...,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting buyer: %w", err)
	}

	diff, err := history.Initial(action, b)
	if err != nil {
		return nil, err
	}

	if err := insertHistory(ctx, tx, history.NewEntry(b.ID, b.OwnerID, diff, at)); err != nil {
		return nil, err
	}

	return b, nil
}

// lockBuyer loads a buyer and holds its row lock until tx ends.
func lockBuyer(ctx context.Context, tx pgx.Tx, buyerID string) (*models.Buyer, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+buyerColumns+` FROM buyers b WHERE b.id = $1 FOR UPDATE`,
		buyerID,
	)

	b, err := scanBuyer(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBuyerNotFound
		}

		return nil, fmt.Errorf("locking buyer: %w", err)
	}

	return b, nil
}

// UpdateBuyer applies mutate to the locked current record. When the result
// differs from the current state the new row and an UPDATED history entry
// are written in the same transaction and changed is true. A mutation that
// changes nothing writes nothing and returns the current record.
func (s *BuyerStore) UpdateBuyer(
	ctx context.Context,
	buyerID, actor string,
	mutate domain.MutateFunc,
) (*models.Buyer, bool, error) {
	var (
		result  *models.Buyer
		changed bool
	)

	err := s.inTx(ctx, writeTx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := lockBuyer(ctx, tx, buyerID)
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

		if err := applyUpdate(ctx, tx, current, next, actor, diff); err != nil {
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

// applyUpdate advances next's version, writes it over current and records diff.
func applyUpdate(
	ctx context.Context,
	tx pgx.Tx,
	current, next *models.Buyer,
	actor string,
	diff models.Diff,
) error {
	next.ID = current.ID
	next.OwnerID = current.OwnerID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = history.NextVersion(current.UpdatedAt)

	args := buyerArgs(next)

	tag, err := tx.Exec(ctx, `
		UPDATE buyers SET full_name = $2, email = $3, phone = $4, city = $5,
			property_type = $6, bhk = $7, purpose = $8, budget_min = $9, budget_max = $10,
			timeline = $11, source = $12, status = $13, notes = $14, tags = $15,
			updated_at = $16
		WHERE id = $1`,
		append(args[:15:15], args[17])...,
	)
	if err != nil {
		return fmt.Errorf("updating buyer row: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrBuyerNotFound
	}

	return insertHistory(ctx, tx, history.NewEntry(next.ID, actor, diff, next.UpdatedAt))
}

// DeleteBuyer removes a buyer and its history once guard approves the locked
// current record.
func (s *BuyerStore) DeleteBuyer(ctx context.Context, buyerID string, guard domain.GuardFunc) error {
	return s.inTx(ctx, writeTx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := lockBuyer(ctx, tx, buyerID)
		if err != nil {
			return err
		}

		if guard != nil {
			if err := guard(current); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM buyer_history WHERE buyer_id = $1`, buyerID); err != nil {
			return fmt.Errorf("deleting buyer history: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM buyers WHERE id = $1`, buyerID); err != nil {
			return fmt.Errorf("deleting buyer row: %w", err)
		}

		return nil
	})
}
