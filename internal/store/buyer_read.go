package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/leadintake/internal/models"
)

// defaultPageSize is the list page size when callers pass none.
const defaultPageSize = 10

// buyerExists returns ErrBuyerNotFound when no buyer has buyerID.
func buyerExists(ctx context.Context, tx pgx.Tx, buyerID string) error {
	var exists bool

	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM buyers WHERE id = $1)`, buyerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking buyer: %w", err)
	}

	if !exists {
		return models.ErrBuyerNotFound
	}

	return nil
}

// GetBuyer returns a buyer, its owner and the newest historyLimit history
// entries.
func (s *BuyerStore) GetBuyer(ctx context.Context, buyerID string, historyLimit int) (*models.BuyerDetail, error) {
	detail := &models.BuyerDetail{History: []models.HistoryEntry{}}

	err := s.inTx(ctx, readTx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+buyerColumns+`, COALESCE(u.email, ''), COALESCE(u.name, '')
			FROM buyers b LEFT JOIN users u ON u.id = b.owner_id
			WHERE b.id = $1`,
			buyerID,
		)

		b, err := scanBuyer(row.Scan, &detail.Owner.Email, &detail.Owner.Name)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrBuyerNotFound
		}

		if err != nil {
			return fmt.Errorf("scanning buyer: %w", err)
		}

		detail.Buyer = b
		detail.Owner.ID = b.OwnerID

		if historyLimit <= 0 {
			return nil
		}

		detail.History, err = queryHistory(ctx, tx, buyerID, min(historyLimit, maxListLimit), 0)

		return err
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// ListBuyers returns one page of buyers matching filter, most recently
// updated first, together with the total match count.
func (s *BuyerStore) ListBuyers(
	ctx context.Context,
	filter models.BuyerFilter,
	page models.PageRequest,
) (*models.BuyerPage, error) {
	if page.Page < 1 {
		page.Page = 1
	}

	page.PageSize, _ = clampPage(page.PageSize, 0, defaultPageSize)

	result := &models.BuyerPage{
		Buyers:   make([]models.Buyer, 0, page.PageSize),
		Page:     page.Page,
		PageSize: page.PageSize,
	}

	where, args, argIdx := buildBuyerFilter(filter)

	err := s.inTx(ctx, readTx, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM buyers b `+where, args...).Scan(&result.Total); err != nil {
			return fmt.Errorf("counting buyers: %w", err)
		}

		rows, err := tx.Query(ctx,
			fmt.Sprintf(`SELECT %s FROM buyers b %s ORDER BY b.updated_at DESC, b.id DESC LIMIT $%d OFFSET $%d`,
				buyerColumns, where, argIdx, argIdx+1),
			append(args, page.PageSize, page.Offset())...,
		)
		if err != nil {
			return fmt.Errorf("querying buyers: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBuyer(rows.Scan)
			if err != nil {
				return fmt.Errorf("scanning buyer row: %w", err)
			}

			result.Buyers = append(result.Buyers, *b)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
