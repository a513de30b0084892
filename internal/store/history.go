package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/leadintake/internal/models"
)

// defaultHistoryLimit is the page size when callers pass no limit.
const defaultHistoryLimit = 50

// insertHistory writes one history entry within the caller's transaction.
// Package-level so buyer create, update and import share it.
func insertHistory(ctx context.Context, tx pgx.Tx, entry models.HistoryEntry) error {
	diff, err := json.Marshal(entry.Diff)
	if err != nil {
		return fmt.Errorf("marshalling history diff: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO buyer_history (id, buyer_id, changed_by, changed_at, diff)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.BuyerID, entry.ChangedBy, entry.ChangedAt, diff,
	)
	if err != nil {
		return fmt.Errorf("inserting buyer history: %w", err)
	}

	return nil
}

// queryHistory returns history entries for a buyer, newest first.
func queryHistory(ctx context.Context, tx pgx.Tx, buyerID string, limit, offset int) ([]models.HistoryEntry, error) {
	rows, err := tx.Query(ctx,
		`SELECT `+historyColumns+` FROM buyer_history
		WHERE buyer_id = $1
		ORDER BY changed_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		buyerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying buyer history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0, limit)

	for rows.Next() {
		e, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning buyer history row: %w", err)
		}

		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating buyer history rows: %w", err)
	}

	return entries, nil
}

// ListHistory returns a buyer's history newest first with has_more pagination.
func (s *BuyerStore) ListHistory(
	ctx context.Context,
	buyerID string,
	limit, offset int,
) ([]models.HistoryEntry, bool, error) {
	limit, offset = clampPage(limit, offset, defaultHistoryLimit)

	var entries []models.HistoryEntry

	err := s.inTx(ctx, readTx, func(ctx context.Context, tx pgx.Tx) (err error) {
		if err := buyerExists(ctx, tx, buyerID); err != nil {
			return err
		}

		entries, err = queryHistory(ctx, tx, buyerID, limit+1, offset)

		return err
	})
	if err != nil {
		return nil, false, err
	}

	if len(entries) > limit {
		return entries[:limit], true, nil
	}

	return entries, false, nil
}
