package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/leadintake/internal/models"
)

// ExportBuyers streams every buyer matching filter, joined with its owner,
// to fn in updated_at descending order. The export is a single query, so it
// sees one snapshot however long fn takes; only ctx bounds it.
func (s *BuyerStore) ExportBuyers(
	ctx context.Context,
	filter models.BuyerFilter,
	fn func(models.ExportRecord) error,
) error {
	where, args, _ := buildBuyerFilter(filter)

	return s.inTx(ctx, streamTx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+buyerColumns+`, COALESCE(u.email, ''), COALESCE(u.name, '')
			FROM buyers b LEFT JOIN users u ON u.id = b.owner_id `+where+`
			ORDER BY b.updated_at DESC, b.id DESC`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("querying buyers for export: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			rec := models.ExportRecord{}

			b, err := scanBuyer(rows.Scan, &rec.Owner.Email, &rec.Owner.Name)
			if err != nil {
				return fmt.Errorf("scanning export buyer: %w", err)
			}

			rec.Buyer, rec.Owner.ID = *b, b.OwnerID

			if err := fn(rec); err != nil {
				return err
			}
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating export buyers: %w", err)
		}

		return nil
	})
}
