package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/leadintake/internal/history"
	"github.com/persistorai/leadintake/internal/models"
)

// ImportBuyers inserts every buyer with an IMPORTED history entry in one
// transaction. Any failure rolls back the whole batch.
func (s *BuyerStore) ImportBuyers(ctx context.Context, buyers []*models.Buyer) ([]*models.Buyer, error) {
	created := make([]*models.Buyer, 0, len(buyers))
	at := history.Now()

	err := s.inTx(ctx, writeTx, func(ctx context.Context, tx pgx.Tx) error {
		for i, b := range buyers {
			c, err := insertBuyer(ctx, tx, b, models.ActionImported, at)
			if err != nil {
				return fmt.Errorf("importing row %d: %w", i+1, err)
			}

			created = append(created, c)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
