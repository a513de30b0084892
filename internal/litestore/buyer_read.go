package litestore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/persistorai/leadintake/internal/models"
)

const (
	maxListLimit        = 1000
	defaultPageSize     = 10
	defaultHistoryLimit = 50
)

// filterScope applies the AND-combined buyer predicates to a query on buyers.
func filterScope(f models.BuyerFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.City != "" {
			db = db.Where("buyers.city = ?", string(f.City))
		}

		if f.PropertyType != "" {
			db = db.Where("buyers.property_type = ?", string(f.PropertyType))
		}

		if f.Status != "" {
			db = db.Where("buyers.status = ?", string(f.Status))
		}

		if f.Timeline != "" {
			db = db.Where("buyers.timeline = ?", string(f.Timeline))
		}

		if pattern := f.SearchPattern(); pattern != "" {
			db = db.Where(
				`(`+foldFunc+`(buyers.full_name) LIKE @p ESCAPE '\' OR `+foldFunc+`(COALESCE(buyers.email, '')) LIKE @p ESCAPE '\' OR buyers.phone LIKE @p ESCAPE '\')`,
				map[string]any{"p": pattern},
			)
		}

		return db
	}
}

func recentFirst(db *gorm.DB) *gorm.DB {
	return db.Order("buyers.updated_at DESC").Order("buyers.id DESC")
}

// GetBuyer returns a buyer, its owner and the newest historyLimit entries.
func (s *Store) GetBuyer(ctx context.Context, buyerID string, historyLimit int) (*models.BuyerDetail, error) {
	var detail *models.BuyerDetail

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row exportRow

		err := tx.Table("buyers").
			Select("buyers.*, COALESCE(users.email, '') AS owner_email, COALESCE(users.name, '') AS owner_name").
			Joins("LEFT JOIN users ON users.id = buyers.owner_id").
			Where("buyers.id = ?", buyerID).
			Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrBuyerNotFound
			}

			return fmt.Errorf("getting buyer: %w", err)
		}

		b, err := row.Buyer.model()
		if err != nil {
			return err
		}

		entries := []models.HistoryEntry{}
		if historyLimit > 0 {
			entries, err = queryHistory(tx, buyerID, min(historyLimit, maxListLimit), 0)
			if err != nil {
				return err
			}
		}

		detail = &models.BuyerDetail{
			Buyer:   b,
			Owner:   models.Owner{ID: b.OwnerID, Email: row.OwnerEmail, Name: row.OwnerName},
			History: entries,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// ListBuyers returns one page of matching buyers, most recently updated first.
func (s *Store) ListBuyers(
	ctx context.Context,
	filter models.BuyerFilter,
	page models.PageRequest,
) (*models.BuyerPage, error) {
	if page.Page < 1 {
		page.Page = 1
	}

	if page.PageSize <= 0 {
		page.PageSize = defaultPageSize
	}

	page.PageSize = min(page.PageSize, maxListLimit)

	var (
		total int64
		rows  []buyerRow
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&buyerRow{}).Scopes(filterScope(filter)).Count(&total).Error; err != nil {
			return fmt.Errorf("counting buyers: %w", err)
		}

		err := tx.Model(&buyerRow{}).
			Scopes(filterScope(filter), recentFirst).
			Limit(page.PageSize).
			Offset(page.Offset()).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("querying buyers: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	buyers := make([]models.Buyer, 0, len(rows))

	for i := range rows {
		b, err := rows[i].model()
		if err != nil {
			return nil, err
		}

		buyers = append(buyers, *b)
	}

	return &models.BuyerPage{
		Buyers:   buyers,
		Total:    int(total),
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

func queryHistory(tx *gorm.DB, buyerID string, limit, offset int) ([]models.HistoryEntry, error) {
	var rows []historyRow

	err := tx.Where("buyer_id = ?", buyerID).
		Order("changed_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying buyer history: %w", err)
	}

	entries := make([]models.HistoryEntry, 0, len(rows))

	for i := range rows {
		e, err := rows[i].model()
		if err != nil {
			return nil, err
		}

		entries = append(entries, *e)
	}

	return entries, nil
}

// ListHistory returns a buyer's history newest first with has_more pagination.
func (s *Store) ListHistory(ctx context.Context, buyerID string, limit, offset int) ([]models.HistoryEntry, bool, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	var entries []models.HistoryEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&buyerRow{}).Where("id = ?", buyerID).Count(&n).Error; err != nil {
			return fmt.Errorf("checking buyer: %w", err)
		}

		if n == 0 {
			return models.ErrBuyerNotFound
		}

		var err error
		entries, err = queryHistory(tx, buyerID, limit+1, offset)

		return err
	})
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// ExportBuyers streams every matching buyer joined with its owner to fn,
// most recently updated first.
func (s *Store) ExportBuyers(ctx context.Context, filter models.BuyerFilter, fn func(models.ExportRecord) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := tx.Table("buyers").
			Select("buyers.*, COALESCE(users.email, '') AS owner_email, COALESCE(users.name, '') AS owner_name").
			Joins("LEFT JOIN users ON users.id = buyers.owner_id").
			Scopes(filterScope(filter), recentFirst).
			Rows()
		if err != nil {
			return fmt.Errorf("querying buyers for export: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var row exportRow
			if err := tx.ScanRows(rows, &row); err != nil {
				return fmt.Errorf("scanning export buyer: %w", err)
			}

			b, err := row.Buyer.model()
			if err != nil {
				return err
			}

			rec := models.ExportRecord{
				Buyer: *b,
				Owner: models.Owner{ID: b.OwnerID, Email: row.OwnerEmail, Name: row.OwnerName},
			}

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
