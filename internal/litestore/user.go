package litestore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/persistorai/leadintake/internal/history"
	"github.com/persistorai/leadintake/internal/models"
)

// UpsertUser returns the user with email, creating it on first sign-in and
// refreshing the display name otherwise.
func (s *Store) UpsertUser(ctx context.Context, email, name string) (*models.User, error) {
	var row userRow

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := userRow{
			ID:            uuid.New().String(),
			Email:         email,
			Name:          name,
			CreatedMicros: history.Now().UnixMicro(),
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&candidate).Error
		if err != nil {
			return fmt.Errorf("upserting user: %w", err)
		}

		return tx.Where("email = ?", email).Take(&row).Error
	})
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		CreatedAt: fromMicros(row.CreatedMicros),
	}, nil
}
