package service

import (
	"time"

	"github.com/persistorai/leadintake/internal/models"
)

// CheckWrite decides whether actorID may write current. Ownership is checked
// first, so a non-owner is refused even when the version matches. A nil
// expected version skips the version check and the write is last-writer-wins.
func CheckWrite(current *models.Buyer, actorID string, expected *time.Time) error {
	if current.OwnerID != actorID {
		return models.ErrNotOwner
	}

	if expected != nil && !expected.Equal(current.UpdatedAt) {
		return models.ErrVersionConflict
	}

	return nil
}
