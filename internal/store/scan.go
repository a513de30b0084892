package store

import (
	"encoding/json"
	"fmt"

	"github.com/persistorai/leadintake/internal/models"
)

// buyerColumns lists the columns selected for buyer queries (table alias b).
const buyerColumns = `b.id::text, b.full_name, b.email, b.phone, b.city,
	b.property_type, b.bhk, b.purpose, b.budget_min, b.budget_max,
	b.timeline, b.source, b.status, b.notes, b.tags,
	b.owner_id::text, b.created_at, b.updated_at`

// historyColumns lists the columns selected for history queries.
const historyColumns = `id::text, buyer_id::text, changed_by::text, changed_at, diff`

// scanBuyer scans a single row into a models.Buyer. extra receives any
// columns selected after buyerColumns.
func scanBuyer(scan func(dest ...any) error, extra ...any) (*models.Buyer, error) {
	var (
		b                           models.Buyer
		city, propertyType, purpose string
		timeline, source, status    string
		bhk                         *string
	)

	dest := []any{
		&b.ID, &b.FullName, &b.Email, &b.Phone, &city,
		&propertyType, &bhk, &purpose, &b.BudgetMin, &b.BudgetMax,
		&timeline, &source, &status, &b.Notes, &b.Tags,
		&b.OwnerID, &b.CreatedAt, &b.UpdatedAt,
	}

	if err := scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	b.City = models.City(city)
	b.PropertyType = models.PropertyType(propertyType)
	b.Purpose = models.Purpose(purpose)
	b.Timeline = models.Timeline(timeline)
	b.Source = models.Source(source)
	b.Status = models.Status(status)

	if bhk != nil {
		v := models.BHK(*bhk)
		b.BHK = &v
	}

	if b.Tags == nil {
		b.Tags = []string{}
	}

	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()

	return &b, nil
}

// buyerArgs returns the insert/update arguments for b in buyerColumns order.
func buyerArgs(b *models.Buyer) []any {
	var bhk *string
	if b.BHK != nil {
		v := string(*b.BHK)
		bhk = &v
	}

	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}

	return []any{
		b.ID, b.FullName, b.Email, b.Phone, string(b.City),
		string(b.PropertyType), bhk, string(b.Purpose), b.BudgetMin, b.BudgetMax,
		string(b.Timeline), string(b.Source), string(b.Status), b.Notes, tags,
		b.OwnerID, b.CreatedAt, b.UpdatedAt,
	}
}

// scanHistory scans a single row into a models.HistoryEntry.
func scanHistory(scan func(dest ...any) error) (*models.HistoryEntry, error) {
	var (
		e    models.HistoryEntry
		diff []byte
	)

	if err := scan(&e.ID, &e.BuyerID, &e.ChangedBy, &e.ChangedAt, &diff); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(diff, &e.Diff); err != nil {
		return nil, fmt.Errorf("decoding history %s: %w", e.ID, err)
	}

	e.ChangedAt = e.ChangedAt.UTC()

	return &e, nil
}
