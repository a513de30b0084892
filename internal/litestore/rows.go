package litestore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/persistorai/leadintake/internal/models"
)

// Timestamps are stored as Unix microseconds so ordering and equality are
// exact integer comparisons.

type userRow struct {
	ID            string `gorm:"primaryKey"`
	Email         string `gorm:"uniqueIndex;not null"`
	Name          string `gorm:"not null;default:''"`
	CreatedMicros int64  `gorm:"column:created_at;not null"`
}

func (userRow) TableName() string { return "users" }

type buyerRow struct {
	ID            string `gorm:"primaryKey"`
	FullName      string `gorm:"not null"`
	Email         *string
	Phone         string  `gorm:"not null"`
	City          string  `gorm:"not null;index"`
	PropertyType  string  `gorm:"not null"`
	BHK           *string `gorm:"column:bhk"`
	Purpose       string  `gorm:"not null"`
	BudgetMin     *int64
	BudgetMax     *int64
	Timeline      string `gorm:"not null"`
	Source        string `gorm:"not null"`
	Status        string `gorm:"not null;index"`
	Notes         *string
	Tags          string `gorm:"not null;default:'[]'"`
	OwnerID       string `gorm:"not null;index"`
	CreatedMicros int64  `gorm:"column:created_at;not null"`
	UpdatedMicros int64  `gorm:"column:updated_at;not null;index"`
}

func (buyerRow) TableName() string { return "buyers" }

type historyRow struct {
	ID            string    `gorm:"primaryKey"`
	BuyerID       string    `gorm:"not null;index"`
	ChangedBy     string    `gorm:"not null"`
	ChangedMicros int64     `gorm:"column:changed_at;not null"`
	Diff          string    `gorm:"not null"`
	Buyer         *buyerRow `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE"`
}

func (historyRow) TableName() string { return "buyer_history" }

type auditRow struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Action        string `gorm:"not null"`
	EntityType    string `gorm:"not null;index:idx_audit_entity"`
	EntityID      string `gorm:"not null;index:idx_audit_entity"`
	Actor         *string
	Detail        *string
	CreatedMicros int64 `gorm:"column:created_at;not null;index"`
}

func (auditRow) TableName() string { return "audit_log" }

// exportRow is a buyer joined with its owner's identity. The buyer columns
// are embedded through a named field; gorm does not map unexported embeds.
type exportRow struct {
	Buyer      buyerRow `gorm:"embedded"`
	OwnerEmail string
	OwnerName  string
}

func toMicros(t time.Time) int64 { return t.UnixMicro() }

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }

func newBuyerRow(b *models.Buyer) (*buyerRow, error) {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}

	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}

	var bhk *string
	if b.BHK != nil {
		v := string(*b.BHK)
		bhk = &v
	}

	return &buyerRow{
		ID:            b.ID,
		FullName:      b.FullName,
		Email:         b.Email,
		Phone:         b.Phone,
		City:          string(b.City),
		PropertyType:  string(b.PropertyType),
		BHK:           bhk,
		Purpose:       string(b.Purpose),
		BudgetMin:     b.BudgetMin,
		BudgetMax:     b.BudgetMax,
		Timeline:      string(b.Timeline),
		Source:        string(b.Source),
		Status:        string(b.Status),
		Notes:         b.Notes,
		Tags:          string(tagsJSON),
		OwnerID:       b.OwnerID,
		CreatedMicros: toMicros(b.CreatedAt),
		UpdatedMicros: toMicros(b.UpdatedAt),
	}, nil
}

func (r *buyerRow) model() (*models.Buyer, error) {
	tags := []string{}
	if r.Tags != "" {
		if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
			return nil, fmt.Errorf("decoding tags of buyer %s: %w", r.ID, err)
		}
	}

	b := &models.Buyer{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        r.Email,
		Phone:        r.Phone,
		City:         models.City(r.City),
		PropertyType: models.PropertyType(r.PropertyType),
		Purpose:      models.Purpose(r.Purpose),
		BudgetMin:    r.BudgetMin,
		BudgetMax:    r.BudgetMax,
		Timeline:     models.Timeline(r.Timeline),
		Source:       models.Source(r.Source),
		Status:       models.Status(r.Status),
		Notes:        r.Notes,
		Tags:         tags,
		OwnerID:      r.OwnerID,
		CreatedAt:    fromMicros(r.CreatedMicros),
		UpdatedAt:    fromMicros(r.UpdatedMicros),
	}

	if r.BHK != nil {
		v := models.BHK(*r.BHK)
		b.BHK = &v
	}

	return b, nil
}

func newHistoryRow(e models.HistoryEntry) (*historyRow, error) {
	diff, err := json.Marshal(e.Diff)
	if err != nil {
		return nil, fmt.Errorf("marshalling history diff: %w", err)
	}

	return &historyRow{
		ID:            e.ID,
		BuyerID:       e.BuyerID,
		ChangedBy:     e.ChangedBy,
		ChangedMicros: toMicros(e.ChangedAt),
		Diff:          string(diff),
	}, nil
}

func (r *historyRow) model() (*models.HistoryEntry, error) {
	e := &models.HistoryEntry{
		ID:        r.ID,
		BuyerID:   r.BuyerID,
		ChangedBy: r.ChangedBy,
		ChangedAt: fromMicros(r.ChangedMicros),
	}

	if err := json.Unmarshal([]byte(r.Diff), &e.Diff); err != nil {
		return nil, fmt.Errorf("decoding history %s: %w", r.ID, err)
	}

	return e, nil
}
