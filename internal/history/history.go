// Package history computes field-level diffs between buyer snapshots and
// builds the immutable entries that record them.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/persistorai/leadintake/internal/models"
)

// snapshot returns the tracked field values of b in models.TrackedFields order.
// A nil pointer field is reported as absent.
func snapshot(b *models.Buyer) []fieldValue {
	return []fieldValue{
		{"fullName", b.FullName, true},
		{"email", b.Email, b.Email != nil},
		{"phone", b.Phone, true},
		{"city", b.City, true},
		{"propertyType", b.PropertyType, true},
		{"bhk", b.BHK, b.BHK != nil},
		{"purpose", b.Purpose, true},
		{"budgetMin", b.BudgetMin, b.BudgetMin != nil},
		{"budgetMax", b.BudgetMax, b.BudgetMax != nil},
		{"timeline", b.Timeline, true},
		{"source", b.Source, true},
		{"status", b.Status, true},
		{"notes", b.Notes, b.Notes != nil},
		{"tags", nonNilTags(b.Tags), len(b.Tags) > 0},
	}
}

type fieldValue struct {
	name    string
	value   any
	present bool
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	return tags
}

// Initial builds a CREATED or IMPORTED diff holding every supplied field of b.
func Initial(action models.Action, b *models.Buyer) (models.Diff, error) {
	if action != models.ActionCreated && action != models.ActionImported {
		return models.Diff{}, fmt.Errorf("initial diff: unsupported action %q", action)
	}

	d := models.Diff{Action: action}

	for _, f := range snapshot(b) {
		if !f.present {
			continue
		}

		newJSON, err := json.Marshal(f.value)
		if err != nil {
			return models.Diff{}, fmt.Errorf("marshalling new value for %s: %w", f.name, err)
		}

		d.Fields = append(d.Fields, models.FieldChange{Field: f.name, New: newJSON})
	}

	return d, nil
}

// Changes builds an UPDATED diff holding only fields whose value differs
// between oldB and newB. An empty result means the update is a no-op.
func Changes(oldB, newB *models.Buyer) (models.Diff, error) {
	d := models.Diff{Action: models.ActionUpdated}

	oldFields := snapshot(oldB)

	for i, f := range snapshot(newB) {
		newJSON, err := json.Marshal(f.value)
		if err != nil {
			return models.Diff{}, fmt.Errorf("marshalling new value for %s: %w", f.name, err)
		}

		oldJSON, err := json.Marshal(oldFields[i].value)
		if err != nil {
			return models.Diff{}, fmt.Errorf("marshalling old value for %s: %w", f.name, err)
		}

		if !bytes.Equal(oldJSON, newJSON) {
			d.Fields = append(d.Fields, models.FieldChange{Field: f.name, Old: oldJSON, New: newJSON})
		}
	}

	return d, nil
}

// NewEntry stamps a diff with identity, actor and time.
func NewEntry(buyerID, actor string, diff models.Diff, at time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		ID:        uuid.New().String(),
		BuyerID:   buyerID,
		ChangedBy: actor,
		ChangedAt: at,
		Diff:      diff,
	}
}

// Now returns the current time at the precision both stores persist.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NextVersion returns a version timestamp strictly after prev, so two writes
// inside the same microsecond still produce distinct tokens.
func NextVersion(prev time.Time) time.Time {
	now := Now()
	if !now.After(prev) {
		return prev.UTC().Add(time.Microsecond)
	}

	return now
}
