package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Optional is a tri-state JSON field: absent, explicitly null, or a value.
// It lets a partial update tell "leave unchanged" apart from "clear".
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the key
// is present, so Set records presence.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil

		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	o.Value = &v

	return nil
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}

	return json.Marshal(*o.Value)
}

// CreateBuyerRequest is the payload for creating a buyer. Status defaults to NEW.
type CreateBuyerRequest struct {
	FullName     string       `json:"fullName"`
	Email        *string      `json:"email"`
	Phone        string       `json:"phone"`
	City         City         `json:"city"`
	PropertyType PropertyType `json:"propertyType"`
	BHK          *BHK         `json:"bhk"`
	Purpose      Purpose      `json:"purpose"`
	BudgetMin    *int64       `json:"budgetMin"`
	BudgetMax    *int64       `json:"budgetMax"`
	Timeline     Timeline     `json:"timeline"`
	Source       Source       `json:"source"`
	Status       *Status      `json:"status"`
	Notes        *string      `json:"notes"`
	Tags         []string     `json:"tags"`
}

// UpdateBuyerRequest is a partial update. Nil pointers leave a field unchanged;
// optional fields may be cleared with an explicit null. Unset fields are
// omitted when the request is encoded. UpdatedAt, when set,
// must equal the stored version or the update is rejected as a conflict.
type UpdateBuyerRequest struct {
	FullName     *string          `json:"fullName,omitzero"`
	Email        Optional[string] `json:"email,omitzero"`
	Phone        *string          `json:"phone,omitzero"`
	City         *City            `json:"city,omitzero"`
	PropertyType *PropertyType    `json:"propertyType,omitzero"`
	BHK          Optional[BHK]    `json:"bhk,omitzero"`
	Purpose      *Purpose         `json:"purpose,omitzero"`
	BudgetMin    Optional[int64]  `json:"budgetMin,omitzero"`
	BudgetMax    Optional[int64]  `json:"budgetMax,omitzero"`
	Timeline     *Timeline        `json:"timeline,omitzero"`
	Source       *Source          `json:"source,omitzero"`
	Status       *Status          `json:"status,omitzero"`
	Notes        Optional[string] `json:"notes,omitzero"`
	Tags         *[]string        `json:"tags,omitzero"`
	UpdatedAt    *time.Time       `json:"updatedAt,omitzero"`
}

// ImportResult summarises an accepted (or dry-run) bulk import.
type ImportResult struct {
	Total    int      `json:"total"`
	Valid    int      `json:"valid"`
	Invalid  int      `json:"invalid"`
	Imported int      `json:"imported"`
	DryRun   bool     `json:"dry_run"`
	IDs      []string `json:"ids,omitempty"`
}
