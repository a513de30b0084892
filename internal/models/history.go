package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Action tags what kind of mutation produced a history entry.
type Action string

// History actions.
const (
	ActionCreated  Action = "CREATED"
	ActionUpdated  Action = "UPDATED"
	ActionImported Action = "IMPORTED"
)

// TrackedFields lists, in display order, every buyer field recorded in history diffs.
var TrackedFields = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk", "purpose",
	"budgetMin", "budgetMax", "timeline", "source", "status", "notes", "tags",
}

// FieldChange is one field's before/after pair. Old is nil for CREATED and
// IMPORTED entries; a previously empty value is the JSON literal null.
type FieldChange struct {
	Field string
	Old   json.RawMessage
	New   json.RawMessage
}

// Diff is the typed payload of a history entry. Fields are kept in
// TrackedFields order.
type Diff struct {
	Action Action
	Fields []FieldChange
}

// Empty reports whether the diff records no field changes.
func (d Diff) Empty() bool { return len(d.Fields) == 0 }

// Field returns the change recorded for name, if any.
func (d Diff) Field(name string) (FieldChange, bool) {
	for _, f := range d.Fields {
		if f.Field == name {
			return f, true
		}
	}

	return FieldChange{}, false
}

// MarshalJSON renders {"action": ..., "fields": {"name": {"old": ..., "new": ...}}}
// with fields in TrackedFields order.
func (d Diff) MarshalJSON() ([]byte, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.WriteString(`{"action":`)

	action, err := json.Marshal(string(d.Action))
	if err != nil {
		return nil, err
	}

	buf.Write(action)
	buf.WriteString(`,"fields":{`)

	for i, f := range d.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(f.Field)
		if err != nil {
			return nil, err
		}

		buf.Write(name)
		buf.WriteString(`:{`)

		if f.Old != nil {
			buf.WriteString(`"old":`)
			buf.Write(f.Old)
			buf.WriteByte(',')
		}

		buf.WriteString(`"new":`)
		buf.Write(f.New)
		buf.WriteByte('}')
	}

	buf.WriteString(`}}`)

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes and validates a stored diff payload.
func (d *Diff) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action Action                                `json:"action"`
		Fields map[string]map[string]json.RawMessage `json:"fields"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding history diff: %w", err)
	}

	out := Diff{Action: raw.Action, Fields: make([]FieldChange, 0, len(raw.Fields))}

	for name, pair := range raw.Fields {
		fc := FieldChange{Field: name}

		for k, v := range pair {
			switch k {
			case "old":
				fc.Old = v
			case "new":
				fc.New = v
			default:
				return fmt.Errorf("history diff field %q: unexpected key %q", name, k)
			}
		}

		out.Fields = append(out.Fields, fc)
	}

	slices.SortFunc(out.Fields, func(a, b FieldChange) int {
		return slices.Index(TrackedFields, a.Field) - slices.Index(TrackedFields, b.Field)
	})

	if err := out.validate(); err != nil {
		return err
	}

	*d = out

	return nil
}

func (d Diff) validate() error {
	switch d.Action {
	case ActionCreated, ActionImported, ActionUpdated:
	default:
		return fmt.Errorf("history diff: unknown action %q", d.Action)
	}

	for _, f := range d.Fields {
		if !slices.Contains(TrackedFields, f.Field) {
			return fmt.Errorf("history diff: unknown field %q", f.Field)
		}

		if f.New == nil {
			return fmt.Errorf("history diff field %q: missing new value", f.Field)
		}

		if d.Action == ActionUpdated && f.Old == nil {
			return fmt.Errorf("history diff field %q: missing old value", f.Field)
		}

		if d.Action != ActionUpdated && f.Old != nil {
			return fmt.Errorf("history diff field %q: old value not allowed for %s", f.Field, d.Action)
		}
	}

	return nil
}

// HistoryEntry is an immutable audit record of one buyer mutation.
type HistoryEntry struct {
	ID        string    `json:"id"`
	BuyerID   string    `json:"buyerId"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
	Diff      Diff      `json:"diff"`
}
