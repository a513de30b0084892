package validation

import (
	"strconv"
	"strings"

	"github.com/persistorai/leadintake/internal/models"
)

// ImportColumns is the exact header set accepted by bulk import.
var ImportColumns = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk", "purpose",
	"budgetMin", "budgetMax", "timeline", "source", "notes", "tags",
}

// Row validates one tabular row keyed by header name. Numeric cells arrive as
// text: blank means absent, anything non-numeric is an error rather than a
// silent zero. Tags are comma-separated. Status is always NEW.
func (e *Engine) Row(cells map[string]string) (*models.Buyer, []models.FieldError) {
	cell := func(name string) string { return strings.TrimSpace(cells[name]) }

	b := &models.Buyer{
		FullName:     cell("fullName"),
		Email:        optionalText(cell("email")),
		Phone:        cell("phone"),
		City:         models.City(cell("city")),
		PropertyType: models.PropertyType(cell("propertyType")),
		Purpose:      models.Purpose(cell("purpose")),
		Timeline:     models.Timeline(cell("timeline")),
		Source:       models.Source(cell("source")),
		Status:       models.StatusNew,
		Notes:        optionalText(cell("notes")),
		Tags:         strings.Split(cell("tags"), ","),
	}

	if v := cell("bhk"); v != "" {
		bhk := models.BHK(v)
		b.BHK = &bhk
	}

	var parseErrs []models.FieldError

	for _, f := range []struct {
		name string
		dst  **int64
	}{
		{"budgetMin", &b.BudgetMin},
		{"budgetMax", &b.BudgetMax},
	} {
		n, err := optionalInt(cell(f.name))
		if err != nil {
			parseErrs = append(parseErrs, models.FieldError{Field: f.name, Message: "must be a whole number"})

			continue
		}

		*f.dst = n
	}

	normalize(b)

	errs := append(parseErrs, e.check(b)...)
	if len(errs) > 0 {
		sortFieldErrors(errs)

		return nil, errs
	}

	return b, nil
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func optionalInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // blank cell means not provided.
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}

	return &n, nil
}
