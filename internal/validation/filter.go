package validation

import "github.com/persistorai/leadintake/internal/models"

// filterFields mirrors models.BuyerFilter with the query parameter names
// used by list and export.
type filterFields struct {
	Search       string `json:"search" validate:"max=100"`
	City         string `json:"city" validate:"omitempty,oneof=CHANDIGARH MOHALI ZIRAKPUR PANCHKULA OTHER"`
	PropertyType string `json:"propertyType" validate:"omitempty,oneof=APARTMENT VILLA PLOT OFFICE RETAIL"`
	Status       string `json:"status" validate:"omitempty,oneof=NEW QUALIFIED CONTACTED VISITED NEGOTIATION CONVERTED DROPPED"`
	Timeline     string `json:"timeline" validate:"omitempty,oneof=ZERO_TO_THREE_MONTHS THREE_TO_SIX_MONTHS MORE_THAN_SIX_MONTHS EXPLORING"`
}

// Filter checks that every set predicate names a known enum value and that
// the search term is at most 100 characters.
func (e *Engine) Filter(f models.BuyerFilter) error {
	ff := filterFields{
		Search:       f.Search,
		City:         string(f.City),
		PropertyType: string(f.PropertyType),
		Status:       string(f.Status),
		Timeline:     string(f.Timeline),
	}

	if errs := e.fieldErrors(e.validate.Struct(ff)); len(errs) > 0 {
		return &models.ValidationError{Fields: errs}
	}

	return nil
}
