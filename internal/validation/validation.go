// Package validation turns candidate buyer field-sets into normalized records
// or field-level errors. The same rules back API creates, partial updates
// (checked against the merged record) and CSV import rows.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/persistorai/leadintake/internal/models"
)

var phonePattern = regexp.MustCompile(`^\d{10,15}$`)

// Engine validates buyer records.
type Engine struct {
	validate *validator.Validate
}

// New creates an Engine with the buyer rules registered.
func New() *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool { //nolint:errcheck // tag name is static.
		return phonePattern.MatchString(fl.Field().String())
	})

	v.RegisterStructValidation(crossFieldRules, models.Buyer{})

	return &Engine{validate: v}
}

// crossFieldRules enforces the invariants that span more than one field.
func crossFieldRules(sl validator.StructLevel) {
	b, ok := sl.Current().Interface().(models.Buyer)
	if !ok {
		return
	}

	switch {
	case b.PropertyType.RequiresBHK() && b.BHK == nil:
		sl.ReportError(b.BHK, "bhk", "BHK", "bhk_required", "")
	case !b.PropertyType.RequiresBHK() && b.BHK != nil && b.PropertyType != "":
		sl.ReportError(b.BHK, "bhk", "BHK", "bhk_forbidden", "")
	}

	if b.BudgetMin != nil && b.BudgetMax != nil && *b.BudgetMax < *b.BudgetMin {
		sl.ReportError(b.BudgetMax, "budgetMax", "BudgetMax", "budget_range", "")
	}
}

// Create validates a create payload and returns the normalized record.
// Status defaults to NEW. OwnerID and timestamps are left for the store.
func (e *Engine) Create(req models.CreateBuyerRequest) (*models.Buyer, error) {
	b := &models.Buyer{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		City:         req.City,
		PropertyType: req.PropertyType,
		BHK:          req.BHK,
		Purpose:      req.Purpose,
		BudgetMin:    req.BudgetMin,
		BudgetMax:    req.BudgetMax,
		Timeline:     req.Timeline,
		Source:       req.Source,
		Status:       models.StatusNew,
		Notes:        req.Notes,
		Tags:         req.Tags,
	}

	if req.Status != nil {
		b.Status = *req.Status
	}

	normalize(b)

	if errs := e.check(b); len(errs) > 0 {
		return nil, &models.ValidationError{Fields: errs}
	}

	return b, nil
}

// Update merges a partial payload onto current and validates the merged
// record, so cross-field rules see the full logical state. current is not modified.
func (e *Engine) Update(current *models.Buyer, req models.UpdateBuyerRequest) (*models.Buyer, error) {
	b := current.Clone()

	setIf(&b.FullName, req.FullName)
	setIf(&b.Phone, req.Phone)
	setIf(&b.City, req.City)
	setIf(&b.PropertyType, req.PropertyType)
	setIf(&b.Purpose, req.Purpose)
	setIf(&b.Timeline, req.Timeline)
	setIf(&b.Source, req.Source)
	setIf(&b.Status, req.Status)
	setOptional(&b.Email, req.Email)
	setOptional(&b.BHK, req.BHK)
	setOptional(&b.BudgetMin, req.BudgetMin)
	setOptional(&b.BudgetMax, req.BudgetMax)
	setOptional(&b.Notes, req.Notes)

	if req.Tags != nil {
		b.Tags = *req.Tags
	}

	normalize(b)

	if errs := e.check(b); len(errs) > 0 {
		return nil, &models.ValidationError{Fields: errs}
	}

	return b, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setOptional[T any](dst **T, o models.Optional[T]) {
	if !o.Set {
		return
	}

	if o.Value == nil {
		*dst = nil

		return
	}

	v := *o.Value
	*dst = &v
}

// normalize trims free text, folds empty optional strings to absent and
// dedupes tags while keeping their first-seen order.
func normalize(b *models.Buyer) {
	b.FullName = strings.TrimSpace(b.FullName)
	b.Phone = strings.TrimSpace(b.Phone)
	b.Email = trimOptional(b.Email)
	b.Notes = trimOptional(b.Notes)

	if b.BHK != nil && *b.BHK == "" {
		b.BHK = nil
	}

	b.Tags = NormalizeTags(b.Tags)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}

	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}

	return &v
}

// NormalizeTags trims each tag, drops empties and duplicates, and never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}

		out = append(out, t)
	}

	return out
}

// check runs the struct rules and returns field errors in display order.
func (e *Engine) check(b *models.Buyer) []models.FieldError {
	return e.fieldErrors(e.validate.Struct(b))
}

// fieldErrors converts a validator result into field errors in display order.
func (e *Engine) fieldErrors(err error) []models.FieldError {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "record", Message: err.Error()}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{Field: fe.Field(), Message: message(fe)})
	}

	sortFieldErrors(out)

	return out
}

func sortFieldErrors(errs []models.FieldError) {
	slices.SortStableFunc(errs, func(a, b models.FieldError) int {
		return fieldRank(a.Field) - fieldRank(b.Field)
	})
}

func fieldRank(field string) int {
	if i := slices.Index(models.TrackedFields, field); i >= 0 {
		return i
	}

	return len(models.TrackedFields)
}
