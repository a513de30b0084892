package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/leadintake/internal/models"
	"github.com/persistorai/leadintake/internal/validation"
)

func ptr[T any](v T) *T { return &v }

func validCreate() models.CreateBuyerRequest {
	return models.CreateBuyerRequest{
		FullName:     "Asha Rao",
		Email:        ptr("asha@example.com"),
		Phone:        "9876543210",
		City:         models.CityMohali,
		PropertyType: models.PropertyApartment,
		BHK:          ptr(models.BHKTwo),
		Purpose:      models.PurposeBuy,
		BudgetMin:    ptr(int64(5000000)),
		BudgetMax:    ptr(int64(7000000)),
		Timeline:     models.TimelineZeroToThree,
		Source:       models.SourceWebsite,
		Tags:         []string{" hot ", "", "family", "hot"},
	}
}

func fieldErrors(t *testing.T, err error) []models.FieldError {
	t.Helper()

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)

	return verr.Fields
}

func fieldNames(errs []models.FieldError) []string {
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Field)
	}

	return names
}

func TestCreate_Valid(t *testing.T) {
	b, err := validation.New().Create(validCreate())
	require.NoError(t, err)

	assert.Equal(t, models.StatusNew, b.Status)
	assert.Equal(t, []string{"hot", "family"}, b.Tags)
	assert.Equal(t, "Asha Rao", b.FullName)
}

func TestCreate_ExplicitStatus(t *testing.T) {
	req := validCreate()
	req.Status = ptr(models.StatusQualified)

	b, err := validation.New().Create(req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQualified, b.Status)
}

func TestCreate_BHKRequiredForApartmentAndVilla(t *testing.T) {
	for _, pt := range []models.PropertyType{models.PropertyApartment, models.PropertyVilla} {
		t.Run(string(pt), func(t *testing.T) {
			req := validCreate()
			req.PropertyType = pt
			req.BHK = nil

			_, err := validation.New().Create(req)
			assert.Equal(t, []string{"bhk"}, fieldNames(fieldErrors(t, err)))
		})
	}
}

func TestCreate_PlotWithoutBHK(t *testing.T) {
	req := validCreate()
	req.PropertyType = models.PropertyPlot
	req.BHK = nil

	_, err := validation.New().Create(req)
	require.NoError(t, err)
}

func TestCreate_BHKForbiddenForPlot(t *testing.T) {
	req := validCreate()
	req.PropertyType = models.PropertyPlot

	_, err := validation.New().Create(req)
	assert.Equal(t, []string{"bhk"}, fieldNames(fieldErrors(t, err)))
}

func TestCreate_BudgetMaxBelowMin(t *testing.T) {
	req := validCreate()
	req.BudgetMin = ptr(int64(8000000))
	req.BudgetMax = ptr(int64(5000000))

	_, err := validation.New().Create(req)
	errs := fieldErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "budgetMax", errs[0].Field)
	assert.Contains(t, errs[0].Message, "budgetMin")
}

func TestCreate_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.CreateBuyerRequest)
		field  string
	}{
		{"name too short", func(r *models.CreateBuyerRequest) { r.FullName = "A" }, "fullName"},
		{"name too long", func(r *models.CreateBuyerRequest) { r.FullName = strings.Repeat("a", 81) }, "fullName"},
		{"bad email", func(r *models.CreateBuyerRequest) { r.Email = ptr("not-an-email") }, "email"},
		{"short phone", func(r *models.CreateBuyerRequest) { r.Phone = "123" }, "phone"},
		{"phone with letters", func(r *models.CreateBuyerRequest) { r.Phone = "98765abc10" }, "phone"},
		{"long phone", func(r *models.CreateBuyerRequest) { r.Phone = strings.Repeat("9", 16) }, "phone"},
		{"unknown city", func(r *models.CreateBuyerRequest) { r.City = "DELHI" }, "city"},
		{"unknown purpose", func(r *models.CreateBuyerRequest) { r.Purpose = "LEASE" }, "purpose"},
		{"negative budget", func(r *models.CreateBuyerRequest) { r.BudgetMin = ptr(int64(-1)) }, "budgetMin"},
		{"long notes", func(r *models.CreateBuyerRequest) { r.Notes = ptr(strings.Repeat("n", 1001)) }, "notes"},
		{"missing timeline", func(r *models.CreateBuyerRequest) { r.Timeline = "" }, "timeline"},
		{"bad status", func(r *models.CreateBuyerRequest) { r.Status = ptr(models.Status("LOST")) }, "status"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreate()
			tc.mutate(&req)

			_, err := validation.New().Create(req)
			errs := fieldErrors(t, err)
			assert.Contains(t, fieldNames(errs), tc.field)

			for _, e := range errs {
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}

func TestCreate_EmptyEmailIsAbsent(t *testing.T) {
	req := validCreate()
	req.Email = ptr("  ")

	b, err := validation.New().Create(req)
	require.NoError(t, err)
	assert.Nil(t, b.Email)
}

func TestCreate_ReportsAllErrorsInFieldOrder(t *testing.T) {
	req := validCreate()
	req.FullName = ""
	req.Phone = "1"
	req.BHK = nil
	req.BudgetMin = ptr(int64(9))
	req.BudgetMax = ptr(int64(1))

	_, err := validation.New().Create(req)
	assert.Equal(t, []string{"fullName", "phone", "bhk", "budgetMax"}, fieldNames(fieldErrors(t, err)))
}

func storedBuyer(t *testing.T) *models.Buyer {
	t.Helper()

	b, err := validation.New().Create(validCreate())
	require.NoError(t, err)

	b.ID = "b1"
	b.OwnerID = "u1"

	return b
}

func TestUpdate_PartialMerge(t *testing.T) {
	current := storedBuyer(t)

	next, err := validation.New().Update(current, models.UpdateBuyerRequest{
		Status: ptr(models.StatusContacted),
		Notes:  models.Some("call after 6pm"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusContacted, next.Status)
	assert.Equal(t, "call after 6pm", *next.Notes)
	assert.Equal(t, current.Phone, next.Phone)
	assert.Equal(t, models.StatusNew, current.Status, "current must not be mutated")
}

func TestUpdate_CrossFieldOnMergedRecord(t *testing.T) {
	current := storedBuyer(t)

	_, err := validation.New().Update(current, models.UpdateBuyerRequest{BHK: models.Null[models.BHK]()})
	assert.Equal(t, []string{"bhk"}, fieldNames(fieldErrors(t, err)))

	_, err = validation.New().Update(current, models.UpdateBuyerRequest{BudgetMax: models.Some(int64(100))})
	assert.Equal(t, []string{"budgetMax"}, fieldNames(fieldErrors(t, err)))
}

func TestUpdate_SwitchToPlotClearsBHK(t *testing.T) {
	current := storedBuyer(t)

	next, err := validation.New().Update(current, models.UpdateBuyerRequest{
		PropertyType: ptr(models.PropertyPlot),
		BHK:          models.Null[models.BHK](),
	})
	require.NoError(t, err)
	assert.Nil(t, next.BHK)
}

func TestUpdate_SuppliedFieldValidated(t *testing.T) {
	_, err := validation.New().Update(storedBuyer(t), models.UpdateBuyerRequest{Phone: ptr("12")})
	assert.Equal(t, []string{"phone"}, fieldNames(fieldErrors(t, err)))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{}, validation.NormalizeTags(nil))
	assert.Equal(t, []string{"a", "b"}, validation.NormalizeTags([]string{" a", "b ", "", "a"}))
}
