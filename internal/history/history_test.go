package history_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/leadintake/internal/history"
	"github.com/persistorai/leadintake/internal/models"
)

func ptr[T any](v T) *T { return &v }

func sampleBuyer() *models.Buyer {
	return &models.Buyer{
		ID:           "b1",
		FullName:     "Asha Rao",
		Phone:        "9876543210",
		City:         models.CityMohali,
		PropertyType: models.PropertyPlot,
		Purpose:      models.PurposeBuy,
		BudgetMin:    ptr(int64(100)),
		Timeline:     models.TimelineExploring,
		Source:       models.SourceCall,
		Status:       models.StatusNew,
		Tags:         []string{},
	}
}

func fieldNames(d models.Diff) []string {
	out := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		out = append(out, f.Field)
	}

	return out
}

func TestInitial_OnlySuppliedFields(t *testing.T) {
	d, err := history.Initial(models.ActionCreated, sampleBuyer())
	require.NoError(t, err)

	assert.Equal(t, models.ActionCreated, d.Action)
	assert.Equal(t, []string{
		"fullName", "phone", "city", "propertyType", "purpose",
		"budgetMin", "timeline", "source", "status",
	}, fieldNames(d))

	for _, f := range d.Fields {
		assert.Nil(t, f.Old, "field %s", f.Field)
	}

	fc, ok := d.Field("budgetMin")
	require.True(t, ok)
	assert.JSONEq(t, `100`, string(fc.New))
}

func TestInitial_Imported(t *testing.T) {
	d, err := history.Initial(models.ActionImported, sampleBuyer())
	require.NoError(t, err)
	assert.Equal(t, models.ActionImported, d.Action)

	_, err = history.Initial(models.ActionUpdated, sampleBuyer())
	assert.Error(t, err)
}

func TestChanges_IdenticalIsEmpty(t *testing.T) {
	b := sampleBuyer()

	d, err := history.Changes(b, b.Clone())
	require.NoError(t, err)
	assert.True(t, d.Empty())
}

func TestChanges_NilAndEmptyTagsEqual(t *testing.T) {
	a := sampleBuyer()
	b := a.Clone()
	a.Tags = nil

	d, err := history.Changes(a, b)
	require.NoError(t, err)
	assert.True(t, d.Empty())
}

func TestChanges_OnlyChangedFields(t *testing.T) {
	oldB := sampleBuyer()
	newB := oldB.Clone()
	newB.Status = models.StatusQualified
	newB.Email = ptr("asha@example.com")
	newB.BudgetMin = nil
	newB.Tags = []string{"hot"}

	d, err := history.Changes(oldB, newB)
	require.NoError(t, err)

	assert.Equal(t, models.ActionUpdated, d.Action)
	assert.Equal(t, []string{"email", "budgetMin", "status", "tags"}, fieldNames(d))

	email, _ := d.Field("email")
	assert.JSONEq(t, `null`, string(email.Old))
	assert.JSONEq(t, `"asha@example.com"`, string(email.New))

	budget, _ := d.Field("budgetMin")
	assert.JSONEq(t, `100`, string(budget.Old))
	assert.JSONEq(t, `null`, string(budget.New))

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var back models.Diff
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, fieldNames(d), fieldNames(back))
}

func TestNewEntry(t *testing.T) {
	at := history.Now()
	e := history.NewEntry("b1", "u1", models.Diff{Action: models.ActionCreated}, at)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "b1", e.BuyerID)
	assert.Equal(t, "u1", e.ChangedBy)
	assert.True(t, e.ChangedAt.Equal(at))
}

func TestNextVersion_StrictlyIncreasing(t *testing.T) {
	future := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)

	next := history.NextVersion(future)
	assert.True(t, next.After(future))
	assert.Equal(t, time.Microsecond, next.Sub(future))

	past := time.Now().Add(-time.Hour)
	assert.True(t, history.NextVersion(past).After(past))
}
