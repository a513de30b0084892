package models_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/persistorai/leadintake/internal/models"
)

func ptr[T any](v T) *T { return &v }

func assertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}

	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected error containing %q, got %q", want, err.Error())
	}
}

func TestUpdateBuyerRequest_OptionalPresence(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantSet   bool
		wantValue *string
	}{
		{name: "absent", body: `{}`, wantSet: false},
		{name: "explicit null", body: `{"email":null}`, wantSet: true},
		{name: "value", body: `{"email":"a@b.co"}`, wantSet: true, wantValue: ptr("a@b.co")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req models.UpdateBuyerRequest
			assertNoError(t, json.Unmarshal([]byte(tc.body), &req))

			if req.Email.Set != tc.wantSet {
				t.Errorf("Set = %v, want %v", req.Email.Set, tc.wantSet)
			}

			switch {
			case tc.wantValue == nil && req.Email.Value != nil:
				t.Errorf("expected nil value, got %q", *req.Email.Value)
			case tc.wantValue != nil && (req.Email.Value == nil || *req.Email.Value != *tc.wantValue):
				t.Errorf("expected value %q, got %v", *tc.wantValue, req.Email.Value)
			}
		})
	}
}

func TestUpdateBuyerRequest_OptionalNumber(t *testing.T) {
	var req models.UpdateBuyerRequest
	assertNoError(t, json.Unmarshal([]byte(`{"budgetMin":500000,"budgetMax":null}`), &req))

	if !req.BudgetMin.Set || req.BudgetMin.Value == nil || *req.BudgetMin.Value != 500000 {
		t.Errorf("unexpected budgetMin %+v", req.BudgetMin)
	}

	if !req.BudgetMax.Set || req.BudgetMax.Value != nil {
		t.Errorf("expected budgetMax cleared, got %+v", req.BudgetMax)
	}

	err := json.Unmarshal([]byte(`{"budgetMin":"lots"}`), &req)
	if err == nil {
		t.Fatal("expected error for non-numeric budgetMin")
	}
}

func TestDiff_MarshalOrdered(t *testing.T) {
	d := models.Diff{
		Action: models.ActionUpdated,
		Fields: []models.FieldChange{
			{Field: "city", Old: json.RawMessage(`"MOHALI"`), New: json.RawMessage(`"ZIRAKPUR"`)},
			{Field: "email", Old: json.RawMessage(`null`), New: json.RawMessage(`"x@y.in"`)},
		},
	}

	data, err := json.Marshal(d)
	assertNoError(t, err)

	want := `{"action":"UPDATED","fields":{"city":{"old":"MOHALI","new":"ZIRAKPUR"},"email":{"old":null,"new":"x@y.in"}}}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}

func TestDiff_UnmarshalSortsFields(t *testing.T) {
	var d models.Diff
	assertNoError(t, json.Unmarshal([]byte(`{"action":"CREATED","fields":{"tags":{"new":["hot"]},"fullName":{"new":"Asha Rao"}}}`), &d))

	if d.Action != models.ActionCreated {
		t.Errorf("expected CREATED, got %s", d.Action)
	}

	if len(d.Fields) != 2 || d.Fields[0].Field != "fullName" || d.Fields[1].Field != "tags" {
		t.Fatalf("unexpected field order: %+v", d.Fields)
	}

	if d.Fields[0].Old != nil {
		t.Errorf("expected no old value on created diff")
	}
}

func TestDiff_UnmarshalRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "unknown action", body: `{"action":"DELETED","fields":{}}`, wantErr: "unknown action"},
		{name: "unknown field", body: `{"action":"CREATED","fields":{"salary":{"new":1}}}`, wantErr: "unknown field"},
		{name: "update without old", body: `{"action":"UPDATED","fields":{"phone":{"new":"9876543210"}}}`, wantErr: "missing old value"},
		{name: "create with old", body: `{"action":"CREATED","fields":{"phone":{"old":"1","new":"9876543210"}}}`, wantErr: "old value not allowed"},
		{name: "extra key", body: `{"action":"CREATED","fields":{"phone":{"new":"9876543210","was":"x"}}}`, wantErr: "unexpected key"},
		{name: "missing new", body: `{"action":"UPDATED","fields":{"phone":{"old":"9876543210"}}}`, wantErr: "missing new value"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var d models.Diff
			assertErrorContains(t, json.Unmarshal([]byte(tc.body), &d), tc.wantErr)
		})
	}
}

func TestBuyerClone_Independent(t *testing.T) {
	bhk := models.BHKTwo
	b := &models.Buyer{FullName: "Asha", BHK: &bhk, BudgetMin: ptr(int64(10)), Tags: []string{"a"}}

	c := b.Clone()
	*c.BHK = models.BHKFour
	*c.BudgetMin = 20
	c.Tags[0] = "b"

	if *b.BHK != models.BHKTwo || *b.BudgetMin != 10 || b.Tags[0] != "a" {
		t.Errorf("clone mutated original: %+v", b)
	}
}

func TestOwner_DisplayName(t *testing.T) {
	if got := (models.Owner{Email: "a@b.co", Name: "Asha"}).DisplayName(); got != "Asha" {
		t.Errorf("expected name, got %q", got)
	}

	if got := (models.Owner{Email: "a@b.co"}).DisplayName(); got != "a@b.co" {
		t.Errorf("expected email fallback, got %q", got)
	}
}

func TestPropertyType_RequiresBHK(t *testing.T) {
	for _, p := range []models.PropertyType{models.PropertyApartment, models.PropertyVilla} {
		if !p.RequiresBHK() {
			t.Errorf("%s should require bhk", p)
		}
	}

	for _, p := range []models.PropertyType{models.PropertyPlot, models.PropertyOffice, models.PropertyRetail} {
		if p.RequiresBHK() {
			t.Errorf("%s should not require bhk", p)
		}
	}
}

func TestPageRequest_Offset(t *testing.T) {
	if got := (models.PageRequest{Page: 3, PageSize: 10}).Offset(); got != 20 {
		t.Errorf("expected offset 20, got %d", got)
	}

	if got := (models.PageRequest{Page: 0, PageSize: 10}).Offset(); got != 0 {
		t.Errorf("expected offset 0, got %d", got)
	}
}

func TestBuyerFilter_SearchPattern(t *testing.T) {
	tests := []struct {
		search string
		want   string
	}{
		{search: "", want: ""},
		{search: "   ", want: ""},
		{search: " Asha ", want: "%asha%"},
		{search: "50%_off", want: `%50\%\_off%`},
		{search: `a\b`, want: `%a\\b%`},
	}

	for _, tt := range tests {
		if got := (models.BuyerFilter{Search: tt.search}).SearchPattern(); got != tt.want {
			t.Errorf("SearchPattern(%q) = %q, want %q", tt.search, got, tt.want)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	verr := &models.ValidationError{Fields: []models.FieldError{{Field: "bhk", Message: "is required"}}}
	assertErrorContains(t, verr, "bhk: is required")

	lerr := &models.InputLimitError{Limit: "rows", Max: 200, Actual: 201}
	assertErrorContains(t, lerr, "201 > 200")

	herr := &models.HeaderError{Missing: []string{"phone"}, Unexpected: []string{"mobile"}}
	assertErrorContains(t, herr, "missing phone; unexpected mobile")

	lock := &models.LockoutError{RetryAfter: 89500 * time.Millisecond}
	assertErrorContains(t, lock, "retry in 1m30s")

	if !errors.Is(fmt.Errorf("login: %w", lock), models.ErrTooManyAttempts) {
		t.Error("LockoutError should match ErrTooManyAttempts")
	}
}

func TestUpdateBuyerRequest_MarshalOmitsUnset(t *testing.T) {
	req := models.UpdateBuyerRequest{
		Status: ptr(models.StatusQualified),
		Notes:  models.Null[string](),
		Email:  models.Some("asha@example.com"),
	}

	data, err := json.Marshal(req)
	assertNoError(t, err)

	want := `{"email":"asha@example.com","status":"QUALIFIED","notes":null}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestBuyerFilter_Applied(t *testing.T) {
	if got := (models.BuyerFilter{Search: "  "}).Applied(); len(got) != 0 {
		t.Errorf("empty filter applied = %v", got)
	}

	got := models.BuyerFilter{Search: " rao ", City: models.CityMohali, Status: models.StatusNew}.Applied()
	if len(got) != 3 || got["search"] != "rao" || got["city"] != "MOHALI" || got["status"] != "NEW" {
		t.Errorf("Applied() = %v", got)
	}
}
