package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/leadintake/internal/models"
	"github.com/persistorai/leadintake/internal/validation"
)

const importHeader = "fullName,email,phone,city,propertyType,bhk,purpose,budgetMin,budgetMax,timeline,source,notes,tags"

func csvLine(name, phone string) string {
	return fmt.Sprintf("%s,,%s,MOHALI,PLOT,,BUY,100000,200000,EXPLORING,CALL,,\"hot,nri\"", name, phone)
}

// importPayload builds a CSV with n valid rows; overrides replace a row's phone (1-based).
func importPayload(n int, phones map[int]string) string {
	var sb strings.Builder

	sb.WriteString(importHeader + "\n")

	for i := 1; i <= n; i++ {
		phone := "98765432" + fmt.Sprintf("%02d", i%100)
		if p, ok := phones[i]; ok {
			phone = p
		}

		sb.WriteString(csvLine(fmt.Sprintf("Lead %03d", i), phone) + "\n")
	}

	return sb.String()
}

type importFixture struct {
	fixture *buyerFixture
	svc     *ImportService
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()

	f := newBuyerFixture(t)

	return &importFixture{
		fixture: f,
		svc:     NewImportService(f.store, validation.New(), f.audit, quietLogger(), 0, 0),
	}
}

func (f *importFixture) count(t *testing.T) int {
	t.Helper()

	page, err := f.fixture.store.ListBuyers(context.Background(), models.BuyerFilter{}, models.PageRequest{})
	require.NoError(t, err)

	return page.Total
}

func TestImportBuyers_AllValidCommits(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	res, err := f.svc.ImportBuyers(ctx, f.fixture.owner, strings.NewReader(importPayload(10, nil)), false)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Total)
	assert.Equal(t, 10, res.Imported)
	assert.Len(t, res.IDs, 10)
	assert.Equal(t, 10, f.count(t))

	detail, err := f.fixture.svc.GetBuyer(ctx, res.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, f.fixture.owner.UserID, detail.Buyer.OwnerID)
	assert.Equal(t, []string{"hot", "nri"}, detail.Buyer.Tags)
	require.Len(t, detail.History, 1)
	assert.Equal(t, models.ActionImported, detail.History[0].Diff.Action)

	assert.Contains(t, f.fixture.audit.actions(), "buyer.import")
}

func TestImportBuyers_OneInvalidRowRejectsBatch(t *testing.T) {
	f := newImportFixture(t)

	_, err := f.svc.ImportBuyers(context.Background(), f.fixture.owner,
		strings.NewReader(importPayload(10, map[int]string{7: "123"})), false)

	var rejected *models.ImportRejectedError
	require.ErrorAs(t, err, &rejected)

	require.Len(t, rejected.Rows, 1)
	assert.Equal(t, 7, rejected.Rows[0].Row)
	assert.Equal(t, "phone", rejected.Rows[0].Fields[0].Field)
	assert.Equal(t, 9, rejected.Valid)
	assert.Equal(t, 1, rejected.Invalid)

	assert.Equal(t, 0, f.count(t))
	assert.NotContains(t, f.fixture.audit.actions(), "buyer.import")
}

func TestImportBuyers_ReportsEveryInvalidRow(t *testing.T) {
	f := newImportFixture(t)

	payload := importHeader + "\n" +
		csvLine("Lead One", "9876543210") + "\n" +
		"X,,12,NOWHERE,APARTMENT,,BUY,,,EXPLORING,CALL,,\n" +
		csvLine("Lead Three", "9876543212") + "\n" +
		"Lead Four,,9876543213,MOHALI,PLOT,,BUY,900,100,EXPLORING,CALL,,\n"

	_, err := f.svc.ImportBuyers(context.Background(), f.fixture.owner, strings.NewReader(payload), false)

	var rejected *models.ImportRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Len(t, rejected.Rows, 2)

	assert.Equal(t, 2, rejected.Rows[0].Row)
	assert.GreaterOrEqual(t, len(rejected.Rows[0].Fields), 4)
	assert.Equal(t, 4, rejected.Rows[1].Row)
	assert.Equal(t, "budgetMax", rejected.Rows[1].Fields[0].Field)
	assert.Equal(t, 0, f.count(t))
}

func TestImportBuyers_RowCap(t *testing.T) {
	store := &mockBuyerStore{}
	svc := NewImportService(store, validation.New(), nil, quietLogger(), 0, 0)

	_, err := svc.ImportBuyers(context.Background(), models.Identity{UserID: "u1"},
		strings.NewReader(importPayload(201, map[int]string{3: "bad"})), false)

	var limit *models.InputLimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, "rows", limit.Limit)
	assert.EqualValues(t, 200, limit.Max)
	assert.EqualValues(t, 201, limit.Actual)
	assert.Empty(t, store.getCalls())

	res, err := svc.ImportBuyers(context.Background(), models.Identity{UserID: "u1"},
		strings.NewReader(importPayload(200, nil)), true)
	require.NoError(t, err)
	assert.Equal(t, 200, res.Valid)
}

func TestImportBuyers_ByteCap(t *testing.T) {
	store := &mockBuyerStore{}
	svc := NewImportService(store, validation.New(), nil, quietLogger(), 0, 256)

	_, err := svc.ImportBuyers(context.Background(), models.Identity{UserID: "u1"},
		strings.NewReader(importPayload(10, nil)), false)

	var limit *models.InputLimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, "bytes", limit.Limit)
	assert.EqualValues(t, 256, limit.Max)
	assert.Empty(t, store.getCalls())
}

func TestImportBuyers_DryRunPersistsNothing(t *testing.T) {
	f := newImportFixture(t)

	res, err := f.svc.ImportBuyers(context.Background(), f.fixture.owner,
		strings.NewReader(importPayload(5, nil)), true)
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 5, res.Valid)
	assert.Zero(t, res.Imported)
	assert.Empty(t, res.IDs)
	assert.Equal(t, 0, f.count(t))
}

func TestImportBuyers_HeaderErrors(t *testing.T) {
	store := &mockBuyerStore{}
	svc := NewImportService(store, validation.New(), nil, quietLogger(), 0, 0)

	tests := []struct {
		name       string
		header     string
		missing    []string
		unexpected []string
		duplicate  []string
	}{
		{
			name:    "missing column",
			header:  strings.Replace(importHeader, ",notes", "", 1),
			missing: []string{"notes"},
		},
		{
			name:       "unexpected column",
			header:     importHeader + ",priority",
			unexpected: []string{"priority"},
		},
		{
			name:      "duplicate column",
			header:    importHeader + ",phone",
			duplicate: []string{"phone"},
		},
		{
			name:       "wrong case",
			header:     strings.Replace(importHeader, "fullName", "FullName", 1),
			missing:    []string{"fullName"},
			unexpected: []string{"FullName"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := tt.header + "\n" + csvLine("Lead One", "9876543210") + "\n"

			_, err := svc.ImportBuyers(context.Background(), models.Identity{UserID: "u1"}, strings.NewReader(payload), false)

			var herr *models.HeaderError
			require.ErrorAs(t, err, &herr)
			assert.Equal(t, tt.missing, herr.Missing)
			assert.Equal(t, tt.unexpected, herr.Unexpected)
			assert.Equal(t, tt.duplicate, herr.Duplicate)
		})
	}

	assert.Empty(t, store.getCalls())
}

func TestImportBuyers_ReorderedHeaderAndBOM(t *testing.T) {
	f := newImportFixture(t)

	payload := "\ufefftags,notes,source,timeline,budgetMax,budgetMin,purpose,bhk,propertyType,city,phone,email,fullName\n" +
		"vip,,WALK_IN,EXPLORING,,,RENT,ONE,APARTMENT,ZIRAKPUR,9876500000,meera@example.com,Meera Shah\n"

	res, err := f.svc.ImportBuyers(context.Background(), f.fixture.owner, strings.NewReader(payload), false)
	require.NoError(t, err)
	require.Len(t, res.IDs, 1)

	detail, err := f.fixture.svc.GetBuyer(context.Background(), res.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, "Meera Shah", detail.Buyer.FullName)
	assert.Equal(t, models.CityZirakpur, detail.Buyer.City)
	require.NotNil(t, detail.Buyer.BHK)
	assert.Equal(t, models.BHKOne, *detail.Buyer.BHK)
}

func TestImportBuyers_StructuralProblems(t *testing.T) {
	store := &mockBuyerStore{}
	svc := NewImportService(store, validation.New(), nil, quietLogger(), 0, 0)
	actor := models.Identity{UserID: "u1"}
	ctx := context.Background()

	t.Run("empty payload", func(t *testing.T) {
		_, err := svc.ImportBuyers(ctx, actor, strings.NewReader(""), false)

		var herr *models.HeaderError
		require.ErrorAs(t, err, &herr)
		assert.Len(t, herr.Missing, len(validation.ImportColumns))
	})

	t.Run("header only", func(t *testing.T) {
		_, err := svc.ImportBuyers(ctx, actor, strings.NewReader(importHeader+"\n,,,,,,,,,,,,\n"), false)
		assert.ErrorIs(t, err, models.ErrEmptyImport)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := svc.ImportBuyers(ctx, actor, bytes.NewReader([]byte{0xff, 0xfe, 0x00}), false)
		assert.ErrorIs(t, err, models.ErrMalformedCSV)
	})

	t.Run("extra cells", func(t *testing.T) {
		payload := importHeader + "\n" + csvLine("Lead One", "9876543210") + ",surplus\n"

		_, err := svc.ImportBuyers(ctx, actor, strings.NewReader(payload), false)

		var rejected *models.ImportRejectedError
		require.ErrorAs(t, err, &rejected)
		require.Len(t, rejected.Rows, 1)
		assert.Equal(t, "row", rejected.Rows[0].Fields[0].Field)
	})

	t.Run("blank rows keep file numbering", func(t *testing.T) {
		payload := importHeader + "\n\n" + csvLine("Lead One", "9876543210") + "\n,,,,,,,,,,,,\n" +
			csvLine("Lead Two", "12") + "\n"

		_, err := svc.ImportBuyers(ctx, actor, strings.NewReader(payload), false)

		var rejected *models.ImportRejectedError
		require.ErrorAs(t, err, &rejected)
		require.Len(t, rejected.Rows, 1)
		assert.Equal(t, 3, rejected.Rows[0].Row)
		assert.Equal(t, 1, rejected.Valid)
	})

	assert.Empty(t, store.getCalls())
}

func TestImportTemplate_ParsesAsValidImport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ImportTemplate(&buf))

	assert.True(t, strings.HasPrefix(buf.String(), importHeader+"\n"))

	svc := NewImportService(&mockBuyerStore{}, validation.New(), nil, quietLogger(), 0, 0)

	res, err := svc.ImportBuyers(context.Background(), models.Identity{UserID: "u1"}, &buf, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Valid)
}
