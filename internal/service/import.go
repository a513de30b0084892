package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/metrics"
	"github.com/persistorai/leadintake/internal/models"
	"github.com/persistorai/leadintake/internal/validation"
)

// Import limits applied when the caller configures none.
const (
	DefaultImportMaxRows  = 200
	DefaultImportMaxBytes = 5 << 20
)

var _ domain.ImportService = (*ImportService)(nil)

// ImportService runs the all-or-nothing CSV import pipeline: parse, validate
// every row, then persist the whole batch or nothing.
type ImportService struct {
	store       domain.BuyerStore
	engine      *validation.Engine
	auditWorker AuditEnqueuer
	log         *logrus.Logger
	maxRows     int
	maxBytes    int64
}

// NewImportService creates an ImportService. Non-positive limits select the defaults.
func NewImportService(
	store domain.BuyerStore,
	engine *validation.Engine,
	auditWorker AuditEnqueuer,
	log *logrus.Logger,
	maxRows int,
	maxBytes int64,
) *ImportService {
	if maxRows <= 0 {
		maxRows = DefaultImportMaxRows
	}

	if maxBytes <= 0 {
		maxBytes = DefaultImportMaxBytes
	}

	return &ImportService{
		store:       store,
		engine:      engine,
		auditWorker: auditWorker,
		log:         log,
		maxRows:     maxRows,
		maxBytes:    maxBytes,
	}
}

// ImportBuyers reads a CSV payload owned by actor. Size and row-count limits
// are enforced before any row is validated. If any row is invalid the whole
// batch is rejected with an *models.ImportRejectedError listing every
// invalid row. With dryRun the valid batch is reported but not persisted.
func (s *ImportService) ImportBuyers(
	ctx context.Context, actor models.Identity, r io.Reader, dryRun bool,
) (*models.ImportResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading import payload: %w", err)
	}

	if int64(len(data)) > s.maxBytes {
		return nil, &models.InputLimitError{Limit: "bytes", Max: s.maxBytes}
	}

	rows, err := parseImport(data)
	if err != nil {
		return nil, err
	}

	if len(rows) > s.maxRows {
		return nil, &models.InputLimitError{Limit: "rows", Max: int64(s.maxRows), Actual: int64(len(rows))}
	}

	buyers := make([]*models.Buyer, 0, len(rows))

	var rowErrs []models.RowError

	for _, row := range rows {
		if row.err != nil {
			rowErrs = append(rowErrs, models.RowError{Row: row.num, Fields: []models.FieldError{*row.err}})

			continue
		}

		b, errs := s.engine.Row(row.cells)
		if len(errs) > 0 {
			rowErrs = append(rowErrs, models.RowError{Row: row.num, Fields: errs})

			continue
		}

		b.OwnerID = actor.UserID
		buyers = append(buyers, b)
	}

	if len(rowErrs) > 0 {
		metrics.ImportRowsTotal.WithLabelValues("invalid").Add(float64(len(rowErrs)))

		return nil, &models.ImportRejectedError{
			Rows:    rowErrs,
			Valid:   len(buyers),
			Invalid: len(rowErrs),
		}
	}

	result := &models.ImportResult{
		Total:  len(rows),
		Valid:  len(buyers),
		DryRun: dryRun,
	}

	if dryRun {
		return result, nil
	}

	created, err := s.store.ImportBuyers(ctx, buyers)
	if err != nil {
		return nil, err
	}

	result.Imported = len(created)
	result.IDs = make([]string, 0, len(created))

	for _, b := range created {
		result.IDs = append(result.IDs, b.ID)
	}

	metrics.ImportRowsTotal.WithLabelValues("imported").Add(float64(len(created)))
	metrics.BuyerMutationsTotal.WithLabelValues(string(models.ActionImported)).Add(float64(len(created)))
	enqueueAudit(s.auditWorker, models.AuditRecord{
		Action:     models.AuditBuyerImport,
		EntityType: models.AuditEntityBuyer,
		Actor:      actor.UserID,
		Detail:     map[string]any{"rows": len(created)},
	})

	s.log.WithFields(logrus.Fields{"actor": actor.UserID, "rows": len(created)}).Info(models.AuditBuyerImport)

	return result, nil
}

// importRow is one parsed data row, or the structural error that prevents
// validating it. num is the 1-based data row number in the source file.
type importRow struct {
	num   int
	cells map[string]string
	err   *models.FieldError
}

// parseImport decodes the CSV payload, checks the header and maps each data
// row to its cells. Rows whose cells are all blank are skipped but still
// advance the row number, so reported rows match the file.
func parseImport(data []byte) ([]importRow, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", models.ErrMalformedCSV)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &models.HeaderError{Missing: validation.ImportColumns}
		}

		return nil, fmt.Errorf("%w: %v", models.ErrMalformedCSV, err)
	}

	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var (
		rows []importRow
		num  int
	)

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedCSV, err)
		}

		num++

		if isEmptyRow(record) {
			continue
		}

		row := mapRow(header, record)
		row.num = num
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, models.ErrEmptyImport
	}

	return rows, nil
}

func mapRow(header, record []string) importRow {
	if len(record) > len(header) {
		for _, extra := range record[len(header):] {
			if strings.TrimSpace(extra) != "" {
				return importRow{err: &models.FieldError{
					Field:   "row",
					Message: fmt.Sprintf("has %d cells, header has %d", len(record), len(header)),
				}}
			}
		}
	}

	cells := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(record) {
			cells[name] = record[i]
		}
	}

	return importRow{cells: cells}
}

// checkHeader requires exactly the import columns, in any order.
func checkHeader(header []string) error {
	want := make(map[string]bool, len(validation.ImportColumns))
	for _, c := range validation.ImportColumns {
		want[c] = true
	}

	var herr models.HeaderError

	seen := make(map[string]bool, len(header))

	for _, h := range header {
		switch {
		case seen[h]:
			herr.Duplicate = append(herr.Duplicate, h)
		case !want[h]:
			herr.Unexpected = append(herr.Unexpected, h)
		}

		seen[h] = true
	}

	for _, c := range validation.ImportColumns {
		if !seen[c] {
			herr.Missing = append(herr.Missing, c)
		}
	}

	if len(herr.Missing) > 0 || len(herr.Unexpected) > 0 || len(herr.Duplicate) > 0 {
		return &herr
	}

	return nil
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}

	return true
}

// ImportTemplate writes the header row plus one example row.
func ImportTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(validation.ImportColumns); err != nil {
		return err
	}

	example := []string{
		"Asha Rao", "asha@example.com", "9876543210", "MOHALI", "APARTMENT", "TWO", "BUY",
		"5000000", "7500000", "ZERO_TO_THREE_MONTHS", "WEBSITE", "prefers east facing", "hot,nri",
	}

	if err := cw.Write(example); err != nil {
		return err
	}

	cw.Flush()

	return cw.Error()
}
