package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/metrics"
	"github.com/persistorai/leadintake/internal/models"
	"github.com/persistorai/leadintake/internal/validation"
)

// ExportTimeFormat renders export timestamps: RFC 3339 in UTC with milliseconds.
const ExportTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ExportColumns is the export header: the import columns followed by the
// record's status, owner and timestamps.
var ExportColumns = append(append([]string{}, validation.ImportColumns...),
	"status", "owner", "createdAt", "updatedAt")

var _ domain.ExportService = (*ExportService)(nil)

// ExportService streams filtered buyers as CSV.
type ExportService struct {
	store       domain.BuyerStore
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewExportService creates an ExportService.
func NewExportService(store domain.BuyerStore, auditWorker AuditEnqueuer, log *logrus.Logger) *ExportService {
	return &ExportService{store: store, auditWorker: auditWorker, log: log}
}

// ExportBuyers writes the header and one row per matching buyer, most
// recently updated first. Rows are written as the store yields them, so
// memory use does not grow with the export. It returns the number of data rows.
func (s *ExportService) ExportBuyers(
	ctx context.Context, actor models.Identity, filter models.BuyerFilter, w io.Writer,
) (int, error) {
	cw := csv.NewWriter(w)

	if err := cw.Write(ExportColumns); err != nil {
		return 0, fmt.Errorf("writing export header: %w", err)
	}

	n := 0

	err := s.store.ExportBuyers(ctx, filter, func(rec models.ExportRecord) error {
		if err := cw.Write(ProjectRow(rec)); err != nil {
			return fmt.Errorf("writing export row: %w", err)
		}

		n++

		return nil
	})
	if err != nil {
		return n, err
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flushing export: %w", err)
	}

	metrics.ExportRowsTotal.Add(float64(n))
	enqueueAudit(s.auditWorker, models.AuditRecord{
		Action:     models.AuditBuyerExport,
		EntityType: models.AuditEntityBuyer,
		Actor:      actor.UserID,
		Detail:     map[string]any{"rows": n, "filter": filter.Applied()},
	})

	return n, nil
}

// ProjectRow flattens a buyer and its owner into ExportColumns order. Absent
// optional values render as empty cells.
func ProjectRow(rec models.ExportRecord) []string {
	b := rec.Buyer

	bhk := ""
	if b.BHK != nil {
		bhk = string(*b.BHK)
	}

	return []string{
		b.FullName,
		deref(b.Email),
		b.Phone,
		string(b.City),
		string(b.PropertyType),
		bhk,
		string(b.Purpose),
		formatInt(b.BudgetMin),
		formatInt(b.BudgetMax),
		string(b.Timeline),
		string(b.Source),
		deref(b.Notes),
		strings.Join(b.Tags, ","),
		string(b.Status),
		rec.Owner.DisplayName(),
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatInt(*v, 10)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(ExportTimeFormat)
}
