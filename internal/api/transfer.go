package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/models"
	"github.com/persistorai/leadintake/internal/service"
)

// TransferHandler serves CSV import and export.
type TransferHandler struct {
	imports ImportService
	exports ExportService
	filters FilterValidator
	log     *logrus.Logger
}

// NewTransferHandler creates a TransferHandler.
func NewTransferHandler(imports ImportService, exports ExportService, filters FilterValidator, log *logrus.Logger) *TransferHandler {
	return &TransferHandler{imports: imports, exports: exports, filters: filters, log: log}
}

// Import handles POST /api/v1/buyers/import. The CSV is read from the
// multipart field "file", or from the raw request body for any other
// content type. ?dry_run=true validates without saving.
func (h *TransferHandler) Import(c *gin.Context) {
	actor, ok := getIdentity(c)
	if !ok {
		return
	}

	dryRun, err := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "dry_run must be a boolean")

		return
	}

	var src io.Reader = c.Request.Body

	if c.ContentType() == "multipart/form-data" {
		fh, err := c.FormFile("file")
		if err != nil {
			respondServiceErrorOr(c, h.log, err, http.StatusBadRequest, "multipart field \"file\" is required")
			return
		}

		f, err := fh.Open()
		if err != nil {
			respondServiceError(c, h.log, "opening uploaded file", err)
			return
		}
		defer f.Close()

		src = f
	}

	result, err := h.imports.ImportBuyers(c.Request.Context(), actor, src, dryRun)
	if err != nil {
		respondServiceError(c, h.log, "importing buyers", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   models.AuditBuyerImport,
		"user_id":  actor.UserID,
		"rows":     result.Total,
		"imported": result.Imported,
		"dry_run":  dryRun,
	}).Info("audit")

	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}

	c.JSON(status, result)
}

// Template handles GET /api/v1/buyers/import/template.
func (h *TransferHandler) Template(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="buyers-template.csv"`)
	c.Status(http.StatusOK)

	if err := service.ImportTemplate(c.Writer); err != nil {
		h.log.WithError(err).Error("writing import template")
	}
}

// Export handles GET /api/v1/buyers/export. Rows stream straight to the
// response; an error after the first bytes were sent can only be logged.
func (h *TransferHandler) Export(c *gin.Context) {
	actor, ok := getIdentity(c)
	if !ok {
		return
	}

	filter := filterQuery(c)
	if err := h.filters.Filter(filter); err != nil {
		respondServiceError(c, h.log, "exporting buyers", err)
		return
	}

	name := fmt.Sprintf("buyers-%s.csv", time.Now().UTC().Format("20060102-150405"))

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)

	n, err := h.exports.ExportBuyers(c.Request.Context(), actor, filter, c.Writer)
	if err != nil {
		if !c.Writer.Written() {
			c.Header("Content-Type", "")
			c.Header("Content-Disposition", "")
			respondServiceError(c, h.log, "exporting buyers", err)

			return
		}

		h.log.WithError(err).WithField("rows", n).Error("export aborted mid-stream")

		return
	}

	h.log.WithFields(logrus.Fields{"action": models.AuditBuyerExport, "user_id": actor.UserID, "rows": n}).Info("audit")
}

// respondServiceErrorOr maps known service errors and falls back to status
// with message for everything else.
func respondServiceErrorOr(c *gin.Context, log *logrus.Logger, err error, status int, message string) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		respondServiceError(c, log, "reading upload", err)
		return
	}

	respondError(c, status, ErrCodeInvalidRequest, message)
}
