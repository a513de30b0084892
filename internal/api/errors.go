package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/httputil"
	"github.com/persistorai/leadintake/internal/metrics"
	"github.com/persistorai/leadintake/internal/models"
)

// defaultRetryAfter is sent when a lockout carries no remaining time.
const defaultRetryAfter = "300"

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest     = "invalid_request"
	ErrCodeNotFound           = "not_found"
	ErrCodeInternalError      = "internal_error"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeForbidden          = "forbidden"
	ErrCodeConflict           = "conflict"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeValidationError    = "validation_error"
	ErrCodeImportRejected     = "import_rejected"
	ErrCodeInputLimit         = "input_limit"
	ErrCodeInvalidHeader      = "invalid_header"
	ErrCodeInvalidCSV         = "invalid_csv"
	ErrCodeEmptyImport        = "empty_import"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

func respondErrorDetails(c *gin.Context, status int, code, message string, details gin.H) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondErrorDetails(c, status, code, message, details)
}

// respondServiceError maps a service error onto its HTTP status and error
// code. Anything outside the known taxonomy is logged with op and reported
// as an opaque internal error.
func respondServiceError(c *gin.Context, log *logrus.Logger, op string, err error) {
	var (
		verr     *models.ValidationError
		rejected *models.ImportRejectedError
		limit    *models.InputLimitError
		header   *models.HeaderError
		tooBig   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verr):
		respondErrorDetails(c, http.StatusUnprocessableEntity, ErrCodeValidationError, "validation failed",
			gin.H{"fields": verr.Fields})
	case errors.As(err, &rejected):
		respondErrorDetails(c, http.StatusUnprocessableEntity, ErrCodeImportRejected, rejected.Error(), gin.H{
			"rows":          rejected.Rows,
			"valid_count":   rejected.Valid,
			"invalid_count": rejected.Invalid,
		})
	case errors.As(err, &limit):
		respondErrorDetails(c, http.StatusRequestEntityTooLarge, ErrCodeInputLimit, limit.Error(),
			gin.H{"limit": limit.Limit, "max": limit.Max})
	case errors.As(err, &tooBig):
		respondError(c, http.StatusRequestEntityTooLarge, ErrCodeInputLimit, "request body too large")
	case errors.As(err, &header):
		respondErrorDetails(c, http.StatusBadRequest, ErrCodeInvalidHeader, header.Error(), gin.H{
			"missing":    header.Missing,
			"unexpected": header.Unexpected,
			"duplicate":  header.Duplicate,
		})
	case errors.Is(err, models.ErrMalformedCSV):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidCSV, err.Error())
	case errors.Is(err, models.ErrEmptyImport):
		respondError(c, http.StatusBadRequest, ErrCodeEmptyImport, err.Error())
	case errors.Is(err, models.ErrInvalidArgument):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, models.ErrBuyerNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "buyer not found")
	case errors.Is(err, models.ErrNotOwner):
		respondError(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, models.ErrVersionConflict):
		respondError(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, models.ErrTooManyAttempts):
		c.Header("Retry-After", retryAfter(err))
		respondError(c, http.StatusTooManyRequests, ErrCodeRateLimited, err.Error())
	case errors.Is(err, models.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthenticated")
	default:
		log.WithError(err).Error(op)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

// retryAfter renders a lockout's remaining time in whole seconds, rounded up.
func retryAfter(err error) string {
	var lockout *models.LockoutError
	if !errors.As(err, &lockout) || lockout.RetryAfter <= 0 {
		return defaultRetryAfter
	}

	return strconv.Itoa(int(math.Ceil(lockout.RetryAfter.Seconds())))
}
