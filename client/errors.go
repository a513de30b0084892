package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/persistorai/leadintake/internal/models"
)

// APIError is a non-2xx reply decoded from the server's error envelope. The
// detail fields are filled only for the codes that carry them.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`

	// RetryAfter is the server's Retry-After on 429 replies.
	RetryAfter time.Duration `json:"-"`

	// validation_error
	Fields []models.FieldError `json:"fields,omitempty"`

	// import_rejected
	Rows         []models.RowError `json:"rows,omitempty"`
	ValidCount   int               `json:"valid_count,omitempty"`
	InvalidCount int               `json:"invalid_count,omitempty"`

	// invalid_header
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
	Duplicate  []string `json:"duplicate,omitempty"`

	// input_limit
	Limit string `json:"limit,omitempty"`
	Max   int64  `json:"max,omitempty"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("leadintake: %d %s: %s", e.StatusCode, e.Code, e.Message)
	if e.RequestID != "" {
		msg += " (request_id=" + e.RequestID + ")"
	}

	return msg
}

func hasStatus(err error, status int) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == status
}

// IsNotFound returns true if the error is a 404 not found.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsConflict returns true if the error is a 409: the buyer changed since it was read.
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

// IsForbidden returns true if the error is a 403: the caller does not own the buyer.
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

// IsUnauthorized returns true if the error is a 401.
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool { return hasStatus(err, http.StatusTooManyRequests) }

// IsValidation returns true if the error is a 422 with field or row errors.
func IsValidation(err error) bool { return hasStatus(err, http.StatusUnprocessableEntity) }

// parseAPIError decodes the error envelope. A body that is not one, such as
// a proxy's plain-text page, becomes code "unknown" with the text as message.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, e); err != nil || e.Code == "" {
		*e = APIError{StatusCode: status, Code: "unknown", Message: strings.TrimSpace(string(body))}
	}

	return e
}
