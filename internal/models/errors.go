package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for record lookups and write checks.
var (
	ErrBuyerNotFound   = errors.New("buyer not found")
	ErrNotOwner        = errors.New("only the owner may modify this buyer")
	ErrVersionConflict = errors.New("buyer was modified since it was last read")
)

// ErrInvalidArgument rejects a request parameter outside its allowed range.
var ErrInvalidArgument = errors.New("invalid argument")

// Sentinel errors for authentication.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

// LockoutError reports a sign-in refused while the login key is locked out.
// It matches ErrTooManyAttempts.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s, retry in %s", ErrTooManyAttempts, e.RetryAfter.Round(time.Second))
}

func (e *LockoutError) Is(target error) bool { return target == ErrTooManyAttempts }

// Sentinel errors for import payloads that cannot be read as rows.
var (
	ErrEmptyImport  = errors.New("import contains no data rows")
	ErrMalformedCSV = errors.New("malformed CSV")
)

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects a single record. Fields holds every failure found.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// RowError collects the validation failures of one import row (1-based, header excluded).
type RowError struct {
	Row    int          `json:"row"`
	Fields []FieldError `json:"errors"`
}

// ImportRejectedError reports every invalid row of a rejected import. Nothing was persisted.
type ImportRejectedError struct {
	Rows    []RowError `json:"rows"`
	Valid   int        `json:"valid"`
	Invalid int        `json:"invalid"`
}

// Error implements the error interface.
func (e *ImportRejectedError) Error() string {
	return fmt.Sprintf("import rejected: %d invalid row(s), %d valid", e.Invalid, e.Valid)
}

// InputLimitError rejects an import payload before any row is validated.
type InputLimitError struct {
	Limit  string `json:"limit"`
	Max    int64  `json:"max"`
	Actual int64  `json:"actual"`
}

// Error implements the error interface.
func (e *InputLimitError) Error() string {
	if e.Actual > 0 {
		return fmt.Sprintf("import exceeds %s limit: %d > %d", e.Limit, e.Actual, e.Max)
	}

	return fmt.Sprintf("import exceeds %s limit of %d", e.Limit, e.Max)
}

// HeaderError rejects an import whose header row does not match the expected columns.
type HeaderError struct {
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
	Duplicate  []string `json:"duplicate,omitempty"`
}

// Error implements the error interface.
func (e *HeaderError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}

	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Unexpected, ", "))
	}

	if len(e.Duplicate) > 0 {
		parts = append(parts, "duplicate "+strings.Join(e.Duplicate, ", "))
	}

	return "invalid header: " + strings.Join(parts, "; ")
}
