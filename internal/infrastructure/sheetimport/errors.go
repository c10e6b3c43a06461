package sheetimport

import (
	"errors"
	"fmt"
)

// Import error codes
const (
	ErrCodeRequiredField = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidType   = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeInvalidLength = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeInvalidRange  = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeInvalidValue  = "ERR_IMPORT_INVALID_VALUE"
	ErrCodeDuplicate     = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeRejected      = "ERR_IMPORT_REJECTED"
)

var (
	ErrEmptyFile         = errors.New("import file is empty")
	ErrInvalidEncoding   = errors.New("import file is not valid UTF-8")
	ErrMissingHeader     = errors.New("import file missing header row")
	ErrNoDataRows        = errors.New("import file contains no data rows")
	ErrTooManyRows       = errors.New("import file exceeds the row limit")
	ErrUnsupportedFormat = errors.New("unsupported file format, use .csv or .xlsx")
)

// RowError is a problem found in one row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection gathers row errors up to a limit
type ErrorCollection struct {
	errors    []RowError
	maxErrors int
	total     int
}

// NewErrorCollection creates a collection keeping at most maxErrors entries
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records an error; entries beyond the limit are only counted
func (c *ErrorCollection) Add(e RowError) {
	c.total++
	if len(c.errors) < c.maxErrors {
		c.errors = append(c.errors, e)
	}
}

// Errors returns the kept errors
func (c *ErrorCollection) Errors() []RowError {
	return c.errors
}

// Total counts every added error
func (c *ErrorCollection) Total() int {
	return c.total
}

// IsTruncated reports whether errors were dropped
func (c *ErrorCollection) IsTruncated() bool {
	return c.total > len(c.errors)
}
