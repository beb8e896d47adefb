package csvcodec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoDataRows is returned when a file has no rows after the header.
	ErrNoDataRows = errors.New("csv must contain a header row and at least one data row")
	// ErrMissingColumns is returned when required headers are absent.
	ErrMissingColumns = errors.New("missing required columns")
)

// ParseError reports a problem with one row. The header is row 1.
type ParseError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// MissingColumnsError names the required headers that were not found.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns.Error(), strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}
