package ingest

// errors.go defines the pipeline's error taxonomy. Each error type maps
// to one stage of the upload state machine:
//
//	StructuralError:  required columns absent; fatal before any row parsing
//	ParseError:       a cell failed type conversion; fatal for the batch
//	Outcome:          business-rule violations; fatal to persistence
//	PersistenceError: database constraint violation; transaction rolled back

import (
	"fmt"
	"strings"
)

// StructuralError reports required column headers missing from the
// uploaded file. Detected before any row parsing; the whole batch is
// rejected with the list of missing names.
type StructuralError struct {
	Kind    Kind
	Missing []string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ParseError reports a cell that could not be converted to its declared
// type. Row is the 1-based spreadsheet row number (header row = 1, so
// the first data row is 2).
type ParseError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s (value %q)", e.Row, e.Column, e.Reason, e.Value)
}

// RowError is a single business-rule violation tied to a spreadsheet
// row. Row may be 0 for batch-level consistency violations that have no
// single originating row.
type RowError struct {
	Row     int    `json:"row,omitempty"`
	Column  string `json:"column,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	if e.Row > 0 && e.Column != "" {
		return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Message)
	}
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return e.Message
}

// Outcome is the result of validating a parsed batch. At most one of
// the three error categories is populated: categories are checked in
// priority order (missing columns, invalid rows, duplicates/consistency)
// and the first failing category wins. A report never mixes categories.
type Outcome struct {
	Valid          bool       `json:"valid"`
	MissingColumns []string   `json:"missing_columns,omitempty"`
	InvalidRows    []RowError `json:"invalid_rows,omitempty"`
	Duplicates     []RowError `json:"duplicates,omitempty"`
}

// Messages flattens the active error category into human-readable
// strings for the HTTP response body.
func (o *Outcome) Messages() []string {
	var msgs []string
	for _, c := range o.MissingColumns {
		msgs = append(msgs, fmt.Sprintf("missing required column: %s", c))
	}
	for _, e := range o.InvalidRows {
		msgs = append(msgs, e.String())
	}
	for _, e := range o.Duplicates {
		msgs = append(msgs, e.String())
	}
	return msgs
}

// PersistenceError wraps a database failure during the persist stage.
// The transaction guarantees zero rows were inserted. Duplicate reports
// a natural-key clash with already-stored data, which is the expected
// failure mode; anything else is surfaced for diagnostics only.
type PersistenceError struct {
	Duplicate bool
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("duplicate key conflicts with existing data: %v", e.Err)
	}
	return fmt.Sprintf("persist batch: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
