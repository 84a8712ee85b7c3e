package data

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyValue = errors.New("empty value")
	ErrNotFinite  = errors.New("value is not a finite number")
)

// DecodeError reports a field of the dispatch log that could not be decoded.
// Any DecodeError aborts the whole run.
type DecodeError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: column %s: cannot decode %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MissingColumnError is returned before any row is read when the header lacks required columns.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}
