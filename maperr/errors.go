// Package maperr declares the errors reported while building a mapping plan
// and while decoding rows with it. All concrete errors are pointers and work
// with errors.As.
package maperr

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"flat-mapper/column"
)

var (
	// ErrEmptyCell is the cause of a CellParseError raised for a zero-length
	// cell mapped to a non-nullable primitive.
	ErrEmptyCell = errors.New("empty cell for non-nullable value")
	// ErrSyntax is the cause of a CellParseError raised for malformed text.
	ErrSyntax = errors.New("invalid syntax")
	// ErrPlanClosed is returned when a mapping session is used after end of stream.
	ErrPlanClosed = errors.New("mapping session already flushed")
)

// UnresolvedPropertyError reports a column name no property of the shape matches.
type UnresolvedPropertyError struct {
	Shape       reflect.Type
	Column      column.Key
	Name        string
	Suggestions []string
}

func (e *UnresolvedPropertyError) Error() string {
	msg := fmt.Sprintf("no property %q on %s", e.Name, typeName(e.Shape))
	if e.Column.Name != "" {
		msg = fmt.Sprintf("column %s: %s", e.Column, msg)
	}

	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}

	return msg
}

// AmbiguousPropertyError reports a name matched by more than one conflicting property path.
type AmbiguousPropertyError struct {
	Shape      reflect.Type
	Column     column.Key
	Name       string
	Candidates []string
}

func (e *AmbiguousPropertyError) Error() string {
	msg := fmt.Sprintf("property %q on %s is ambiguous between %s",
		e.Name, typeName(e.Shape), strings.Join(e.Candidates, " and "))
	if e.Column.Name != "" {
		msg = fmt.Sprintf("column %s: %s", e.Column, msg)
	}

	return msg
}

// MissingInjectionPointError reports constructor parameters no column feeds.
type MissingInjectionPointError struct {
	Shape      reflect.Type
	Parameters []string
}

func (e *MissingInjectionPointError) Error() string {
	return fmt.Sprintf("constructor of %s has no column for parameter(s) %s",
		typeName(e.Shape), strings.Join(e.Parameters, ", "))
}

// UnsupportedRecursiveShapeError reports a property path re-entering a shape already on the path.
type UnsupportedRecursiveShapeError struct {
	Shape reflect.Type
	Path  string
}

func (e *UnsupportedRecursiveShapeError) Error() string {
	return fmt.Sprintf("recursive shape %s reached through %q is not supported", typeName(e.Shape), e.Path)
}

// NoDecoderError reports a property type no decoder is known for.
type NoDecoderError struct {
	Type   reflect.Type
	Column column.Key
}

func (e *NoDecoderError) Error() string {
	return fmt.Sprintf("column %s: no decoder for %s", e.Column, typeName(e.Type))
}

// CellParseError reports a cell that could not be decoded.
type CellParseError struct {
	Column column.Key
	Raw    string
	Cause  error
}

func (e *CellParseError) Error() string {
	return fmt.Sprintf("column %s: cannot decode %s: %v", e.Column, strconv.Quote(e.Raw), e.Cause)
}

func (e *CellParseError) Unwrap() error {
	return e.Cause
}

// RowError wraps an error raised while handling a completed object.
type RowError struct {
	Row   int
	Cause error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Cause)
}

func (e *RowError) Unwrap() error {
	return e.Cause
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}
