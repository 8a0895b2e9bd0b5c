package csvmap

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"flat-mapper/maperr"
)

// FieldErrorHandler decides what happens to a cell that cannot be decoded.
// Returning a nil error continues the row with the returned value, or the
// zero value when it is nil; the value must be assignable to the property.
// Returning an error aborts the stream.
type FieldErrorHandler interface {
	HandleFieldError(err *maperr.CellParseError) (any, error)
}

// FieldErrorHandlerFunc adapts a function to FieldErrorHandler.
type FieldErrorHandlerFunc func(err *maperr.CellParseError) (any, error)

// HandleFieldError implements FieldErrorHandler.
func (f FieldErrorHandlerFunc) HandleFieldError(err *maperr.CellParseError) (any, error) {
	return f(err)
}

// RethrowFieldErrors aborts on the first cell error. It is the default.
func RethrowFieldErrors() FieldErrorHandler {
	return FieldErrorHandlerFunc(func(err *maperr.CellParseError) (any, error) { return nil, err })
}

// IgnoreFieldErrors leaves undecodable properties at their zero value.
func IgnoreFieldErrors() FieldErrorHandler {
	return SubstituteFieldErrors(nil)
}

// SubstituteFieldErrors uses v for every undecodable cell.
func SubstituteFieldErrors(v any) FieldErrorHandler {
	return FieldErrorHandlerFunc(func(*maperr.CellParseError) (any, error) { return v, nil })
}

// LogFieldErrors logs every cell error at warn level, then defers to next.
func LogFieldErrors(logger log.Logger, next FieldErrorHandler) FieldErrorHandler {
	return FieldErrorHandlerFunc(func(err *maperr.CellParseError) (any, error) {
		level.Warn(logger).Log("msg", "cell decode failed", "column", err.Column, "raw", err.Raw, "err", err.Cause)
		return next.HandleFieldError(err)
	})
}

type countingFieldErrors struct {
	next    FieldErrorHandler
	counter prometheus.Counter
}

func (c countingFieldErrors) HandleFieldError(err *maperr.CellParseError) (any, error) {
	c.counter.Inc()
	return c.next.HandleFieldError(err)
}

// RowErrorHandler decides what happens when the callback fails on an
// object. Returning nil continues the stream.
type RowErrorHandler interface {
	HandleRowError(err *maperr.RowError) error
}

// RowErrorHandlerFunc adapts a function to RowErrorHandler.
type RowErrorHandlerFunc func(err *maperr.RowError) error

// HandleRowError implements RowErrorHandler.
func (f RowErrorHandlerFunc) HandleRowError(err *maperr.RowError) error {
	return f(err)
}

// RethrowRowErrors aborts on the first callback error. It is the default.
func RethrowRowErrors() RowErrorHandler {
	return RowErrorHandlerFunc(func(err *maperr.RowError) error { return err })
}

// IgnoreRowErrors logs callback errors at warn level and continues.
func IgnoreRowErrors(logger log.Logger) RowErrorHandler {
	return RowErrorHandlerFunc(func(err *maperr.RowError) error {
		level.Warn(logger).Log("msg", "row callback failed", "row", err.Row, "err", err.Cause)
		return nil
	})
}
