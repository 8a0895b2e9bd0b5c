package diagnostic

import (
	"fmt"
	"strings"

	"flat-mapper/internal/common"
)

// Codes identify the kind of diagnostic.
const (
	CodeUnresolved      = "unresolved"
	CodeAmbiguous       = "ambiguous"
	CodeNoDecoder       = "no-decoder"
	CodeRecursive       = "recursive"
	CodeMissingArgument = "missing-argument"
	CodeDuplicateIndex  = "duplicate-index"
	CodeDirectValue     = "direct-value"
	CodeIgnored         = "ignored"
	CodeCollectionOwner = "collection-owner"
	CodeConfig          = "config"
)

// Diagnostics holds all diagnostic information from a plan build.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Shape is the target type the diagnostic relates to (if any).
	Shape string
	// Column identifies the column it relates to (if any).
	Column string
	// Err is the typed error behind an error diagnostic.
	Err error
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError records err as an error diagnostic.
func (d *Diagnostics) AddError(code string, err error, shape, column string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: DiagnosticError,
		Code:     code,
		Message:  err.Error(),
		Shape:    shape,
		Column:   column,
		Err:      err,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, shape, column string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: DiagnosticWarning,
		Code:     code,
		Message:  message,
		Shape:    shape,
		Column:   column,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, shape, column string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: DiagnosticInfo,
		Code:     code,
		Message:  message,
		Shape:    shape,
		Column:   column,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// First returns the typed error of the first error diagnostic, or nil.
func (d *Diagnostics) First() error {
	if !d.HasErrors() {
		return nil
	}

	return d.Errors[0].Err
}

// Error returns a combined error from all error diagnostics, or nil if valid.
// The combined error wraps every typed error, so errors.As finds any of them.
func (d *Diagnostics) Error() error {
	if !d.HasErrors() {
		return nil
	}

	if common.IsSingle(d.Errors) {
		return d.Errors[0].Err
	}

	errs := make([]error, 0, len(d.Errors))
	for _, e := range d.Errors {
		errs = append(errs, e.Err)
	}

	return &joined{msg: d.joinedMessage(), errs: errs}
}

func (d *Diagnostics) joinedMessage() string {
	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return strings.Join(parts, "; ")
}

type joined struct {
	msg  string
	errs []error
}

func (j *joined) Error() string   { return j.msg }
func (j *joined) Unwrap() []error { return j.errs }

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Shape != "" {
		prefix = append(prefix, "["+d.Shape+"]")
	}

	if d.Column != "" {
		prefix = append(prefix, d.Column)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

// Describe returns every diagnostic, errors first, one per line.
func (d *Diagnostics) Describe() string {
	var lines []string
	for _, group := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, diag := range group {
			lines = append(lines, diag.Severity.String()+": "+diag.String())
		}
	}

	return strings.Join(lines, "\n")
}
