// Package diagnostic collects the errors, warnings and notes produced while
// a mapping plan is built, so that every problem of a column set can be
// reported at once while the first typed error is still returned to callers.
//
// Key capabilities:
//   - Unresolved and ambiguous column reports, with suggestions
//   - Duplicate column index overrides
//   - Ignored and unmapped columns
package diagnostic
