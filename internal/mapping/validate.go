package mapping

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"flat-mapper/internal/diagnostic"
	"flat-mapper/internal/match"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported column config version")
	ErrEmptyColumnName    = errors.New("column entry without a name")
	ErrDuplicateColumn    = errors.New("column configured twice")
	ErrUnknownKeyScope    = errors.New("unknown key scope")
	ErrUnknownStrategy    = errors.New("unknown match strategy")
	ErrBadTimeZone        = errors.New("unknown time zone")
	ErrKeyNotInHeader     = errors.New("key column missing from header")
)

// Validate checks a parsed file. Problems are reported as diagnostics with
// the config code; warnings flag settings that have no effect.
func Validate(f *File) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError(diagnostic.CodeConfig, errors.New("column config is nil"), "", "")
		return res
	}

	if f.Version != DefaultVersion {
		res.AddError(diagnostic.CodeConfig, fmt.Errorf("%w: %q", ErrUnsupportedVersion, f.Version), "", "")
	}

	if f.Match != "" {
		if _, ok := match.ParseStrategy(f.Match); !ok {
			res.AddError(diagnostic.CodeConfig, fmt.Errorf("%w: %q", ErrUnknownStrategy, f.Match), "", "")
		}
	}

	validateZone(res, f.TimeZone, "")

	seen := map[string]struct{}{}

	for i := range f.Columns {
		c := &f.Columns[i]
		if c.Name == "" {
			res.AddError(diagnostic.CodeConfig, fmt.Errorf("%w at position %d", ErrEmptyColumnName, i), "", "")
			continue
		}

		if _, ok := seen[c.Name]; ok {
			res.AddError(diagnostic.CodeConfig, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name), "", c.Name)
			continue
		}

		seen[c.Name] = struct{}{}

		validateZone(res, c.TimeZone, c.Name)

		switch c.KeyScope {
		case "", ScopeAny, ScopeTop:
		default:
			res.AddError(diagnostic.CodeConfig, fmt.Errorf("%w: %q", ErrUnknownKeyScope, c.KeyScope), "", c.Name)
		}

		if c.KeyScope != "" && !c.Key && !f.Keys.Contains(c.Name) {
			res.AddWarning(diagnostic.CodeConfig, "key_scope set on a column that is not a key", "", c.Name)
		}

		if c.Ignore && (c.Key || c.Rename != "") {
			res.AddWarning(diagnostic.CodeConfig, "ignored column has other settings", "", c.Name)
		}
	}

	return res
}

func validateZone(res *diagnostic.Diagnostics, zone, column string) {
	if zone == "" {
		return
	}

	if _, err := time.LoadLocation(zone); err != nil {
		res.AddError(diagnostic.CodeConfig, fmt.Errorf("%w %q: %w", ErrBadTimeZone, zone, err), "", column)
	}
}

// CheckHeader compares the columns of f with a header row, using the match
// strategy of f. A missing key column is an error; any other configured
// column that is absent is a warning.
func CheckHeader(f *File, header []string) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	strategy, _ := match.ParseStrategy(f.Match)

	present := func(name string) bool {
		return slices.ContainsFunc(header, func(h string) bool { return strategy.Equal(h, name) })
	}

	for _, k := range f.Keys {
		if !present(k) {
			res.AddError(diagnostic.CodeConfig, fmt.Errorf("%w: %q", ErrKeyNotInHeader, k), "", k)
		}
	}

	for _, c := range f.Columns {
		if c.Name == "" || present(c.Name) || f.Keys.Contains(c.Name) {
			continue
		}

		if c.Key {
			res.AddError(diagnostic.CodeConfig, fmt.Errorf("%w: %q", ErrKeyNotInHeader, c.Name), "", c.Name)
			continue
		}

		res.AddWarning(diagnostic.CodeConfig, "configured column not in header", "", c.Name)
	}

	return res
}
