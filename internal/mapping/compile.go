package mapping

import (
	"time"

	"flat-mapper/column"
	"flat-mapper/internal/match"
)

// Config is the compiled form of a File.
type Config struct {
	// DateFormat is the default time layout; empty when not configured.
	DateFormat string
	// Location is the default time zone; nil when not configured.
	Location *time.Location
	// Strategy is the match strategy; HasStrategy is false when not configured.
	Strategy    match.Strategy
	HasStrategy bool
	// Keys are the join key column names.
	Keys []string
	// Columns holds the definition of every configured column by name.
	Columns map[string]column.Definition
}

// Compile validates f and turns it into column definitions. Only the
// diagnostics are returned when f has errors.
func Compile(f *File) (*Config, error) {
	if diags := Validate(f); diags.HasErrors() {
		return nil, diags.Error()
	}

	cfg := &Config{
		DateFormat: f.DateFormat,
		Columns:    make(map[string]column.Definition, len(f.Columns)),
	}

	if f.TimeZone != "" {
		cfg.Location, _ = time.LoadLocation(f.TimeZone)
	}

	if f.Match != "" {
		cfg.Strategy, cfg.HasStrategy = match.ParseStrategy(f.Match)
	}

	cfg.Keys = append(cfg.Keys, f.Keys...)

	for _, c := range f.Columns {
		cfg.Columns[c.Name] = c.definition()

		if c.Key && !f.Keys.Contains(c.Name) {
			cfg.Keys = append(cfg.Keys, c.Name)
		}
	}

	return cfg, nil
}

func (c Column) definition() column.Definition {
	var defs []column.Definition

	if c.Rename != "" {
		defs = append(defs, column.Rename(c.Rename))
	}

	if c.DateFormat != "" {
		defs = append(defs, column.DateFormat(c.DateFormat))
	}

	if c.TimeZone != "" {
		loc, _ := time.LoadLocation(c.TimeZone)
		defs = append(defs, column.TimeZone(loc))
	}

	switch {
	case c.KeyScope == ScopeTop:
		defs = append(defs, column.AsKeyFor(column.TopLevel))
	case c.Key:
		defs = append(defs, column.AsKey())
	}

	if c.Ignore {
		defs = append(defs, column.Ignore())
	}

	return column.Compose(defs...)
}
