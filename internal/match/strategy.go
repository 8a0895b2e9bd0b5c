package match

import (
	"strings"

	"flat-mapper/internal/common"
)

// Strategy selects how a column name is compared with a property name.
type Strategy int

const (
	// Normalized ignores case and separators: "user_id", "UserID" and "userId" are equal.
	Normalized Strategy = iota
	// CaseInsensitive ignores case only.
	CaseInsensitive
	// Exact requires byte equality.
	Exact
)

// ParseStrategy parses the textual form used in configuration files.
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(s) {
	case "", "normalized":
		return Normalized, true
	case "case_insensitive", "caseinsensitive":
		return CaseInsensitive, true
	case "exact":
		return Exact, true
	default:
		return Normalized, false
	}
}

// Key returns the comparison form of s under the strategy.
func (s Strategy) Key(ident string) string {
	switch s {
	case Exact:
		return ident
	case CaseInsensitive:
		return strings.ToLower(ident)
	default:
		return NormalizeIdent(ident)
	}
}

// Equal reports whether column and property names match under the strategy.
func (s Strategy) Equal(column, property string) bool {
	if s == CaseInsensitive {
		return strings.EqualFold(column, property)
	}

	return s.Key(column) == s.Key(property)
}

// Split returns every (head, rest) split of a column name at a separator
// or camel-case token boundary, shortest head first. Heads are returned in
// the strategy's comparison form; rests keep separators so they can be
// resolved again under the same strategy.
func (s Strategy) Split(name string) []Split {
	if strings.Contains(name, ".") {
		head, rest, _ := strings.Cut(name, ".")
		return []Split{{Head: s.Key(head), Rest: rest, Dotted: true}}
	}

	if s == Exact {
		return splitExact(name)
	}

	tokens := tokenizeCamelCase(name)
	if !common.IsMultiple(tokens) {
		return nil
	}

	splits := make([]Split, 0, len(tokens)-1)
	for i := 1; i < len(tokens); i++ {
		splits = append(splits, Split{
			Head: s.Key(strings.Join(tokens[:i], "_")),
			Rest: strings.Join(tokens[i:], "_"),
		})
	}

	return splits
}

// Split is one candidate decomposition of a column name into an owner
// property and the remaining path.
type Split struct {
	Head   string
	Rest   string
	Dotted bool
}

func splitExact(name string) []Split {
	var splits []Split

	for i := 1; i < len(name)-1; i++ {
		if name[i] == '_' {
			splits = append(splits, Split{Head: name[:i], Rest: name[i+1:]})
		}
	}

	return splits
}

func (s Strategy) String() string {
	switch s {
	case Normalized:
		return "normalized"
	case CaseInsensitive:
		return "case_insensitive"
	case Exact:
		return "exact"
	default:
		return common.UnknownStr
	}
}
