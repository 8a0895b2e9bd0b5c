package match

import (
	"strings"
	"unicode"
)

// NormalizeIdent normalizes an identifier for fuzzy matching:
// CamelCase is split, the result is case-folded to lower and
// separators (_, -, space, .) are stripped.
func NormalizeIdent(s string) string {
	// split CamelCase before case folding loses the boundaries
	tokens := tokenizeCamelCase(s)

	joined := strings.Join(tokens, "")
	joined = strings.ToLower(joined)

	return stripSeparators(joined)
}

// tokenizeCamelCase splits a CamelCase, camelCase or snake_case string into tokens.
// Examples:
//   - "OrderID" -> ["Order", "ID"]
//   - "students_phones_value" -> ["students", "phones", "value"]
//   - "XMLParser" -> ["XML", "Parser"]
func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string

	var current strings.Builder

	runes := []rune(s)
	for i := range runes {
		r := runes[i]

		// a separator ends the current token
		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && shouldStartNewToken(runes, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isSeparator reports whether r splits tokens.
func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// shouldStartNewToken reports whether a token starts at position i.
func shouldStartNewToken(runes []rune, i int) bool {
	r := runes[i]
	prevRune := runes[i-1]
	isUpper := unicode.IsUpper(r)
	isPrevUpper := unicode.IsUpper(prevRune)

	// lower to upper transition
	// e.g., "orderID" -> split before 'I'
	if isUpper && !isPrevUpper && !isSeparator(prevRune) {
		return true
	}

	// end of an acronym, the next rune is lower
	// e.g., "XMLParser" -> "XML" + "Parser", split before 'P'
	hasNextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

	return isUpper && isPrevUpper && hasNextLower
}

// stripSeparators removes every separator from s.
func stripSeparators(s string) string {
	var result strings.Builder

	result.Grow(len(s))

	for _, r := range s {
		if !isSeparator(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// TokenizeIdent splits an identifier into normalized lowercase tokens.
func TokenizeIdent(s string) []string {
	tokens := tokenizeCamelCase(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}
