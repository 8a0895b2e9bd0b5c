// Package match provides identifier normalization and the name-matching
// strategies used to bind column names to target properties, plus ranked
// suggestions for names that match nothing.
//
// Key functions:
//   - NormalizeIdent: case-folds and strips separators for fuzzy matching
//   - TokenizeIdent: splits an identifier into lowercase tokens
//   - Strategy.Equal: compares a column name with a property name
//   - Suggest: ranks property names by Levenshtein similarity
package match
