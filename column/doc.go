// Package column describes the columns of a tabular source: their identity
// (Key) and the per-column configuration (Definition) that steers how a cell
// is resolved against the target shape and decoded.
//
// Definitions compose right-biased: Compose(a, b) keeps every attribute of a
// that b leaves unset, and takes b's value for every attribute b sets.
// Composition is associative, so defaults can be layered in any grouping:
//
//	base := column.DateFormat("2006-01-02")
//	def := column.Compose(base, column.AsKey(), column.Rename("id"))
package column
