// Package row executes a mapping plan against a stream of rows.
//
// A Plan is built once per (shape, column set) and then shared: it is never
// mutated after Seal. A State carries everything that changes while a
// stream is mapped and must not be shared between goroutines.
//
// Every plan level walks the same cycle for each row:
//
//	accumulating   delayed cells are decoded into slots
//	materializing  once the last delayed cell is known, the instance is
//	               constructed from the slots, or the previous instance is
//	               continued when the join keys repeat
//	applying       immediate cells are written straight into the instance
//	complete       the instance is attached to its parent, or emitted
//
// Nested plans own disjoint column ranges of their parent. Their slots live
// in the single backing array of the root state so a column is stored at
// its own index whatever the depth.
package row
