// Package plan builds the executable row plan of a target shape from a set
// of column definitions.
//
// Build pipeline:
//  1. Resolve every column name to a property of the shape
//  2. Classify mappings: constructor-bound, key, direct, nested
//  3. Split columns into delayed (before instantiation) and immediate
//  4. Merge nested columns by owner and build a child plan per owner
//  5. Assemble and seal the plan; report diagnostics
//
// Errors from every column are collected before Build returns.
package plan
