// Package meta resolves column names against target shapes.
//
// A shape is introspected once into a closed accessor table: constructor
// parameters (from a registered constructor function), exported fields
// (including fields promoted from embedded structs, reached through xunsafe
// offsets) and SetX setter methods. Resolution turns a name into a Property:
//
//   - KindConstructorParam: argument of the shape's constructor
//   - KindField: settable exported field
//   - KindMethod: SetX(v) method on the pointer receiver
//   - KindSubProperty: owner property plus child property in the owner's element shape
//   - KindDirectValue: the shape itself is a leaf value
//
// Results are cached per (shape, name); the same pointer is returned for
// repeated lookups.
package meta
