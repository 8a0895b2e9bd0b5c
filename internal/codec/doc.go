// Package codec turns raw cell bytes into typed values.
//
// A Codec is resolved once per column at plan build time. For numeric and
// boolean kinds it writes straight into the target memory through generic,
// non-boxing setters; other types go through typed decoders (time, uuid,
// decimal, TextUnmarshaler) or the boxed reflect path (custom decoders,
// constructor-synthesized decoders).
//
// Every codec has an immediate form (Set: decode into the field) and a
// delayed form (Store into a Slot, later consumed into the field or read
// as a constructor argument, or peeked for join-key comparison).
package codec
