package column

import (
	"strings"
	"time"
)

// Decoder converts the raw bytes of a cell into a value assignable to the
// target property. The slice is only valid for the duration of the call.
type Decoder interface {
	Decode(cell []byte) (any, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(cell []byte) (any, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(cell []byte) (any, error) {
	return f(cell)
}

type attr uint8

const (
	attrRename attr = 1 << iota
	attrDateFormat
	attrTimeZone
	attrKey
	attrDecoder
	attrIgnore
)

// Definition is the composable configuration attached to one column.
// The zero value sets nothing and is the identity of Compose.
type Definition struct {
	set attr

	rename     string
	dateFormat string
	location   *time.Location
	key        bool
	keyScope   KeyPredicate
	decoder    Decoder
	ignore     bool
}

// Identity returns a definition with no attribute set.
func Identity() Definition {
	return Definition{}
}

// Rename resolves the column against name instead of the column name.
func Rename(name string) Definition {
	return Definition{set: attrRename, rename: name}
}

// DateFormat sets the time layout (Go reference-time notation) for time cells.
func DateFormat(layout string) Definition {
	return Definition{set: attrDateFormat, dateFormat: layout}
}

// TimeZone sets the location time cells without an explicit offset are parsed in.
func TimeZone(loc *time.Location) Definition {
	return Definition{set: attrTimeZone, location: loc}
}

// AsKey marks the column as a join key applying to any property.
func AsKey() Definition {
	return AsKeyFor(AnyProperty)
}

// AsKeyFor marks the column as a join key applying to properties accepted by scope.
func AsKeyFor(scope KeyPredicate) Definition {
	if scope == nil {
		scope = AnyProperty
	}

	return Definition{set: attrKey, key: true, keyScope: scope}
}

// NotKey clears a key flag set by an earlier definition.
func NotKey() Definition {
	return Definition{set: attrKey}
}

// Decode overrides the decoder used for the column.
func Decode(d Decoder) Definition {
	return Definition{set: attrDecoder, decoder: d}
}

// DecodeFunc overrides the decoder used for the column with a function.
func DecodeFunc(fn func(cell []byte) (any, error)) Definition {
	return Decode(DecoderFunc(fn))
}

// Ignore drops the column from the mapping.
func Ignore() Definition {
	return Definition{set: attrIgnore, ignore: true}
}

// Compose layers defs from left to right; later attributes override earlier ones.
func Compose(defs ...Definition) Definition {
	var out Definition
	for _, d := range defs {
		out = out.Compose(d)
	}

	return out
}

// Compose returns d overridden by every attribute set in other.
func (d Definition) Compose(other Definition) Definition {
	if other.set&attrRename != 0 {
		d.rename = other.rename
	}

	if other.set&attrDateFormat != 0 {
		d.dateFormat = other.dateFormat
	}

	if other.set&attrTimeZone != 0 {
		d.location = other.location
	}

	if other.set&attrKey != 0 {
		d.key = other.key
		d.keyScope = other.keyScope
	}

	if other.set&attrDecoder != 0 {
		d.decoder = other.decoder
	}

	if other.set&attrIgnore != 0 {
		d.ignore = other.ignore
	}

	d.set |= other.set

	return d
}

// RenamedTo returns the name the column resolves against, if renamed.
func (d Definition) RenamedTo() (string, bool) {
	return d.rename, d.set&attrRename != 0
}

// Apply returns key renamed according to d.
func (d Definition) Apply(key Key) Key {
	if name, ok := d.RenamedTo(); ok {
		return key.WithName(name)
	}

	return key
}

// DateLayout returns the configured time layout.
func (d Definition) DateLayout() (string, bool) {
	return d.dateFormat, d.set&attrDateFormat != 0
}

// Location returns the configured time zone, or nil.
func (d Definition) Location() *time.Location {
	return d.location
}

// IsKey reports whether the column is a join key (regardless of scope).
func (d Definition) IsKey() bool {
	return d.key
}

// KeyAppliesTo reports whether the column is a join key for p.
func (d Definition) KeyAppliesTo(p Property) bool {
	if !d.key {
		return false
	}

	if d.keyScope == nil {
		return true
	}

	return d.keyScope(p)
}

// Decoder returns the custom decoder, or nil.
func (d Definition) Decoder() Decoder {
	return d.decoder
}

// IsIgnored reports whether the column is dropped.
func (d Definition) IsIgnored() bool {
	return d.ignore
}

func (d Definition) String() string {
	var parts []string
	if name, ok := d.RenamedTo(); ok {
		parts = append(parts, "rename="+name)
	}

	if layout, ok := d.DateLayout(); ok {
		parts = append(parts, "format="+layout)
	}

	if d.location != nil {
		parts = append(parts, "tz="+d.location.String())
	}

	if d.key {
		parts = append(parts, "key")
	}

	if d.decoder != nil {
		parts = append(parts, "decoder")
	}

	if d.ignore {
		parts = append(parts, "ignore")
	}

	return "{" + strings.Join(parts, ",") + "}"
}
