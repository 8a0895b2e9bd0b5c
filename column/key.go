package column

import (
	"reflect"
	"strconv"
)

// Key identifies a column. Identity is the index; the name is only used for
// property resolution and diagnostics.
type Key struct {
	Name  string
	Index int
}

// NewKey returns a Key for the given name and index.
func NewKey(name string, index int) Key {
	return Key{Name: name, Index: index}
}

// WithName returns a copy of k carrying a different name.
func (k Key) WithName(name string) Key {
	k.Name = name
	return k
}

func (k Key) String() string {
	return k.Name + "#" + strconv.Itoa(k.Index)
}

// Property is the view of a resolved property handed to key predicates.
type Property struct {
	// Path is the dotted path of the property relative to the shape that owns the key check.
	Path string
	// Type is the value type of the leaf property.
	Type reflect.Type
	// ConstructorBound is set when the leaf is a constructor parameter.
	ConstructorBound bool
	// Nested is set when the property is reached through a sub-object.
	Nested bool
}

// KeyPredicate restricts which resolved properties a join key applies to.
type KeyPredicate func(Property) bool

// AnyProperty accepts every property.
func AnyProperty(Property) bool { return true }

// TopLevel accepts only properties that belong directly to the shape being checked.
func TopLevel(p Property) bool { return !p.Nested }
