package meta

import (
	"reflect"
	"unsafe"

	"flat-mapper/column"
)

// Property is a resolved property descriptor. Exactly the fields relevant
// to Kind are set.
type Property struct {
	Kind Kind
	// Name is the declared name: field name, parameter name or the X of SetX.
	Name string
	// Path is the dotted path relative to Shape.
	Path string
	// Shape is the struct type the property belongs to.
	Shape reflect.Type
	// Type is the declared value type.
	Type reflect.Type

	// Param is the constructor argument index.
	Param int
	// Field reaches the field inside an instance of Shape.
	Field *Accessor
	// Method sets the value on an instance of Shape.
	Method *Setter

	// Owner and Child are set for KindSubProperty.
	Owner *Property
	Child *Property
	// Elem is the element shape of Owner, never a pointer.
	Elem reflect.Type
	// Collection is set when Owner is a slice accumulating Elem values.
	Collection bool
	// ElemPointer is set when Owner stores *Elem (as a value or slice element).
	ElemPointer bool
}

// Leaf follows Child links down to the property receiving the cell.
func (p *Property) Leaf() *Property {
	for p.Kind == KindSubProperty {
		p = p.Child
	}

	return p
}

// IsConstructorBound reports whether the property, or the owner it hangs
// from, is a constructor argument of Shape.
func (p *Property) IsConstructorBound() bool {
	if p.Kind == KindSubProperty {
		return p.Owner.Kind == KindConstructorParam
	}

	return p.Kind == KindConstructorParam
}

// View returns the public description handed to key predicates.
func (p *Property) View() column.Property {
	leaf := p.Leaf()

	return column.Property{
		Path:             p.Path,
		Type:             leaf.Type,
		ConstructorBound: p.IsConstructorBound(),
		Nested:           p.Kind == KindSubProperty,
	}
}

func (p *Property) String() string {
	return p.Kind.String() + "(" + p.Path + ")"
}

// Settable reports whether values can be assigned to p on an existing
// instance, through a field or a setter method.
func (p *Property) Settable() bool {
	return p.Kind == KindField || p.Kind == KindMethod
}

// Assign stores v into the property of the instance at target. It is the
// boxed path used for user decoders and fallback values.
func (p *Property) Assign(target unsafe.Pointer, v reflect.Value) {
	switch p.Kind {
	case KindField:
		reflect.NewAt(p.Type, p.Field.Pointer(target)).Elem().Set(v)
	case KindMethod:
		p.Method.Set(target, v)
	}
}
