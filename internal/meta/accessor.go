package meta

import (
	"reflect"
	"unsafe"

	"github.com/viant/xunsafe"
)

// Accessor reaches a (possibly promoted) field of a struct instance.
// Embedded structs are walked by offset, one xunsafe.Field per hop.
type Accessor struct {
	chain []*xunsafe.Field
	Type  reflect.Type
}

func newAccessor(root reflect.Type, index []int) *Accessor {
	a := &Accessor{chain: make([]*xunsafe.Field, 0, len(index))}

	t := root
	for _, i := range index {
		sf := t.Field(i)
		a.chain = append(a.chain, xunsafe.NewField(sf))
		t = sf.Type
	}

	a.Type = t

	return a
}

// Pointer returns the address of the field inside the instance at target.
func (a *Accessor) Pointer(target unsafe.Pointer) unsafe.Pointer {
	for _, f := range a.chain {
		target = f.Pointer(target)
	}

	return target
}

// Setter calls a SetX method on the pointer receiver of an instance.
type Setter struct {
	fn   reflect.Value
	recv reflect.Type
	Arg  reflect.Type
}

// Set invokes the method with v on the instance at target.
func (s *Setter) Set(target unsafe.Pointer, v reflect.Value) {
	s.fn.Call([]reflect.Value{reflect.NewAt(s.recv, target), v})
}
