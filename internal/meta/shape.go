package meta

import (
	"reflect"
	"strings"
)

// TagName is the struct tag holding an explicit column alias; "-" hides the field.
const TagName = "csv"

type member struct {
	prop  *Property
	alias string
}

// Shape is the introspected accessor table of a struct type.
type Shape struct {
	Type        reflect.Type
	Constructor *Constructor

	params  []member
	fields  []member
	methods []member
}

func inspect(t reflect.Type, ctor *Constructor) *Shape {
	s := &Shape{Type: t, Constructor: ctor}

	if ctor != nil {
		for i, p := range ctor.Params {
			s.params = append(s.params, member{prop: &Property{
				Kind:  KindConstructorParam,
				Name:  p.Name,
				Path:  p.Name,
				Shape: t,
				Type:  p.Type,
				Param: i,
			}})
		}
	}

	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous || !reachable(t, sf.Index) {
			continue
		}

		alias, hidden := parseTag(sf.Tag.Get(TagName))
		if hidden {
			continue
		}

		s.fields = append(s.fields, member{
			alias: alias,
			prop: &Property{
				Kind:  KindField,
				Name:  sf.Name,
				Path:  sf.Name,
				Shape: t,
				Type:  sf.Type,
				Field: newAccessor(t, sf.Index),
			},
		})
	}

	ptr := reflect.PointerTo(t)
	for i := 0; i < ptr.NumMethod(); i++ {
		m := ptr.Method(i)

		name, ok := strings.CutPrefix(m.Name, "Set")
		if !ok || name == "" || m.Type.NumIn() != 2 || m.Type.NumOut() != 0 {
			continue
		}

		s.methods = append(s.methods, member{prop: &Property{
			Kind:   KindMethod,
			Name:   name,
			Path:   name,
			Shape:  t,
			Type:   m.Type.In(1),
			Method: &Setter{fn: m.Func, recv: t, Arg: m.Type.In(1)},
		}})
	}

	return s
}

// reachable rejects fields promoted through embedded pointers: they would
// need allocation on the way down.
func reachable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Struct {
			return false
		}

		t = f.Type
	}

	return true
}

func parseTag(tag string) (alias string, hidden bool) {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return "", true
	}

	return name, false
}

// Names lists every property name of the shape, for suggestions.
func (s *Shape) Names() []string {
	names := make([]string, 0, len(s.params)+len(s.fields)+len(s.methods))
	for _, group := range [][]member{s.params, s.fields, s.methods} {
		for _, m := range group {
			names = append(names, m.prop.Name)
		}
	}

	return names
}

// elemShape unwraps the owner type t into the shape nested columns resolve
// against: *S, []S and []*S all yield S.
func elemShape(t reflect.Type) (elem reflect.Type, collection, pointer bool) {
	if t.Kind() == reflect.Slice {
		collection = true
		t = t.Elem()
	}

	if t.Kind() == reflect.Pointer {
		pointer = true
		t = t.Elem()
	}

	return t, collection, pointer
}
