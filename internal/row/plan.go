package row

import (
	"fmt"
	"reflect"
	"unsafe"

	"flat-mapper/internal/codec"
	"flat-mapper/internal/meta"
)

// Column is a leaf column written into the instance of its plan level.
type Column struct {
	Index    int
	Binding  *codec.Binding
	Property *meta.Property

	key bool
}

// set decodes cell straight into the instance at inst.
func (c *Column) set(ctx *codec.Context, inst unsafe.Pointer, cell []byte) error {
	switch c.Property.Kind {
	case meta.KindField:
		return c.Binding.Set(ctx, c.Property.Field.Pointer(inst), cell)
	case meta.KindDirectValue:
		return c.Binding.Set(ctx, inst, cell)
	case meta.KindMethod:
		v, err := c.Binding.Value(ctx, cell)
		if err != nil {
			return err
		}

		c.Property.Method.Set(inst, v)

		return nil
	default:
		return fmt.Errorf("column %s: %s cannot be set on an existing instance", c.Binding.Key, c.Property)
	}
}

// consume writes the buffered value of s into the instance at inst.
func (c *Column) consume(inst unsafe.Pointer, s *codec.Slot) error {
	switch c.Property.Kind {
	case meta.KindField:
		return c.Binding.Consume(c.Property.Field.Pointer(inst), s)
	case meta.KindDirectValue:
		return c.Binding.Consume(inst, s)
	case meta.KindMethod:
		v, err := c.Binding.ConsumeValue(s)
		if err != nil {
			return err
		}

		c.Property.Method.Set(inst, v)

		return nil
	default:
		return fmt.Errorf("column %s: %s cannot be set on an existing instance", c.Binding.Key, c.Property)
	}
}

// Nested is a child plan filling one owner property of its parent.
type Nested struct {
	// Owner is the property of the parent shape the child entities go to.
	Owner *meta.Property
	Plan  *Plan
	// LastIndex is the highest column index of the child segment.
	LastIndex int
	// Collection children append one element per entity.
	Collection bool
}

// ConstructorBound reports whether the child is passed as a constructor argument.
func (n *Nested) ConstructorBound() bool {
	return n.Owner.Kind == meta.KindConstructorParam
}

type routeKind uint8

const (
	routeSkip routeKind = iota
	routeStore
	routeApply
	routeDelegate
)

type route struct {
	kind   routeKind
	column *Column
	nested int
}

// Plan is the executable mapping of one shape.
type Plan struct {
	// Type is the instance type; for direct values it is the leaf type itself.
	Type reflect.Type
	// Pointer entities are emitted or attached as *Type instead of Type.
	Pointer bool
	// Constructor builds the instance from Params and constructor-bound
	// children; nil instances are allocated zeroed.
	Constructor *meta.Constructor

	Params    []*Column
	Delayed   []*Column
	Immediate []*Column
	// Keys are sorted by index and also appear in Params or Delayed.
	Keys   []*Column
	Nested []*Nested

	// DelayedEnd is the first index written straight into the instance.
	DelayedEnd int
	// Width is one past the highest column index of the plan.
	Width int

	routes []route
	sealed bool
}

// HasKeys reports whether consecutive rows are folded by join keys.
func (p *Plan) HasKeys() bool {
	return len(p.Keys) > 0
}

// Seal prepares the cell routing table of p and its children. A plan must
// be sealed once before it is executed and is read-only afterwards.
func (p *Plan) Seal() *Plan {
	if p.sealed {
		return p
	}

	for _, n := range p.Nested {
		n.Plan.Seal()

		if n.Plan.Width > p.Width {
			p.Width = n.Plan.Width
		}
	}

	for _, group := range [][]*Column{p.Params, p.Delayed, p.Immediate} {
		for _, c := range group {
			if c.Index >= p.Width {
				p.Width = c.Index + 1
			}
		}
	}

	p.routes = make([]route, p.Width)

	for _, k := range p.Keys {
		k.key = true
	}

	for _, c := range p.Params {
		p.routes[c.Index] = route{kind: routeStore, column: c}
	}

	for _, c := range p.Delayed {
		p.routes[c.Index] = route{kind: routeStore, column: c}
	}

	for _, c := range p.Immediate {
		p.routes[c.Index] = route{kind: routeApply, column: c}
	}

	for i, n := range p.Nested {
		for index, r := range n.Plan.routes {
			if r.kind != routeSkip {
				p.routes[index] = route{kind: routeDelegate, nested: i}
			}
		}
	}

	p.sealed = true

	return p
}

func (p *Plan) route(index int) route {
	if index < 0 || index >= len(p.routes) {
		return route{}
	}

	return p.routes[index]
}

// Columns returns the number of leaf columns of p, children included.
func (p *Plan) Columns() int {
	n := len(p.Params) + len(p.Delayed) + len(p.Immediate)
	for _, c := range p.Nested {
		n += c.Plan.Columns()
	}

	return n
}

// String describes the plan layout, for logs.
func (p *Plan) String() string {
	return fmt.Sprintf("%s{delayed:%d immediate:%d keys:%d nested:%d delayedEnd:%d}",
		p.Type, len(p.Params)+len(p.Delayed), len(p.Immediate), len(p.Keys), len(p.Nested), p.DelayedEnd)
}
