package plan

import (
	"fmt"
	"reflect"

	"flat-mapper/internal/diagnostic"
	"flat-mapper/internal/meta"
	"flat-mapper/internal/row"
	"flat-mapper/maperr"
)

// layout is the result of classify for one plan level.
type layout struct {
	// delayedEnd is the first column index written straight into the instance.
	delayedEnd int
	// keys are the column indexes of the join keys owned by the level.
	keys []int
}

func (l layout) isKey(index int) bool {
	for _, k := range l.keys {
		if k == index {
			return true
		}
	}

	return false
}

// classify computes the delayed boundary of a level: every constructor-bound,
// key and direct-value column, at any depth, must be buffered until the
// instance can be created. minDelayedEnd is inherited from the parent level.
func classify(mappings []ColumnMapping, minDelayedEnd int) layout {
	l := layout{delayedEnd: minDelayedEnd}

	for _, m := range mappings {
		key := m.isKey()

		// a direct value is the instance itself
		if key || m.Property.IsConstructorBound() || m.Property.Kind == meta.KindDirectValue {
			l.delayedEnd = max(l.delayedEnd, m.Key.Index+1)
		}

		if key && m.Property.Kind != meta.KindSubProperty {
			l.keys = append(l.keys, m.Key.Index)
		}
	}

	return l
}

// group collects the mappings delegated to one owner property.
type group struct {
	sub      *meta.Property
	mappings []ColumnMapping
}

func (g *group) name() string { return g.sub.Owner.Name }

type partition struct {
	leaves []ColumnMapping
	groups []*group
}

func (p *partition) add(m ColumnMapping) {
	if m.Property.Kind != meta.KindSubProperty {
		p.leaves = append(p.leaves, m)
		return
	}

	for _, g := range p.groups {
		if g.name() == m.Property.Owner.Name {
			g.mappings = append(g.mappings, m.rooted())
			return
		}
	}

	p.groups = append(p.groups, &group{sub: m.Property, mappings: []ColumnMapping{m.rooted()}})
}

// partitionDelayed splits the columns below the delayed boundary into leaf
// setters and per-owner groups.
func partitionDelayed(mappings []ColumnMapping, l layout) partition {
	var p partition

	for _, m := range mappings {
		if m.Key.Index < l.delayedEnd {
			p.add(m)
		}
	}

	return p
}

// partitionImmediate does the same for the columns at or past the boundary.
func partitionImmediate(mappings []ColumnMapping, l layout) partition {
	var p partition

	for _, m := range mappings {
		if m.Key.Index >= l.delayedEnd {
			p.add(m)
		}
	}

	return p
}

// mergeGroups joins the delayed and immediate columns of each owner, in
// order of first appearance.
func mergeGroups(delayed, immediate []*group) []*group {
	out := make([]*group, 0, len(delayed)+len(immediate))
	out = append(out, delayed...)

next:
	for _, g := range immediate {
		for _, d := range out {
			if d.name() == g.name() {
				d.mappings = append(d.mappings, g.mappings...)
				continue next
			}
		}

		out = append(out, g)
	}

	return out
}

// buildNested builds one child plan per owner. Children never start before
// the parent boundary; nullable owners (collections and pointers) buffer
// their whole segment so an empty segment yields no element.
func (b *Builder) buildNested(shape reflect.Type, groups []*group, l layout, diags *diagnostic.Diagnostics) []*row.Nested {
	nested := make([]*row.Nested, 0, len(groups))

	for _, g := range groups {
		owner := g.sub.Owner

		last := 0
		for _, m := range g.mappings {
			last = max(last, m.Key.Index)
		}

		if g.sub.Collection && owner.Kind != meta.KindField {
			diags.AddError(diagnostic.CodeCollectionOwner,
				fmt.Errorf("%w: %s", ErrCollectionOwner, owner), shape.String(), owner.Name)

			continue
		}

		minDelayedEnd := l.delayedEnd
		if g.sub.Collection || g.sub.ElemPointer {
			minDelayedEnd = max(minDelayedEnd, last+1)
		}

		childShape, pointer := g.sub.Elem, g.sub.ElemPointer
		if g.mappings[0].Property.Kind == meta.KindDirectValue {
			childShape, pointer = owner.Type.Elem(), false
		}

		child := b.level(childShape, pointer, g.mappings, minDelayedEnd, diags)
		if child == nil {
			continue
		}

		nested = append(nested, &row.Nested{
			Owner:      owner,
			Plan:       child,
			LastIndex:  last,
			Collection: g.sub.Collection,
		})
	}

	return nested
}

// assemble produces the plan of one level from the outputs of the previous
// passes. It fails when a constructor parameter is fed by no column.
func (b *Builder) assemble(
	shape reflect.Type,
	pointer bool,
	l layout,
	delayed, immediate []ColumnMapping,
	nested []*row.Nested,
	diags *diagnostic.Diagnostics,
) *row.Plan {
	p := &row.Plan{
		Type:       shape,
		Pointer:    pointer,
		Nested:     nested,
		DelayedEnd: l.delayedEnd,
	}

	if s := b.cfg.Resolver.Shape(shape); s != nil && !b.cfg.Codecs.IsLeaf(shape) {
		p.Constructor = s.Constructor
	}

	failed := false

	for _, group := range [][]ColumnMapping{delayed, immediate} {
		for _, m := range group {
			binding, err := b.binding(m)
			if err != nil {
				diags.AddError(codeOf(err), err, shape.String(), m.Key.String())
				failed = true

				continue
			}

			c := &row.Column{Index: m.Key.Index, Binding: binding, Property: m.Property}

			switch {
			case m.Property.Kind == meta.KindConstructorParam:
				p.Params = append(p.Params, c)
			case m.Key.Index < l.delayedEnd:
				p.Delayed = append(p.Delayed, c)
			default:
				p.Immediate = append(p.Immediate, c)
			}

			if l.isKey(c.Index) {
				p.Keys = append(p.Keys, c)
			}
		}
	}

	if p.Constructor != nil {
		if missing := missingParams(p); len(missing) > 0 {
			err := &maperr.MissingInjectionPointError{Shape: shape, Parameters: missing}
			diags.AddError(diagnostic.CodeMissingArgument, err, shape.String(), "")

			return nil
		}
	}

	if failed {
		return nil
	}

	return p
}

func missingParams(p *row.Plan) []string {
	covered := make([]bool, len(p.Constructor.Params))

	for _, c := range p.Params {
		covered[c.Property.Param] = true
	}

	for _, n := range p.Nested {
		if n.ConstructorBound() {
			covered[n.Owner.Param] = true
		}
	}

	var missing []string

	for i, ok := range covered {
		if !ok {
			missing = append(missing, p.Constructor.Params[i].Name)
		}
	}

	return missing
}

// directOnly keeps the first direct-value column of a level; a single cell
// value cannot be fed by several columns.
func directOnly(shape reflect.Type, mappings []ColumnMapping, diags *diagnostic.Diagnostics) []ColumnMapping {
	seen := false
	out := mappings[:0:0]

	for _, m := range mappings {
		if m.Property.Kind == meta.KindDirectValue {
			if seen {
				diags.AddWarning(diagnostic.CodeDirectValue,
					"value already fed by another column, column dropped", shape.String(), m.Key.String())

				continue
			}

			seen = true
		}

		out = append(out, m)
	}

	return out
}
