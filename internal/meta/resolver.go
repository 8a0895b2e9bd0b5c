package meta

import (
	"errors"
	"reflect"
	"slices"
	"sync"

	"flat-mapper/internal/match"
	"flat-mapper/maperr"
)

// LeafTypes tells the resolver which types are decoded whole from one cell
// instead of being decomposed into properties.
type LeafTypes interface {
	IsLeaf(t reflect.Type) bool
}

// maxSuggestions bounds the "did you mean" list of unresolved names.
const maxSuggestions = 3

type resolveKey struct {
	shape reflect.Type
	name  string
}

// Resolver resolves names to properties. It is safe for concurrent use.
type Resolver struct {
	registry *Registry
	leaves   LeafTypes
	strategy match.Strategy

	mu       sync.Mutex
	shapes   map[reflect.Type]*Shape
	resolved map[resolveKey]*Property
}

// NewResolver returns a resolver using ctors for constructor-bound shapes.
func NewResolver(ctors *Registry, leaves LeafTypes, strategy match.Strategy) *Resolver {
	return &Resolver{
		registry: ctors,
		leaves:   leaves,
		strategy: strategy,
		shapes:   make(map[reflect.Type]*Shape),
		resolved: make(map[resolveKey]*Property),
	}
}

// Strategy returns the name-matching strategy in use.
func (r *Resolver) Strategy() match.Strategy {
	return r.strategy
}

// Shape returns the accessor table of t, or nil when t is a leaf.
func (r *Resolver) Shape(t reflect.Type) *Shape {
	t = Indirect(t)

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.shapeLocked(t)
}

// IsLeaf reports whether t (or *t) is mapped as a single value.
func (r *Resolver) IsLeaf(t reflect.Type) bool {
	t = Indirect(t)
	return t.Kind() != reflect.Struct || r.leaves.IsLeaf(t)
}

// Resolve finds the property name designates on shape.
func (r *Resolver) Resolve(shape reflect.Type, name string) (*Property, error) {
	shape = Indirect(shape)

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.resolveLocked(shape, name, nil)
}

func (r *Resolver) shapeLocked(t reflect.Type) *Shape {
	if t.Kind() != reflect.Struct || r.leaves.IsLeaf(t) {
		return nil
	}

	if s, ok := r.shapes[t]; ok {
		return s
	}

	s := inspect(t, r.registry.Lookup(t))
	r.shapes[t] = s

	return s
}

func (r *Resolver) resolveLocked(shape reflect.Type, name string, stack []reflect.Type) (*Property, error) {
	key := resolveKey{shape: shape, name: name}
	if p, ok := r.resolved[key]; ok {
		return p, nil
	}

	p, err := r.lookup(shape, name, stack)
	if err != nil {
		return nil, err
	}

	r.resolved[key] = p

	return p, nil
}

func (r *Resolver) lookup(shape reflect.Type, name string, stack []reflect.Type) (*Property, error) {
	s := r.shapeLocked(shape)
	if s == nil {
		return &Property{Kind: KindDirectValue, Name: name, Path: "", Shape: shape, Type: shape}, nil
	}

	direct, err := r.direct(s, name)
	if err != nil || direct != nil {
		return direct, err
	}

	stack = append(stack, shape)

	var found []*Property

	splits := r.strategy.Split(name)

	// owners are tried tier by tier, with the same preference as direct
	for tier := 0; tier < ownerTiers && len(found) == 0; tier++ {
		for _, split := range splits {
			for _, owner := range s.owners(r.strategy, split.Head)[tier] {
				sub, err := r.descend(owner, split.Rest, stack)

				var unresolved *maperr.UnresolvedPropertyError
				if errors.As(err, &unresolved) {
					continue
				} else if err != nil {
					return nil, err
				}

				if sub != nil {
					found = append(found, sub)
				}
			}
		}
	}

	switch len(found) {
	case 0:
		return nil, &maperr.UnresolvedPropertyError{
			Shape:       shape,
			Name:        name,
			Suggestions: match.Suggest(name, s.Names(), maxSuggestions),
		}
	case 1:
		return found[0], nil
	default:
		return nil, ambiguous(shape, name, found)
	}
}

// direct matches name against the members of s themselves.
// Preference order is struct tag, constructor parameter, field or method.
func (r *Resolver) direct(s *Shape, name string) (*Property, error) {
	var tagged []*Property

	for _, m := range s.fields {
		if m.alias != "" && m.alias == name {
			tagged = append(tagged, m.prop)
		}
	}

	if len(tagged) > 0 {
		return r.pick(s, name, tagged)
	}

	key := r.strategy.Key(name)

	if params := matching(r.strategy, s.params, key); len(params) > 0 {
		return r.pick(s, name, params)
	}

	accessors := append(matching(r.strategy, s.fields, key), matching(r.strategy, s.methods, key)...)
	if len(accessors) > 0 {
		return r.pick(s, name, accessors)
	}

	return nil, nil
}

func (r *Resolver) pick(s *Shape, name string, candidates []*Property) (*Property, error) {
	if len(candidates) > 1 {
		return nil, ambiguous(s.Type, name, candidates)
	}

	p := candidates[0]

	// a collection of leaf values is filled one element per row
	if elem, collection, _ := elemShape(p.Type); collection && p.Type.Elem().Kind() != reflect.Uint8 &&
		!r.leaves.IsLeaf(p.Type) && r.IsLeaf(elem) {
		return r.wrap(p, &Property{Kind: KindDirectValue, Name: name, Shape: elem, Type: p.Type.Elem()}), nil
	}

	return p, nil
}

// descend resolves rest inside the element shape of owner.
func (r *Resolver) descend(owner *Property, rest string, stack []reflect.Type) (*Property, error) {
	elem, collection, _ := elemShape(owner.Type)

	if r.IsLeaf(elem) {
		if !collection || r.leaves.IsLeaf(owner.Type) {
			return nil, nil
		}

		return r.wrap(owner, &Property{Kind: KindDirectValue, Name: rest, Shape: elem, Type: owner.Type.Elem()}), nil
	}

	if slices.Contains(stack, elem) {
		return nil, &maperr.UnsupportedRecursiveShapeError{Shape: elem, Path: owner.Path + "." + rest}
	}

	child, err := r.resolveLocked(elem, rest, stack)
	if err != nil {
		return nil, err
	}

	return r.wrap(owner, child), nil
}

func (r *Resolver) wrap(owner, child *Property) *Property {
	elem, collection, pointer := elemShape(owner.Type)

	path := owner.Path
	if child.Path != "" {
		path += "." + child.Path
	}

	return &Property{
		Kind:        KindSubProperty,
		Name:        owner.Name,
		Path:        path,
		Shape:       owner.Shape,
		Type:        owner.Type,
		Owner:       owner,
		Child:       child,
		Elem:        elem,
		Collection:  collection,
		ElemPointer: pointer,
	}
}

const ownerTiers = 3

// owners returns the members of s matching key, grouped by preference:
// tagged fields, constructor parameters, then fields and methods.
func (s *Shape) owners(strategy match.Strategy, key string) [ownerTiers][]*Property {
	var tiers [ownerTiers][]*Property

	for _, m := range s.fields {
		if m.alias != "" && strategy.Key(m.alias) == key {
			tiers[0] = append(tiers[0], m.prop)
		}
	}

	tiers[1] = matching(strategy, s.params, key)
	tiers[2] = append(matching(strategy, s.fields, key), matching(strategy, s.methods, key)...)

	return tiers
}

func matching(strategy match.Strategy, members []member, key string) []*Property {
	var out []*Property

	for _, m := range members {
		if strategy.Key(m.prop.Name) == key || (m.alias != "" && strategy.Key(m.alias) == key) {
			out = append(out, m.prop)
		}
	}

	return out
}

func ambiguous(shape reflect.Type, name string, candidates []*Property) error {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.String())
	}

	return &maperr.AmbiguousPropertyError{Shape: shape, Name: name, Candidates: names}
}

// Indirect strips one pointer level.
func Indirect(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}

	return t
}

// LeafFunc adapts a predicate to LeafTypes.
type LeafFunc func(t reflect.Type) bool

// IsLeaf implements LeafTypes.
func (f LeafFunc) IsLeaf(t reflect.Type) bool { return f(t) }
