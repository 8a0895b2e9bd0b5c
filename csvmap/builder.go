package csvmap

import (
	"reflect"

	"github.com/go-kit/log/level"

	"flat-mapper/column"
	"flat-mapper/internal/plan"
)

// Builder collects the columns of a mapper for T. Columns added without an
// index take the position after the highest one added so far.
type Builder[T any] struct {
	f     *Factory
	shape reflect.Type
	plan  *plan.Builder
	next  int
}

// NewBuilder returns an empty builder for T using the configuration of f.
func NewBuilder[T any](f *Factory) *Builder[T] {
	shape := reflect.TypeFor[T]()

	return &Builder[T]{
		f:     f,
		shape: shape,
		plan:  plan.NewBuilder(shape, f.planConfig()),
	}
}

// AddColumn adds the column name at the next position.
func (b *Builder[T]) AddColumn(name string, defs ...column.Definition) *Builder[T] {
	return b.AddColumnAt(name, b.next, defs...)
}

// AddColumnAt adds the column name at index. A second column at the same
// index replaces the first, keeping its definition underneath.
func (b *Builder[T]) AddColumnAt(name string, index int, defs ...column.Definition) *Builder[T] {
	b.plan.AddColumn(column.NewKey(name, index), b.f.definition(name, defs...))

	if index >= b.next {
		b.next = index + 1
	}

	return b
}

// AddKeys adds the named columns as join keys.
func (b *Builder[T]) AddKeys(names ...string) *Builder[T] {
	for _, name := range names {
		b.AddColumn(name, column.AsKey())
	}

	return b
}

// Build resolves the columns and returns a mapper. Every resolution error
// is returned together; warnings are logged.
func (b *Builder[T]) Build() (*Mapper[T], error) {
	p, err := b.plan.Build()
	b.f.logDiagnostics(b.shape, b.plan.Diagnostics())

	if err != nil {
		return nil, err
	}

	b.f.metrics.PlansBuilt.Inc()
	level.Debug(b.f.logger).Log("msg", "plan built", "type", b.shape, "columns", p.Columns(), "keys", p.HasKeys())

	return &Mapper[T]{f: b.f, plan: p}, nil
}
