package plan

import (
	"fmt"
	"reflect"

	"flat-mapper/column"
	"flat-mapper/internal/codec"
	"flat-mapper/internal/diagnostic"
	"flat-mapper/internal/meta"
	"flat-mapper/internal/row"
)

// Config carries the collaborators plans are built with.
type Config struct {
	Resolver *meta.Resolver
	Codecs   *codec.Registry
	// FieldErrors handles cells that cannot be decoded; nil rethrows.
	FieldErrors codec.ErrorHandler
}

// Builder accumulates column mappings for one target type and builds its plan.
type Builder struct {
	shape   reflect.Type
	cfg     Config
	entries []entry
	diags   diagnostic.Diagnostics
	last    diagnostic.Diagnostics
}

// NewBuilder returns a builder for values of type shape.
func NewBuilder(shape reflect.Type, cfg Config) *Builder {
	return &Builder{shape: shape, cfg: cfg}
}

// AddColumn registers a column. A column registered again at the same index
// replaces the earlier one; the earlier definition stays composed underneath.
func (b *Builder) AddColumn(key column.Key, def column.Definition) *Builder {
	for i, e := range b.entries {
		if e.key.Index != key.Index {
			continue
		}

		b.diags.AddWarning(diagnostic.CodeDuplicateIndex,
			fmt.Sprintf("column %s replaces %s", key, e.key), b.shape.String(), key.String())
		b.entries[i] = entry{key: key, def: e.def.Compose(def)}

		return b
	}

	b.entries = append(b.entries, entry{key: key, def: def})

	return b
}

// Columns returns the registered column keys in registration order.
func (b *Builder) Columns() []column.Key {
	keys := make([]column.Key, 0, len(b.entries))
	for _, e := range b.entries {
		keys = append(keys, e.key)
	}

	return keys
}

// Diagnostics returns the diagnostics of the last Build.
func (b *Builder) Diagnostics() diagnostic.Diagnostics {
	return b.last
}

// Build resolves every column and produces a sealed plan. It does not
// change the builder: building twice yields equivalent plans.
func (b *Builder) Build() (*row.Plan, error) {
	var diags diagnostic.Diagnostics
	diags.Merge(b.diags)

	mappings := b.resolve(&diags)

	root, pointer := meta.Indirect(b.shape), b.shape.Kind() == reflect.Pointer
	if b.direct() {
		root, pointer = b.shape, false
	}

	p := b.level(root, pointer, mappings, 0, &diags)

	b.last = diags
	if diags.HasErrors() {
		return nil, diags.Error()
	}

	return p.Seal(), nil
}

// level runs the passes for one plan level. It returns nil when errors were
// recorded.
func (b *Builder) level(
	shape reflect.Type,
	pointer bool,
	mappings []ColumnMapping,
	minDelayedEnd int,
	diags *diagnostic.Diagnostics,
) *row.Plan {
	mappings = directOnly(shape, mappings, diags)

	l := classify(mappings, minDelayedEnd)
	delayed := partitionDelayed(mappings, l)
	immediate := partitionImmediate(mappings, l)
	nested := b.buildNested(shape, mergeGroups(delayed.groups, immediate.groups), l, diags)

	return b.assemble(shape, pointer, l, delayed.leaves, immediate.leaves, nested, diags)
}
