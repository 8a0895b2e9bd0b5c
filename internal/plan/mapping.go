package plan

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"flat-mapper/column"
	"flat-mapper/internal/codec"
	"flat-mapper/internal/diagnostic"
	"flat-mapper/internal/meta"
	"flat-mapper/maperr"
)

// ErrCollectionOwner is reported for columns accumulating into a collection
// that is not a settable field (a constructor argument or a setter method).
var ErrCollectionOwner = errors.New("collection owner must be a settable field")

// ColumnMapping binds one column to the property it feeds. Property is
// relative to the shape of the plan level the mapping belongs to.
type ColumnMapping struct {
	Key        column.Key
	Definition column.Definition
	Property   *meta.Property
}

func (m ColumnMapping) String() string {
	return m.Key.String() + " -> " + m.Property.String()
}

// rooted returns the mapping seen from the element shape of its owner.
func (m ColumnMapping) rooted() ColumnMapping {
	m.Property = m.Property.Child
	return m
}

func (m ColumnMapping) isKey() bool {
	return m.Definition.KeyAppliesTo(m.Property.View())
}

type entry struct {
	key column.Key
	def column.Definition
}

// resolve turns the registered columns into mappings sorted by index.
// Unresolvable columns become error diagnostics.
func (b *Builder) resolve(diags *diagnostic.Diagnostics) []ColumnMapping {
	entries := slices.Clone(b.entries)
	slices.SortFunc(entries, func(x, y entry) int { return x.key.Index - y.key.Index })

	direct := b.direct()
	shape := b.shape.String()

	out := make([]ColumnMapping, 0, len(entries))

	for _, e := range entries {
		if e.def.IsIgnored() {
			diags.AddInfo(diagnostic.CodeIgnored, "column ignored", shape, e.key.String())
			continue
		}

		name := e.def.Apply(e.key).Name

		var prop *meta.Property

		if direct {
			prop = &meta.Property{Kind: meta.KindDirectValue, Name: name, Shape: b.shape, Type: b.shape}
		} else {
			var err error

			prop, err = b.cfg.Resolver.Resolve(b.shape, name)
			if err != nil {
				err = withColumn(err, e.key)
				diags.AddError(codeOf(err), err, shape, e.key.String())

				continue
			}
		}

		out = append(out, ColumnMapping{Key: e.key, Definition: e.def, Property: prop})
	}

	return out
}

// direct reports whether the root type is itself a single cell value.
func (b *Builder) direct() bool {
	return b.cfg.Codecs.IsLeaf(b.shape) || meta.Indirect(b.shape).Kind() != reflect.Struct
}

func withColumn(err error, key column.Key) error {
	var (
		unresolved *maperr.UnresolvedPropertyError
		ambiguous  *maperr.AmbiguousPropertyError
	)

	switch {
	case errors.As(err, &unresolved):
		e := *unresolved
		e.Column = key

		return &e
	case errors.As(err, &ambiguous):
		e := *ambiguous
		e.Column = key

		return &e
	default:
		return fmt.Errorf("column %s: %w", key, err)
	}
}

func codeOf(err error) string {
	var (
		unresolved *maperr.UnresolvedPropertyError
		ambiguous  *maperr.AmbiguousPropertyError
		recursive  *maperr.UnsupportedRecursiveShapeError
		noDecoder  *maperr.NoDecoderError
		missing    *maperr.MissingInjectionPointError
	)

	switch {
	case errors.As(err, &unresolved):
		return diagnostic.CodeUnresolved
	case errors.As(err, &ambiguous):
		return diagnostic.CodeAmbiguous
	case errors.As(err, &recursive):
		return diagnostic.CodeRecursive
	case errors.As(err, &noDecoder):
		return diagnostic.CodeNoDecoder
	case errors.As(err, &missing):
		return diagnostic.CodeMissingArgument
	case errors.Is(err, ErrCollectionOwner):
		return diagnostic.CodeCollectionOwner
	default:
		return diagnostic.CodeConfig
	}
}

// binding resolves the codec of a leaf mapping.
func (b *Builder) binding(m ColumnMapping) (*codec.Binding, error) {
	c, err := b.cfg.Codecs.Codec(m.Property.Type, m.Key, m.Definition)
	if err != nil {
		return nil, err
	}

	return codec.NewBinding(c, m.Key, b.cfg.FieldErrors), nil
}
