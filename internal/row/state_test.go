package row

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flat-mapper/column"
	"flat-mapper/internal/codec"
	"flat-mapper/internal/match"
	"flat-mapper/internal/meta"
	"flat-mapper/maperr"
)

type item struct {
	ID    int
	Label string
}

type fixture struct {
	resolver *meta.Resolver
	codecs   *codec.Registry
}

func newFixture() *fixture {
	ctors := meta.NewRegistry()
	codecs := codec.NewRegistry(ctors)

	return &fixture{resolver: meta.NewResolver(ctors, codecs, match.Normalized), codecs: codecs}
}

func (f *fixture) column(t *testing.T, shape reflect.Type, name string, index int) *Column {
	t.Helper()

	p, err := f.resolver.Resolve(shape, name)
	require.NoError(t, err)

	key := column.NewKey(name, index)
	c, err := f.codecs.Codec(p.Type, key, column.Identity())
	require.NoError(t, err)

	return &Column{Index: index, Binding: codec.NewBinding(c, key, nil), Property: p}
}

func collect(p *Plan) (*State, *[]item) {
	var out []item

	st := NewState(p, codec.NewContext(p.Width), func(v reflect.Value) error {
		out = append(out, v.Interface().(item))
		return nil
	})

	return st, &out
}

func feed(t *testing.T, st *State, cells ...string) {
	t.Helper()

	for i, c := range cells {
		require.NoError(t, st.NewCell(i, []byte(c)))
	}

	require.NoError(t, st.EndOfRow())
}

func TestState_EmitsPerRow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	shape := reflect.TypeOf(item{})

	p := (&Plan{
		Type:      shape,
		Immediate: []*Column{f.column(t, shape, "id", 0), f.column(t, shape, "label", 1)},
	}).Seal()
	assert.Equal(t, 2, p.Width)

	st, out := collect(p)
	feed(t, st, "1", "a")
	feed(t, st, "2", "b")
	require.NoError(t, st.Flush())

	assert.Equal(t, []item{{1, "a"}, {2, "b"}}, *out)
	assert.Equal(t, 2, st.Rows())
}

func TestState_KeysFoldConsecutiveRows(t *testing.T) {
	t.Parallel()

	f := newFixture()
	shape := reflect.TypeOf(item{})
	id := f.column(t, shape, "id", 0)

	p := (&Plan{
		Type:       shape,
		Delayed:    []*Column{id},
		Immediate:  []*Column{f.column(t, shape, "label", 1)},
		Keys:       []*Column{id},
		DelayedEnd: 1,
	}).Seal()

	st, out := collect(p)
	feed(t, st, "1", "a")
	feed(t, st, "1", "b")
	assert.Empty(t, *out, "the joined entity is held until the key changes")

	feed(t, st, "2", "c")
	assert.Equal(t, []item{{1, "b"}}, *out)

	require.NoError(t, st.Flush())
	require.NoError(t, st.Flush())
	assert.Equal(t, []item{{1, "b"}, {2, "c"}}, *out, "flush emits exactly once")

	assert.ErrorIs(t, st.NewCell(0, []byte("3")), maperr.ErrPlanClosed)
	assert.ErrorIs(t, st.EndOfRow(), maperr.ErrPlanClosed)
}

func TestState_FlushEndsPendingRow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	shape := reflect.TypeOf(item{})

	p := (&Plan{Type: shape, Immediate: []*Column{f.column(t, shape, "id", 0)}}).Seal()

	st, out := collect(p)
	require.NoError(t, st.NewCell(0, []byte("9")))
	require.NoError(t, st.Flush())

	assert.Equal(t, []item{{ID: 9}}, *out)
}

func TestState_UnknownIndexesIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture()
	shape := reflect.TypeOf(item{})

	p := (&Plan{Type: shape, Immediate: []*Column{f.column(t, shape, "label", 2)}}).Seal()

	st, out := collect(p)
	feed(t, st, "x", "y", "z", "overflow")
	require.NoError(t, st.NewCell(-1, []byte("negative")))
	require.NoError(t, st.EndOfRow())
	require.NoError(t, st.Flush())

	assert.Equal(t, []item{{Label: "z"}, {}}, *out)
}

func TestState_EmitErrorStops(t *testing.T) {
	t.Parallel()

	f := newFixture()
	shape := reflect.TypeOf(item{})
	p := (&Plan{Type: shape, Immediate: []*Column{f.column(t, shape, "id", 0)}}).Seal()

	errStop := errors.New("stop")
	st := NewState(p, codec.NewContext(p.Width), func(reflect.Value) error { return errStop })

	require.NoError(t, st.NewCell(0, []byte("1")))
	assert.ErrorIs(t, st.EndOfRow(), errStop)
}

func TestState_CellErrorsSurface(t *testing.T) {
	t.Parallel()

	f := newFixture()
	shape := reflect.TypeOf(item{})
	p := (&Plan{Type: shape, Immediate: []*Column{f.column(t, shape, "id", 0)}}).Seal()

	st, _ := collect(p)

	var parseErr *maperr.CellParseError
	require.ErrorAs(t, st.NewCell(0, []byte("abc")), &parseErr)
	assert.Equal(t, "abc", parseErr.Raw)
}
