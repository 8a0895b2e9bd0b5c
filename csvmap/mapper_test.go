package csvmap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flat-mapper/column"
	"flat-mapper/maperr"
	"flat-mapper/source"
)

type student struct {
	ID     int
	Name   string
	Phones []string
}

type professor struct {
	ID       int
	Name     string
	Students []student
}

type event struct {
	ID   int
	Name string
	At   time.Time
}

var joinRows = [][]string{
	{"1", "professor1", "3", "student3", "phone31"},
	{"1", "professor1", "3", "student3", "phone32"},
	{"1", "professor1", "4", "student4", "phone41"},
	{"2", "professor2", "4", "student4", "phone51"},
	{"2", "professor2", "4", "student4", "phone52"},
	{"3", "professor3", "", "", ""},
}

func newFactory(t *testing.T, opts ...Option) *Factory {
	t.Helper()

	f, err := NewFactory(opts...)
	require.NoError(t, err)

	return f
}

func professorMapper(t *testing.T, f *Factory) *Mapper[professor] {
	t.Helper()

	m, err := NewBuilder[professor](f).
		AddColumn("id", column.AsKey()).
		AddColumn("name").
		AddColumn("students_id", column.AsKey()).
		AddColumn("students_name").
		AddColumn("students_phones_value").
		Build()
	require.NoError(t, err)

	return m
}

func TestMapper_Collect(t *testing.T) {
	t.Parallel()

	f := newFactory(t)
	m := professorMapper(t, f)

	profs, err := m.Collect(context.Background(), source.FromRows(joinRows))
	require.NoError(t, err)

	assert.Equal(t, []professor{
		{ID: 1, Name: "professor1", Students: []student{
			{ID: 3, Name: "student3", Phones: []string{"phone31", "phone32"}},
			{ID: 4, Name: "student4", Phones: []string{"phone41"}},
		}},
		{ID: 2, Name: "professor2", Students: []student{
			{ID: 4, Name: "student4", Phones: []string{"phone51", "phone52"}},
		}},
		{ID: 3, Name: "professor3"},
	}, profs, spew.Sdump(profs))

	assert.Equal(t, float64(6), testutil.ToFloat64(f.Metrics().Rows))
	assert.Equal(t, float64(3), testutil.ToFloat64(f.Metrics().Objects))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.Metrics().PlansBuilt))
}

func TestMapper_FactoryKeys(t *testing.T) {
	t.Parallel()

	f := newFactory(t, WithKeys("id", "students_id"))

	m, err := NewBuilder[professor](f).
		AddColumn("id").
		AddColumn("name").
		AddColumn("students_id").
		AddColumn("students_name").
		AddColumn("students_phones_value").
		Build()
	require.NoError(t, err)

	profs, err := m.Collect(context.Background(), source.FromRows(joinRows))
	require.NoError(t, err)
	require.Len(t, profs, 3)
	assert.Len(t, profs[0].Students, 2)
}

func TestMapper_SkipAndLimit(t *testing.T) {
	t.Parallel()

	m := professorMapper(t, newFactory(t))

	tests := []struct {
		name  string
		opts  []ReadOption
		names []string
	}{
		{name: "all", names: []string{"professor1", "professor2", "professor3"}},
		{name: "skip", opts: []ReadOption{WithSkip(3)}, names: []string{"professor2", "professor3"}},
		{name: "limit", opts: []ReadOption{WithLimit(4)}, names: []string{"professor1", "professor2"}},
		{name: "skip and limit", opts: []ReadOption{WithSkip(1), WithLimit(1)}, names: []string{"professor1"}},
		{name: "skip everything", opts: []ReadOption{WithSkip(10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			profs, err := m.Collect(context.Background(), source.FromRows(joinRows), tt.opts...)
			require.NoError(t, err)

			var names []string
			for _, p := range profs {
				names = append(names, p.Name)
			}

			assert.Equal(t, tt.names, names)
		})
	}
}

func TestMapper_LimitCompletesPendingObject(t *testing.T) {
	t.Parallel()

	m := professorMapper(t, newFactory(t))

	profs, err := m.Collect(context.Background(), source.FromRows(joinRows), WithLimit(1))
	require.NoError(t, err)
	require.Len(t, profs, 1)
	assert.Equal(t, []student{{ID: 3, Name: "student3", Phones: []string{"phone31"}}}, profs[0].Students)
}

func TestMapper_All(t *testing.T) {
	t.Parallel()

	m := professorMapper(t, newFactory(t))

	var names []string
	for p, err := range m.All(context.Background(), source.FromRows(joinRows)) {
		require.NoError(t, err)

		names = append(names, p.Name)
		if len(names) == 2 {
			break
		}
	}

	assert.Equal(t, []string{"professor1", "professor2"}, names)
}

func TestMapper_AllYieldsError(t *testing.T) {
	t.Parallel()

	m, err := NewBuilder[event](newFactory(t)).AddColumn("id").AddColumn("name").Build()
	require.NoError(t, err)

	var errs []error
	for _, err := range m.All(context.Background(), source.FromRows([][]string{{"1", "a"}, {"x", "b"}})) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	require.Len(t, errs, 1)

	var cellErr *maperr.CellParseError
	require.ErrorAs(t, errs[0], &cellErr)
	assert.Equal(t, "x", cellErr.Raw)
	assert.Equal(t, column.NewKey("id", 0), cellErr.Column)
}

func TestMapper_FieldErrorHandlers(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"1", "a"}, {"x", "b"}}

	tests := []struct {
		name    string
		handler FieldErrorHandler
		ids     []int
		wantErr bool
	}{
		{name: "rethrow", handler: RethrowFieldErrors(), wantErr: true},
		{name: "ignore", handler: IgnoreFieldErrors(), ids: []int{1, 0}},
		{name: "substitute", handler: SubstituteFieldErrors(-1), ids: []int{1, -1}},
		{name: "logged", handler: LogFieldErrors(log.NewNopLogger(), SubstituteFieldErrors(7)), ids: []int{1, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFactory(t, WithFieldErrorHandler(tt.handler))
			m, err := NewBuilder[event](f).AddColumn("id").AddColumn("name").Build()
			require.NoError(t, err)

			events, err := m.Collect(context.Background(), source.FromRows(rows))
			assert.Equal(t, float64(1), testutil.ToFloat64(f.Metrics().CellErrors))

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)

			var ids []int
			for _, e := range events {
				ids = append(ids, e.ID)
			}

			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestMapper_RowErrors(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"1", "a"}, {"2", "b"}, {"3", "c"}}
	boom := errors.New("boom")

	fail := func(e event) error {
		if e.ID == 2 {
			return boom
		}

		return nil
	}

	t.Run("rethrow", func(t *testing.T) {
		t.Parallel()

		m, err := NewBuilder[event](newFactory(t)).AddColumn("id").AddColumn("name").Build()
		require.NoError(t, err)

		err = m.ForEach(context.Background(), source.FromRows(rows), fail)
		require.ErrorIs(t, err, boom)

		var rowErr *maperr.RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 2, rowErr.Row)
	})

	t.Run("ignore", func(t *testing.T) {
		t.Parallel()

		f := newFactory(t, WithRowErrorHandler(IgnoreRowErrors(log.NewNopLogger())))
		m, err := NewBuilder[event](f).AddColumn("id").AddColumn("name").Build()
		require.NoError(t, err)

		seen := 0
		err = m.ForEach(context.Background(), source.FromRows(rows), func(e event) error {
			seen++
			return fail(e)
		})
		require.NoError(t, err)
		assert.Equal(t, 3, seen)
	})
}

func TestMapper_ContextCanceled(t *testing.T) {
	t.Parallel()

	m, err := NewBuilder[event](newFactory(t)).AddColumn("id").Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	seen := 0
	err = m.ForEach(ctx, source.FromRows([][]string{{"1"}, {"2"}, {"3"}}), func(event) error {
		seen++
		cancel()
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, seen)
}

func TestMapper_DefaultDateFormat(t *testing.T) {
	t.Parallel()

	f := newFactory(t, WithDefaultDateFormat("02/01/2006"), WithTimeZone(time.UTC))

	m, err := NewBuilder[event](f).
		AddColumn("id").
		AddColumn("at").
		Build()
	require.NoError(t, err)

	events, err := m.Collect(context.Background(), source.FromRows([][]string{{"1", "24/12/2020"}}))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2020, 12, 24, 0, 0, 0, 0, time.UTC), events[0].At)
}

func TestMapper_ColumnAt(t *testing.T) {
	t.Parallel()

	m, err := NewBuilder[event](newFactory(t)).
		AddColumnAt("name", 2).
		AddColumnAt("id", 0).
		Build()
	require.NoError(t, err)

	events, err := m.Collect(context.Background(), source.FromRows([][]string{{"5", "ignored", "five"}}))
	require.NoError(t, err)
	assert.Equal(t, []event{{ID: 5, Name: "five"}}, events)
}

func TestMapper_BuildErrors(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder[event](newFactory(t)).
		AddColumn("idd").
		AddColumn("nmae").
		Build()
	require.Error(t, err)

	var unresolved *maperr.UnresolvedPropertyError
	require.ErrorAs(t, err, &unresolved)
	assert.ErrorContains(t, err, "nmae")
}

func TestMapper_ForEachParallel(t *testing.T) {
	t.Parallel()

	m := professorMapper(t, newFactory(t))

	srcs := make([]source.Tokenizer, 8)
	for i := range srcs {
		srcs[i] = source.FromRows(joinRows)
	}

	var (
		mu     sync.Mutex
		counts = map[string]int{}
	)

	err := m.ForEachParallel(context.Background(), srcs, func(p professor) error {
		mu.Lock()
		defer mu.Unlock()

		counts[p.Name]++
		return nil
	}, WithConcurrency(3))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"professor1": 8, "professor2": 8, "professor3": 8}, counts)
}

func TestMapper_ForEachParallelStopsOnError(t *testing.T) {
	t.Parallel()

	m := professorMapper(t, newFactory(t))
	boom := errors.New("boom")

	err := m.ForEachParallel(context.Background(), []source.Tokenizer{
		source.FromRows(joinRows),
		source.FromRows(joinRows),
	}, func(professor) error { return boom })

	require.ErrorIs(t, err, boom)
}

func TestWindow(t *testing.T) {
	t.Parallel()

	var rec recorder
	w := &window{next: &rec, skip: 1, limit: 2}

	err := source.ReadAll(source.FromRows([][]string{{"a"}, {"b"}, {"c"}, {"d"}}), w)
	require.ErrorIs(t, err, errLimit)
	assert.Equal(t, []string{"b", "c"}, rec.cells)
	assert.Equal(t, 3, w.row)
}

type recorder struct {
	cells []string
}

func (r *recorder) NewCell(_ int, cell []byte) error {
	r.cells = append(r.cells, string(cell))
	return nil
}

func (r *recorder) EndOfRow() error { return nil }
