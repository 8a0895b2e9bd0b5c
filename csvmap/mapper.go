package csvmap

import (
	"context"
	"errors"
	"io"
	"iter"
	"reflect"

	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"flat-mapper/internal/codec"
	"flat-mapper/internal/row"
	"flat-mapper/maperr"
	"flat-mapper/source"
)

var (
	errStop  = errors.New("csvmap: iteration stopped")
	errLimit = errors.New("csvmap: row limit reached")
)

// Mapper maps rows to values of T with a fixed column layout. A mapper is
// immutable and safe for concurrent use; every stream gets its own state.
type Mapper[T any] struct {
	f    *Factory
	plan *row.Plan
}

// ReadOption configures a single read.
type ReadOption func(*readOptions)

type readOptions struct {
	skip        int
	limit       int
	concurrency int
}

// WithSkip skips the first n data rows.
func WithSkip(n int) ReadOption {
	return func(o *readOptions) {
		o.skip = n
	}
}

// WithLimit stops after n data rows, not counting skipped ones.
// Objects still pending at that point are completed.
func WithLimit(n int) ReadOption {
	return func(o *readOptions) {
		o.limit = n
	}
}

// WithConcurrency bounds how many sources ForEachParallel reads at once.
func WithConcurrency(n int) ReadOption {
	return func(o *readOptions) {
		o.concurrency = n
	}
}

func newReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// ForEach reads every row of src and calls fn with each completed object,
// in stream order. It stops at the first error that the row error handler
// does not swallow, or when ctx is done.
func (m *Mapper[T]) ForEach(ctx context.Context, src source.Tokenizer, fn func(T) error, opts ...ReadOption) error {
	return run(ctx, m.f, m.plan, src, fn, newReadOptions(opts))
}

// All returns an iterator over the objects of src. A failure is yielded
// once, with a zero value, and ends the iteration.
func (m *Mapper[T]) All(ctx context.Context, src source.Tokenizer, opts ...ReadOption) iter.Seq2[T, error] {
	return all(func(fn func(T) error) error {
		return m.ForEach(ctx, src, fn, opts...)
	})
}

// Collect returns every object of src.
func (m *Mapper[T]) Collect(ctx context.Context, src source.Tokenizer, opts ...ReadOption) ([]T, error) {
	return collect(func(fn func(T) error) error {
		return m.ForEach(ctx, src, fn, opts...)
	})
}

// ForEachParallel maps every source in its own goroutine. fn may be called
// concurrently; objects of one source are still delivered in order.
func (m *Mapper[T]) ForEachParallel(ctx context.Context, srcs []source.Tokenizer, fn func(T) error, opts ...ReadOption) error {
	o := newReadOptions(opts)

	g, ctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	for _, src := range srcs {
		g.Go(func() error {
			return run(ctx, m.f, m.plan, src, fn, o)
		})
	}

	return g.Wait()
}

// String describes the mapping plan.
func (m *Mapper[T]) String() string {
	return m.plan.String()
}

func run[T any](ctx context.Context, f *Factory, p *row.Plan, src source.Tokenizer, fn func(T) error, o readOptions) error {
	w := &window{skip: o.skip, limit: o.limit}

	objects := 0
	st := row.NewState(p, codec.NewContext(p.Width), func(v reflect.Value) error {
		objects++
		f.metrics.Objects.Inc()

		obj, _ := v.Interface().(T)

		err := fn(obj)
		if err == nil || errors.Is(err, errStop) {
			return err
		}

		return f.rowErrors.HandleRowError(&maperr.RowError{Row: w.current, Cause: err})
	})
	w.next = st

	defer func() {
		f.metrics.Rows.Add(float64(w.row))
		level.Debug(f.logger).Log("msg", "stream finished", "rows", w.row, "objects", objects)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := src.ReadRow(w)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, errLimit):
			return st.Flush()
		default:
			return err
		}
	}
}

func all[T any](forEach func(fn func(T) error) error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		err := forEach(func(v T) error {
			if !yield(v, nil) {
				return errStop
			}

			return nil
		})

		if err != nil && !errors.Is(err, errStop) {
			var zero T
			yield(zero, err)
		}
	}
}

func collect[T any](forEach func(fn func(T) error) error) ([]T, error) {
	var out []T

	err := forEach(func(v T) error {
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// window applies skip and limit to the rows of a stream and tracks the
// 1-based number of the row being read.
type window struct {
	next source.CellConsumer

	skip  int
	limit int

	row     int
	current int
}

func (w *window) skipping() bool {
	return w.row < w.skip
}

func (w *window) exhausted() bool {
	return w.limit > 0 && w.row-w.skip >= w.limit
}

func (w *window) NewCell(index int, cell []byte) error {
	if w.exhausted() {
		return errLimit
	}

	w.current = w.row + 1
	if w.skipping() {
		return nil
	}

	return w.next.NewCell(index, cell)
}

func (w *window) EndOfRow() error {
	if w.exhausted() {
		return errLimit
	}

	w.row++
	w.current = w.row
	if w.row <= w.skip {
		return nil
	}

	return w.next.EndOfRow()
}
