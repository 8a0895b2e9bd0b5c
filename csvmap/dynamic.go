package csvmap

import (
	"context"
	"errors"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"flat-mapper/internal/cache"
	"flat-mapper/internal/row"
	"flat-mapper/source"
)

// DynamicMapper maps sources that start with a header row. The column
// layout comes from the header; plans are cached per distinct header.
type DynamicMapper[T any] struct {
	f     *Factory
	plans cache.Cache[string, *row.Plan]
}

// NewDynamicMapper returns a header-driven mapper for T.
func NewDynamicMapper[T any](f *Factory) *DynamicMapper[T] {
	return &DynamicMapper[T]{f: f}
}

// Mapper returns the mapper for header, building its plan on first use.
// Empty names leave their column unmapped.
func (d *DynamicMapper[T]) Mapper(header ...string) (*Mapper[T], error) {
	key := headerKey(header)

	p, hit, err := d.plans.GetOrAdd(key, func() (*row.Plan, error) {
		b := NewBuilder[T](d.f)
		for i, name := range header {
			if name != "" {
				b.AddColumnAt(name, i)
			}
		}

		m, err := b.Build()
		if err != nil {
			return nil, err
		}

		return m.plan, nil
	})
	if err != nil {
		return nil, err
	}

	if hit {
		d.f.metrics.PlanCacheLookups.WithLabelValues("hit").Inc()
	} else {
		d.f.metrics.PlanCacheLookups.WithLabelValues("miss").Inc()
		level.Debug(d.f.logger).Log("msg", "plan cached", "header", strings.Join(header, ","), "plans", d.plans.Len())
	}

	return &Mapper[T]{f: d.f, plan: p}, nil
}

// headerKey identifies a header; names are quoted so no two headers share a key.
func headerKey(header []string) string {
	var sb strings.Builder
	for _, name := range header {
		sb.WriteString(strconv.Quote(name))
	}

	return sb.String()
}

// ForEach reads the header of src, then maps the remaining rows. Skip and
// limit count data rows only. An empty source yields nothing.
func (d *DynamicMapper[T]) ForEach(ctx context.Context, src source.Tokenizer, fn func(T) error, opts ...ReadOption) error {
	header, err := source.ReadHeader(src)
	if errors.Is(err, io.EOF) {
		return nil
	}

	if err != nil {
		return err
	}

	m, err := d.Mapper(header...)
	if err != nil {
		return err
	}

	return m.ForEach(ctx, src, fn, opts...)
}

// All returns an iterator over the objects of src.
func (d *DynamicMapper[T]) All(ctx context.Context, src source.Tokenizer, opts ...ReadOption) iter.Seq2[T, error] {
	return all(func(fn func(T) error) error {
		return d.ForEach(ctx, src, fn, opts...)
	})
}

// Collect returns every object of src.
func (d *DynamicMapper[T]) Collect(ctx context.Context, src source.Tokenizer, opts ...ReadOption) ([]T, error) {
	return collect(func(fn func(T) error) error {
		return d.ForEach(ctx, src, fn, opts...)
	})
}

// ForEachParallel maps every source in its own goroutine. Sources may have
// different headers.
func (d *DynamicMapper[T]) ForEachParallel(ctx context.Context, srcs []source.Tokenizer, fn func(T) error, opts ...ReadOption) error {
	o := newReadOptions(opts)

	g, ctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	for _, src := range srcs {
		g.Go(func() error {
			return d.ForEach(ctx, src, fn, opts...)
		})
	}

	return g.Wait()
}
