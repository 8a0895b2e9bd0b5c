package csvmap

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"flat-mapper/column"
	"flat-mapper/internal/codec"
	"flat-mapper/internal/diagnostic"
	"flat-mapper/internal/mapping"
	"flat-mapper/internal/match"
	"flat-mapper/internal/meta"
	"flat-mapper/internal/plan"
)

// MatchStrategy selects how column names are compared with property names.
type MatchStrategy = match.Strategy

const (
	// MatchNormalized ignores case and separators. It is the default.
	MatchNormalized = match.Normalized
	// MatchCaseInsensitive ignores case only.
	MatchCaseInsensitive = match.CaseInsensitive
	// MatchExact requires identical names.
	MatchExact = match.Exact
)

// Factory holds the configuration shared by every mapper built from it:
// constructors, decoders, column defaults and error policies.
// A factory is safe for concurrent use once created.
type Factory struct {
	ctors    *meta.Registry
	codecs   *codec.Registry
	resolver *meta.Resolver

	strategy   MatchStrategy
	dateFormat string
	location   *time.Location
	keys       []string
	columns    []namedDefinition

	fieldErrors FieldErrorHandler
	rowErrors   RowErrorHandler
	logger      log.Logger
	registerer  prometheus.Registerer
	metrics     *Metrics

	errs []error
}

type namedDefinition struct {
	name string
	def  column.Definition
}

// Option configures a Factory.
type Option func(*Factory)

// NewFactory returns a factory configured by opts. Options are applied in
// order; errors from every option are returned together.
func NewFactory(opts ...Option) (*Factory, error) {
	ctors := meta.NewRegistry()

	f := &Factory{
		ctors:       ctors,
		codecs:      codec.NewRegistry(ctors),
		strategy:    MatchNormalized,
		fieldErrors: RethrowFieldErrors(),
		rowErrors:   RethrowRowErrors(),
		logger:      log.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if err := errors.Join(f.errs...); err != nil {
		return nil, err
	}

	if f.registerer == nil {
		f.registerer = prometheus.NewRegistry()
	}

	f.metrics = NewMetrics(f.registerer)
	f.resolver = meta.NewResolver(f.ctors, f.codecs, f.strategy)

	return f, nil
}

// WithKeys marks the named columns as join keys in every mapper.
func WithKeys(names ...string) Option {
	return func(f *Factory) {
		f.keys = append(f.keys, names...)
	}
}

// WithColumnDefinition attaches defs to every column resolving from name.
func WithColumnDefinition(name string, defs ...column.Definition) Option {
	return func(f *Factory) {
		f.columns = append(f.columns, namedDefinition{name: name, def: column.Compose(defs...)})
	}
}

// WithDefaultDateFormat sets the layout of time columns without their own format.
func WithDefaultDateFormat(layout string) Option {
	return func(f *Factory) {
		f.dateFormat = layout
	}
}

// WithTimeZone sets the location of time columns without their own zone.
func WithTimeZone(loc *time.Location) Option {
	return func(f *Factory) {
		f.location = loc
	}
}

// WithMatchStrategy sets how column names are matched to properties.
func WithMatchStrategy(s MatchStrategy) Option {
	return func(f *Factory) {
		f.strategy = s
	}
}

// WithConstructor registers fn as the constructor of the struct it returns.
// params name its parameters in order; columns resolve against those names.
func WithConstructor(fn any, params ...string) Option {
	return func(f *Factory) {
		if _, err := f.ctors.Register(fn, params...); err != nil {
			f.errs = append(f.errs, err)
		}
	}
}

// WithDecoder decodes every column of type t with d.
func WithDecoder(t reflect.Type, d column.Decoder) Option {
	return func(f *Factory) {
		f.codecs.Register(t, d)
	}
}

// WithDecoderFunc decodes every column of type T with fn.
func WithDecoderFunc[T any](fn func(cell []byte) (T, error)) Option {
	return WithDecoder(reflect.TypeFor[T](), column.DecoderFunc(func(cell []byte) (any, error) {
		return fn(cell)
	}))
}

// WithFieldErrorHandler sets the policy for cells that cannot be decoded.
func WithFieldErrorHandler(h FieldErrorHandler) Option {
	return func(f *Factory) {
		f.fieldErrors = h
	}
}

// WithRowErrorHandler sets the policy for errors returned by callbacks.
func WithRowErrorHandler(h RowErrorHandler) Option {
	return func(f *Factory) {
		f.rowErrors = h
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithRegisterer registers the factory metrics with reg instead of a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(f *Factory) {
		f.registerer = reg
	}
}

// WithConfig applies a YAML column configuration document.
func WithConfig(data []byte) Option {
	return func(f *Factory) {
		file, err := mapping.Parse(data)
		if err != nil {
			f.errs = append(f.errs, err)
			return
		}

		f.applyConfig(file)
	}
}

// WithConfigFile applies the YAML column configuration file at path.
func WithConfigFile(path string) Option {
	return func(f *Factory) {
		file, err := mapping.LoadFile(path)
		if err != nil {
			f.errs = append(f.errs, err)
			return
		}

		f.applyConfig(file)
	}
}

func (f *Factory) applyConfig(file *mapping.File) {
	cfg, err := mapping.Compile(file)
	if err != nil {
		f.errs = append(f.errs, fmt.Errorf("column config: %w", err))
		return
	}

	if cfg.DateFormat != "" {
		f.dateFormat = cfg.DateFormat
	}

	if cfg.Location != nil {
		f.location = cfg.Location
	}

	if cfg.HasStrategy {
		f.strategy = cfg.Strategy
	}

	f.keys = append(f.keys, cfg.Keys...)

	for _, c := range file.Columns {
		f.columns = append(f.columns, namedDefinition{name: c.Name, def: cfg.Columns[c.Name]})
	}
}

// Metrics returns the metrics of the factory.
func (f *Factory) Metrics() *Metrics {
	return f.metrics
}

// definition composes the definition of column name: factory defaults
// first, then factory keys and per-name definitions, then explicit defs.
func (f *Factory) definition(name string, explicit ...column.Definition) column.Definition {
	defs := make([]column.Definition, 0, len(explicit)+4)

	if f.dateFormat != "" {
		defs = append(defs, column.DateFormat(f.dateFormat))
	}

	if f.location != nil {
		defs = append(defs, column.TimeZone(f.location))
	}

	for _, k := range f.keys {
		if f.strategy.Equal(name, k) {
			defs = append(defs, column.AsKey())
			break
		}
	}

	for _, c := range f.columns {
		if f.strategy.Equal(name, c.name) {
			defs = append(defs, c.def)
		}
	}

	defs = append(defs, explicit...)

	return column.Compose(defs...)
}

func (f *Factory) planConfig() plan.Config {
	return plan.Config{
		Resolver:    f.resolver,
		Codecs:      f.codecs,
		FieldErrors: countingFieldErrors{next: f.fieldErrors, counter: f.metrics.CellErrors},
	}
}

func (f *Factory) logDiagnostics(shape reflect.Type, d diagnostic.Diagnostics) {
	for _, w := range d.Warnings {
		level.Warn(f.logger).Log("msg", "mapping diagnostic", "type", shape, "code", w.Code, "column", w.Column, "detail", w.Message)
	}

	for _, i := range d.Infos {
		level.Debug(f.logger).Log("msg", "mapping diagnostic", "type", shape, "code", i.Code, "column", i.Column, "detail", i.Message)
	}
}
