// Package csvsource reads rows with encoding/csv.
package csvsource

import (
	"encoding/csv"
	"errors"
	"io"

	pkgerrors "github.com/pkg/errors"

	"flat-mapper/source"
)

// Reader is a source.Tokenizer over CSV input.
type Reader struct {
	r    *csv.Reader
	line int
}

// Option configures a Reader.
type Option func(*csv.Reader)

// WithComma sets the field delimiter.
func WithComma(r rune) Option {
	return func(c *csv.Reader) {
		c.Comma = r
	}
}

// WithComment sets the comment character; lines starting with it are skipped.
func WithComment(r rune) Option {
	return func(c *csv.Reader) {
		c.Comment = r
	}
}

// WithLazyQuotes allows quotes in unquoted fields.
func WithLazyQuotes() Option {
	return func(c *csv.Reader) {
		c.LazyQuotes = true
	}
}

// WithTrimLeadingSpace ignores leading white space in fields.
func WithTrimLeadingSpace() Option {
	return func(c *csv.Reader) {
		c.TrimLeadingSpace = true
	}
}

// New returns a reader over r. Rows may have different numbers of fields.
func New(r io.Reader, opts ...Option) *Reader {
	c := csv.NewReader(r)
	c.FieldsPerRecord = -1
	c.ReuseRecord = true

	for _, opt := range opts {
		opt(c)
	}

	return &Reader{r: c}
}

// ReadRow implements source.Tokenizer.
func (r *Reader) ReadRow(c source.CellConsumer) error {
	record, err := r.r.Read()
	if errors.Is(err, io.EOF) {
		return io.EOF
	}

	if err != nil {
		return pkgerrors.Wrapf(err, "reading csv record %d", r.line+1)
	}

	r.line++

	for i, cell := range record {
		if err := c.NewCell(i, []byte(cell)); err != nil {
			return err
		}
	}

	return c.EndOfRow()
}
