// Package sqlsource reads rows from database/sql result sets. Column
// names come from the cursor, so dynamic mappers need no header row.
package sqlsource

import (
	"context"
	"database/sql"
	"io"

	"github.com/pkg/errors"

	"flat-mapper/source"
)

// Rows is a source.Tokenizer and source.HeaderProvider over *sql.Rows.
// NULL values are delivered as empty cells.
type Rows struct {
	rows *sql.Rows
	buf  []sql.RawBytes
	dest []any
}

// New wraps rows. The caller keeps ownership and closes them.
func New(rows *sql.Rows) *Rows {
	return &Rows{rows: rows}
}

// Query runs query on db and wraps the result. Close releases it.
func Query(ctx context.Context, db *sql.DB, query string, args ...any) (*Rows, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}

	return New(rows), nil
}

// Header implements source.HeaderProvider.
func (r *Rows) Header() ([]string, error) {
	cols, err := r.rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "reading result columns")
	}

	return cols, nil
}

// ReadRow implements source.Tokenizer.
func (r *Rows) ReadRow(c source.CellConsumer) error {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return errors.Wrap(err, "advancing result set")
		}

		return io.EOF
	}

	if r.dest == nil {
		cols, err := r.Header()
		if err != nil {
			return err
		}

		r.buf = make([]sql.RawBytes, len(cols))
		r.dest = make([]any, len(cols))

		for i := range r.buf {
			r.dest[i] = &r.buf[i]
		}
	}

	if err := r.rows.Scan(r.dest...); err != nil {
		return errors.Wrap(err, "scanning row")
	}

	for i, cell := range r.buf {
		if err := c.NewCell(i, cell); err != nil {
			return err
		}
	}

	return c.EndOfRow()
}

// Close closes the underlying rows.
func (r *Rows) Close() error {
	return r.rows.Close()
}
