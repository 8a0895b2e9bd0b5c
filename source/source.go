// Package source declares the tokenizer side of a mapping: anything that
// can push the cells of a row, one at a time, into a CellConsumer.
//
// Concrete adapters live in sub-packages: csvsource (encoding/csv),
// sqlsource (database/sql cursors) and xlsxsource (spreadsheets).
package source

import (
	"errors"
	"io"
)

// CellConsumer receives the cells of a row in column order.
type CellConsumer interface {
	// NewCell handles the cell at index. The slice is only valid during the call.
	NewCell(index int, cell []byte) error
	// EndOfRow completes the current row.
	EndOfRow() error
}

// Tokenizer reads rows.
type Tokenizer interface {
	// ReadRow feeds the cells of the next row to c and ends it. It returns
	// io.EOF, and calls nothing on c, when there are no rows left.
	ReadRow(c CellConsumer) error
}

// HeaderProvider is implemented by tokenizers that know their column names
// without reading a row, such as database cursors. ReadRow then returns
// data rows only.
type HeaderProvider interface {
	Header() ([]string, error)
}

// ReadAll feeds every remaining row of t to c.
func ReadAll(t Tokenizer, c CellConsumer) error {
	for {
		err := t.ReadRow(c)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}

// ReadHeader returns the column names of t: from Header when t is a
// HeaderProvider, otherwise from its first row.
func ReadHeader(t Tokenizer) ([]string, error) {
	if hp, ok := t.(HeaderProvider); ok {
		return hp.Header()
	}

	var h header
	if err := t.ReadRow(&h); err != nil {
		return nil, err
	}

	return h.names, nil
}

type header struct {
	names []string
}

func (h *header) NewCell(index int, cell []byte) error {
	for len(h.names) <= index {
		h.names = append(h.names, "")
	}

	h.names[index] = string(cell)

	return nil
}

func (h *header) EndOfRow() error { return nil }

// Rows is an in-memory tokenizer over string rows.
type Rows struct {
	rows [][]string
	next int
}

// FromRows returns a tokenizer reading rows in order.
func FromRows(rows [][]string) *Rows {
	return &Rows{rows: rows}
}

// ReadRow implements Tokenizer.
func (r *Rows) ReadRow(c CellConsumer) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}

	cells := r.rows[r.next]
	r.next++

	for i, cell := range cells {
		if err := c.NewCell(i, []byte(cell)); err != nil {
			return err
		}
	}

	return c.EndOfRow()
}
