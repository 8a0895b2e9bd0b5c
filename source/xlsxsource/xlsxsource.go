// Package xlsxsource reads rows from a worksheet of a spreadsheet file.
package xlsxsource

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"flat-mapper/source"
)

// Sheet is a source.Tokenizer over the rows of one worksheet. Trailing
// empty cells of a row are not delivered.
type Sheet struct {
	rows *excelize.Rows
	opts excelize.Options
	name string
}

// Option configures a Sheet.
type Option func(*Sheet)

// WithRawValues delivers stored cell values instead of formatted text.
func WithRawValues() Option {
	return func(s *Sheet) {
		s.opts.RawCellValue = true
	}
}

// Open returns a reader over the worksheet name of f. An empty name
// selects the first worksheet.
func Open(f *excelize.File, name string, opts ...Option) (*Sheet, error) {
	if name == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, errors.New("workbook has no worksheets")
		}

		name = list[0]
	}

	rows, err := f.Rows(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening worksheet %q", name)
	}

	s := &Sheet{rows: rows, name: name}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// ReadRow implements source.Tokenizer.
func (s *Sheet) ReadRow(c source.CellConsumer) error {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return errors.Wrapf(err, "reading worksheet %q", s.name)
		}

		return io.EOF
	}

	cells, err := s.rows.Columns(s.opts)
	if err != nil {
		return errors.Wrapf(err, "reading worksheet %q", s.name)
	}

	for i, cell := range cells {
		if err := c.NewCell(i, []byte(cell)); err != nil {
			return err
		}
	}

	return c.EndOfRow()
}

// Close releases the row iterator.
func (s *Sheet) Close() error {
	return s.rows.Close()
}
