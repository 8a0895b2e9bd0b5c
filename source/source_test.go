package source

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	rows [][]string
	cur  []string
	fail error
}

func (r *recorder) NewCell(index int, cell []byte) error {
	if r.fail != nil {
		return r.fail
	}

	r.cur = append(r.cur, string(cell))

	return nil
}

func (r *recorder) EndOfRow() error {
	r.rows = append(r.rows, r.cur)
	r.cur = nil

	return nil
}

type fixedHeader struct {
	*Rows
}

func (fixedHeader) Header() ([]string, error) { return []string{"a", "b"}, nil }

func TestReadAll(t *testing.T) {
	t.Parallel()

	var rec recorder
	require.NoError(t, ReadAll(FromRows([][]string{{"1", "2"}, {"3"}}), &rec))
	assert.Equal(t, [][]string{{"1", "2"}, {"3"}}, rec.rows)

	errCell := errors.New("cell")
	err := ReadAll(FromRows([][]string{{"1"}}), &recorder{fail: errCell})
	assert.ErrorIs(t, err, errCell)
}

func TestReadHeader(t *testing.T) {
	t.Parallel()

	rows := FromRows([][]string{{"id", "name"}, {"1", "x"}})

	header, err := ReadHeader(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, header)

	var rec recorder
	require.NoError(t, ReadAll(rows, &rec))
	assert.Equal(t, [][]string{{"1", "x"}}, rec.rows)

	header, err = ReadHeader(fixedHeader{FromRows(nil)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, header)

	_, err = ReadHeader(FromRows(nil))
	assert.ErrorIs(t, err, io.EOF)
}
