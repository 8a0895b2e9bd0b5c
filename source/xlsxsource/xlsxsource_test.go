package xlsxsource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"flat-mapper/csvmap"
	"flat-mapper/source"
)

type shipment struct {
	ID      int
	Carrier string
	Weight  float64
	Shipped time.Time
}

func workbook(t *testing.T, rows [][]any) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = out.Close() })

	return out
}

func TestSheet_Rows(t *testing.T) {
	t.Parallel()

	f := workbook(t, [][]any{
		{"id", "carrier", "weight", "shipped"},
		{1, "acme", 2.5, "2024-05-01"},
		{2, "globex", 10, "2024-05-02"},
	})

	s, err := Open(f, "")
	require.NoError(t, err)
	defer s.Close()

	header, err := source.ReadHeader(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "carrier", "weight", "shipped"}, header)

	fc, err := csvmap.NewFactory(csvmap.WithDefaultDateFormat(time.DateOnly))
	require.NoError(t, err)

	m, err := csvmap.NewDynamicMapper[shipment](fc).Mapper(header...)
	require.NoError(t, err)

	shipments, err := m.Collect(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []shipment{
		{ID: 1, Carrier: "acme", Weight: 2.5, Shipped: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Carrier: "globex", Weight: 10, Shipped: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
	}, shipments)
}

func TestSheet_RawValues(t *testing.T) {
	t.Parallel()

	f := workbook(t, [][]any{{"flag", true}})

	s, err := Open(f, "Sheet1", WithRawValues())
	require.NoError(t, err)
	defer s.Close()

	var cells []string
	err = source.ReadAll(s, cellFunc(func(_ int, b []byte) { cells = append(cells, string(b)) }))
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "1"}, cells)
}

func TestOpen_MissingSheet(t *testing.T) {
	t.Parallel()

	_, err := Open(workbook(t, nil), "Nope")
	assert.ErrorContains(t, err, `opening worksheet "Nope"`)
}

type cellFunc func(int, []byte)

func (f cellFunc) NewCell(i int, b []byte) error {
	f(i, b)
	return nil
}

func (f cellFunc) EndOfRow() error { return nil }
