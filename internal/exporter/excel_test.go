package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mergecli/internal/table"
)

func emptyTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(table.NewStringColumn("UPC", nil, nil))
	require.NoError(t, err)
	return tbl
}

func TestExportXLSX(t *testing.T) {
	view, err := table.New(
		table.NewStringColumn("UPC", []string{"100", "200"}, nil),
		table.NewFloatColumn("Price", []float64{1.99, 3.49}, nil),
	)
	require.NoError(t, err)

	unmatched, err := table.New(
		table.NewStringColumn("UPC", []string{"400"}, nil),
	)
	require.NoError(t, err)

	res, err := Export(view, FormatXLSX, &Aux{
		UnmatchedA: emptyTable(t),
		UnmatchedB: unmatched,
	})
	require.NoError(t, err)
	assert.Equal(t, "merged_export.xlsx", res.Filename)
	assert.Equal(t, xlsxMIME, res.MIMEType)

	f, err := excelize.OpenReader(bytes.NewReader(res.Bytes))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetMerged, sheetUnmatchedPOS, sheetUnmatchedSupplier},
		f.GetSheetList())

	rows, err := f.GetRows(sheetMerged)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"UPC", "Price"}, rows[0])
	assert.Equal(t, "100", rows[1][0])

	// Empty side renders the placeholder, not an empty sheet.
	rows, err = f.GetRows(sheetUnmatchedPOS)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Message", rows[0][0])
	assert.Equal(t, "No unmatched POS records", rows[1][0])

	rows, err = f.GetRows(sheetUnmatchedSupplier)
	require.NoError(t, err)
	assert.Equal(t, "400", rows[1][0])
}

func TestExportXLSXEmptyView(t *testing.T) {
	res, err := Export(emptyTable(t), FormatXLSX, &Aux{
		UnmatchedA: emptyTable(t),
		UnmatchedB: emptyTable(t),
	})
	require.NoError(t, err, "an all-empty merge still exports")

	f, err := excelize.OpenReader(bytes.NewReader(res.Bytes))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetMerged)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "No merged data available", rows[1][0])
}

func TestExportXLSXRequiresAux(t *testing.T) {
	_, err := Export(emptyTable(t), FormatXLSX, nil)
	require.Error(t, err)
}
