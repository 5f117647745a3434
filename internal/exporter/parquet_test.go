package exporter

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mergecli/internal/table"
)

func TestExportParquet(t *testing.T) {
	view, err := table.New(
		table.NewStringColumn("UPC", []string{"100", "200"}, nil),
		table.NewIntColumn("Qty", []int64{5, 0}, []bool{true, false}),
		table.NewFloatColumn("Price", []float64{1.99, 3.49}, nil),
		table.NewBoolColumn("Active", []bool{true, false}, nil),
	)
	require.NoError(t, err)

	res, err := Export(view, FormatParquet, nil)
	require.NoError(t, err)
	assert.Equal(t, "merged_export.parquet", res.Filename)
	require.NotEmpty(t, res.Bytes)

	rdr, err := file.NewParquetReader(bytes.NewReader(res.Bytes))
	require.NoError(t, err)
	defer rdr.Close()

	assert.EqualValues(t, 2, rdr.NumRows())

	schema := rdr.MetaData().Schema
	require.Equal(t, 4, schema.NumColumns())
	assert.Equal(t, "UPC", schema.Column(0).Name())
	assert.Equal(t, "Qty", schema.Column(1).Name())
	assert.Equal(t, "Price", schema.Column(2).Name())
	assert.Equal(t, "Active", schema.Column(3).Name())
}

func TestExportParquetEmptyView(t *testing.T) {
	view, err := table.New(table.NewStringColumn("UPC", nil, nil))
	require.NoError(t, err)

	res, err := Export(view, FormatParquet, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Bytes)

	rdr, err := file.NewParquetReader(bytes.NewReader(res.Bytes))
	require.NoError(t, err)
	defer rdr.Close()
	assert.EqualValues(t, 0, rdr.NumRows())
}
