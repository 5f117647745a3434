package exporter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mergecli/internal/table"
)

func TestExportJSON(t *testing.T) {
	view, err := table.New(
		table.NewStringColumn("UPC", []string{"100", "200"}, nil),
		table.NewIntColumn("Qty", []int64{5, 0}, []bool{true, false}),
	)
	require.NoError(t, err)

	res, err := Export(view, FormatJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, "merged_export.json", res.Filename)
	assert.Equal(t, "application/json", res.MIMEType)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Bytes, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "100", rows[0]["UPC"])
	assert.Equal(t, float64(5), rows[0]["Qty"])
	assert.Nil(t, rows[1]["Qty"], "null cells serialize as JSON null")
}

func TestExportJSONEmptyView(t *testing.T) {
	view, err := table.New(table.NewStringColumn("UPC", nil, nil))
	require.NoError(t, err)

	res, err := Export(view, FormatJSON, nil)
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Bytes, &rows))
	assert.Empty(t, rows)
}
