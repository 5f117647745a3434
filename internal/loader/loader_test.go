package loader

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadCSV(t *testing.T) {
	t.Run("plain utf-8", func(t *testing.T) {
		data := "UPC,Description,Price\n100,Cola,1.99\n200,Chips,3.49\n"
		tbl, err := Load(bytes.NewReader([]byte(data)), FormatCSV)
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.NumRows())
		assert.Equal(t, []string{"UPC", "Description", "Price"}, tbl.ColumnNames())
	})

	t.Run("latin-1 bytes fall through the encoding ladder", func(t *testing.T) {
		// 0xE9 is é in Latin-1 and an invalid UTF-8 sequence on its own.
		data := []byte("UPC,Description\n100,Caf\xe9\n")
		tbl, err := Load(bytes.NewReader(data), FormatCSV)
		require.NoError(t, err)
		require.Equal(t, 1, tbl.NumRows())
		col, ok := tbl.Column("Description")
		require.True(t, ok)
		assert.Contains(t, col.StringValue(0), "Caf")
	})

	t.Run("ragged rows survive in lenient mode", func(t *testing.T) {
		data := "a,b,c\n1,2,3\n4,5\n6,7,8,9\n"
		tbl, err := Load(bytes.NewReader([]byte(data)), FormatCSV)
		require.NoError(t, err)
		assert.Equal(t, 3, tbl.NumRows())
		col, _ := tbl.Column("c")
		assert.True(t, col.IsNull(1), "short row padded with null")
	})
}

func TestLoadTSV(t *testing.T) {
	data := "UPC\tQty\n100\t5\n200\t8\n"
	tbl, err := Load(bytes.NewReader([]byte(data)), FormatTSV)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []string{"UPC", "Qty"}, tbl.ColumnNames())
}

func TestLoadTXT(t *testing.T) {
	t.Run("semicolon delimited", func(t *testing.T) {
		data := "UPC;Description;Price\n100;Cola;1.99\n200;Chips;3.49\n"
		tbl, err := Load(bytes.NewReader([]byte(data)), FormatTXT)
		require.NoError(t, err)
		assert.Equal(t, 3, tbl.NumCols())
		assert.Equal(t, 2, tbl.NumRows())
	})

	t.Run("pipe delimited", func(t *testing.T) {
		data := "UPC|Qty\n100|5\n"
		tbl, err := Load(bytes.NewReader([]byte(data)), FormatTXT)
		require.NoError(t, err)
		assert.Equal(t, []string{"UPC", "Qty"}, tbl.ColumnNames())
	})

	t.Run("no delimiter yields ErrNoSeparator", func(t *testing.T) {
		data := "just some prose\nwith no structure at all\n"
		_, err := Load(bytes.NewReader([]byte(data)), FormatTXT)
		require.Error(t, err)

		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.ErrorIs(t, err, ErrNoSeparator)
	})
}

func TestLoadExcel(t *testing.T) {
	t.Run("xlsx first sheet", func(t *testing.T) {
		f := excelize.NewFile()
		sheet := f.GetSheetName(0)
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"UPC", "Price"}))
		require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"100", 1.99}))
		require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"200", 3.49}))

		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		tbl, err := Load(bytes.NewReader(buf.Bytes()), FormatExcel)
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.NumRows())
		assert.Equal(t, []string{"UPC", "Price"}, tbl.ColumnNames())
	})

	t.Run("garbage bytes exhaust every engine", func(t *testing.T) {
		_, err := Load(bytes.NewReader([]byte("definitely not a workbook")), FormatExcel)
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, FormatExcel, loadErr.Format)
	})
}

func TestLoadUnknownFormat(t *testing.T) {
	_, err := Load(bytes.NewReader(nil), FormatUnknown)
	var formatErr *FormatError
	require.True(t, errors.As(err, &formatErr))
}
