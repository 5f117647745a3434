package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"mergecli/internal/table"
)

const (
	sheetMerged            = "Merged Data"
	sheetUnmatchedPOS      = "Unmatched from POS"
	sheetUnmatchedSupplier = "Unmatched from Supplier"

	xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// exportXLSX writes a three-sheet workbook. An empty table becomes a
// single-cell placeholder sheet; export never fails merely because one side
// of the merge is empty.
func exportXLSX(view *table.Table, aux *Aux) (*Result, error) {
	if aux == nil {
		return nil, &ExportError{Format: FormatXLSX, Err: fmt.Errorf("unmatched tables are required for spreadsheet export")}
	}

	f := excelize.NewFile()
	defer f.Close()

	// The workbook starts with a default sheet; claim it for the first one.
	if err := f.SetSheetName(f.GetSheetName(0), sheetMerged); err != nil {
		return nil, &ExportError{Format: FormatXLSX, Err: err}
	}
	if err := writeSheet(f, sheetMerged, view, "No merged data available"); err != nil {
		return nil, &ExportError{Format: FormatXLSX, Err: err}
	}

	for _, s := range []struct {
		name        string
		tbl         *table.Table
		placeholder string
	}{
		{sheetUnmatchedPOS, aux.UnmatchedA, "No unmatched POS records"},
		{sheetUnmatchedSupplier, aux.UnmatchedB, "No unmatched Supplier records"},
	} {
		if _, err := f.NewSheet(s.name); err != nil {
			return nil, &ExportError{Format: FormatXLSX, Err: err}
		}
		if err := writeSheet(f, s.name, s.tbl, s.placeholder); err != nil {
			return nil, &ExportError{Format: FormatXLSX, Err: err}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &ExportError{Format: FormatXLSX, Err: err}
	}

	slog.Info("xlsx export created", slog.Int("bytes", buf.Len()))
	return &Result{Bytes: buf.Bytes(), Filename: "merged_export.xlsx", MIMEType: xlsxMIME}, nil
}

func writeSheet(f *excelize.File, sheet string, tbl *table.Table, placeholder string) error {
	if tbl == nil || tbl.IsEmpty() {
		if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Message"}); err != nil {
			return err
		}
		return f.SetSheetRow(sheet, "A2", &[]interface{}{placeholder})
	}

	header := make([]interface{}, tbl.NumCols())
	for i, name := range tbl.ColumnNames() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r := 0; r < tbl.NumRows(); r++ {
		row := make([]interface{}, tbl.NumCols())
		for c := 0; c < tbl.NumCols(); c++ {
			row[c] = tbl.ColumnAt(c).Value(r)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
