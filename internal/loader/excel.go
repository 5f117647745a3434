package loader

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"mergecli/internal/table"
)

// excelEngine is one rung of the spreadsheet engine ladder.
type excelEngine struct {
	name string
	read func(io.ReadSeeker) (*table.Table, error)
}

// excelEngines is the fixed trial order: the OOXML reader first, the legacy
// BIFF reader second, then a signature-sniffing pass as the final attempt.
var excelEngines = []excelEngine{
	{name: "xlsx", read: readXLSX},
	{name: "xls", read: readLegacyXLS},
	{name: "auto", read: readAutoDetect},
}

func loadExcel(r io.ReadSeeker) (*table.Table, error) {
	var lastErr error
	for _, engine := range excelEngines {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, &LoadError{Format: FormatExcel, Err: err}
		}
		tbl, err := engine.read(r)
		if err != nil {
			lastErr = err
			continue
		}
		slog.Debug("excel file parsed",
			slog.String("engine", engine.name),
			slog.Int("rows", tbl.NumRows()),
			slog.Int("columns", tbl.NumCols()))
		return tbl, nil
	}
	return nil, &LoadError{Format: FormatExcel, Err: lastErr}
}

// readXLSX reads the first sheet of a modern workbook with excelize.
func readXLSX(r io.ReadSeeker) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}
	return table.FromRecords(rows[0], rows[1:])
}

// readLegacyXLS reads the first sheet of a BIFF (.xls) workbook.
func readLegacyXLS(r io.ReadSeeker) (*table.Table, error) {
	wb, err := xls.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open legacy workbook: %w", err)
	}

	sheet, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("read first sheet: %w", err)
	}

	var rows [][]string
	for i := 0; i < sheet.GetNumberRows(); i++ {
		row, err := sheet.GetRow(i)
		if err != nil {
			continue
		}
		cells := row.GetCols()
		record := make([]string, len(cells))
		for j, cell := range cells {
			record[j] = cell.GetString()
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("legacy workbook is empty")
	}
	return table.FromRecords(rows[0], rows[1:])
}

// OLE compound document signature used by legacy .xls files. Modern
// workbooks are ZIP archives and start with "PK".
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// readAutoDetect sniffs the leading magic bytes and dispatches to whichever
// engine matches the actual container, regardless of the file extension.
func readAutoDetect(r io.ReadSeeker) (*table.Table, error) {
	magic := make([]byte, 8)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("sniff file signature: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if bytes.Equal(magic, oleSignature) {
		return readLegacyXLS(r)
	}
	return readXLSX(r)
}
