// Package exporter serializes a working view (and, for spreadsheet output,
// the two unmatched tables) into downloadable bytes. No component here
// touches the disk; callers decide what to do with the buffer.
package exporter

import (
	"fmt"

	"mergecli/internal/table"
)

// Format selects the export serialization.
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat maps a user-supplied format string to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatXLSX, FormatJSON, FormatParquet:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Aux carries the two unmatched tables; only the spreadsheet export
// consumes them.
type Aux struct {
	UnmatchedA *table.Table
	UnmatchedB *table.Table
}

// Result is an in-memory export artifact.
type Result struct {
	Bytes    []byte
	Filename string
	MIMEType string
}

// ExportError reports a serialization failure for a given format.
type ExportError struct {
	Format Format
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to create %s export: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Export serializes the view in the requested format. aux is required for
// xlsx and ignored otherwise.
func Export(view *table.Table, format Format, aux *Aux) (*Result, error) {
	switch format {
	case FormatXLSX:
		return exportXLSX(view, aux)
	case FormatJSON:
		return exportJSON(view)
	case FormatParquet:
		return exportParquet(view)
	default:
		return nil, &ExportError{Format: format, Err: fmt.Errorf("unknown format")}
	}
}
