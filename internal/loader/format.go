package loader

import "strings"

// Format classifies an uploaded file by its name.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatExcel   Format = "excel"
	FormatTSV     Format = "tsv"
	FormatTXT     Format = "txt"
	FormatUnknown Format = "unknown"
)

// DetectFormat classifies a filename by case-insensitive suffix matching.
// Unrecognized extensions yield FormatUnknown; the loader refuses those
// rather than guessing.
func DetectFormat(filename string) Format {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV
	case strings.HasSuffix(name, ".xlsx"), strings.HasSuffix(name, ".xls"):
		return FormatExcel
	case strings.HasSuffix(name, ".tsv"):
		return FormatTSV
	case strings.HasSuffix(name, ".txt"):
		return FormatTXT
	default:
		return FormatUnknown
	}
}
