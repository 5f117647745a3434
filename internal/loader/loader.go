// Package loader turns raw uploaded bytes into a table.Table. Each declared
// format has an ordered list of candidate strategies (parser engine,
// delimiter, text encoding) evaluated left to right with early exit on the
// first success; individual attempt failures are swallowed and only the
// final exhaustion is reported as a LoadError.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"mergecli/internal/table"
)

// FormatError reports a file whose extension maps to no supported format.
type FormatError struct {
	Filename string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Filename)
}

// LoadError reports that every strategy for a format failed. It carries the
// last underlying failure.
type LoadError struct {
	Format Format
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not read %s file: %v", e.Format, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrNoSeparator is the terminal failure for txt files where no delimiter
// produced more than one column.
var ErrNoSeparator = errors.New("could not determine separator")

// txtDelimiters is the fixed trial order for free-form delimited text.
var txtDelimiters = []rune{',', '\t', ';', '|'}

// textEncoding is one rung of the encoding ladder.
type textEncoding struct {
	name   string
	decode func([]byte) ([]byte, error)
}

// textEncodings is the fixed trial order shared by csv, tsv and txt.
var textEncodings = []textEncoding{
	{name: "utf-8", decode: decodeUTF8Strict},
	{name: "utf-8-lossy", decode: decodeUTF8Lossy},
	{name: "latin-1", decode: charmap.ISO8859_1.NewDecoder().Bytes},
	{name: "windows-1252", decode: charmap.Windows1252.NewDecoder().Bytes},
}

func decodeUTF8Strict(b []byte) ([]byte, error) {
	if !utf8.Valid(b) {
		return nil, errors.New("invalid utf-8 byte sequence")
	}
	return b, nil
}

func decodeUTF8Lossy(b []byte) ([]byte, error) {
	return bytes.ToValidUTF8(b, []byte(string(utf8.RuneError))), nil
}

// Load reads a table from r using the strategy ladder for the declared
// format. The reader is rewound before every attempt, so r must be seekable
// to the start.
func Load(r io.ReadSeeker, format Format) (*table.Table, error) {
	switch format {
	case FormatExcel:
		return loadExcel(r)
	case FormatCSV:
		return loadDelimited(r, FormatCSV, ',')
	case FormatTSV:
		return loadDelimited(r, FormatTSV, '\t')
	case FormatTXT:
		return loadTXT(r)
	default:
		return nil, &FormatError{Filename: string(format)}
	}
}

// loadDelimited runs the encoding ladder for a fixed delimiter, then the
// replacement-character fallback.
func loadDelimited(r io.ReadSeeker, format Format, delim rune) (*table.Table, error) {
	var lastErr error
	for _, enc := range textEncodings {
		data, err := rewindAndRead(r)
		if err != nil {
			return nil, &LoadError{Format: format, Err: err}
		}
		decoded, err := enc.decode(data)
		if err != nil {
			lastErr = err
			continue
		}
		tbl, err := parseDelimited(decoded, delim)
		if err != nil {
			lastErr = err
			continue
		}
		slog.Debug("file parsed",
			slog.String("format", string(format)),
			slog.String("encoding", enc.name),
			slog.Int("rows", tbl.NumRows()),
			slog.Int("columns", tbl.NumCols()))
		return tbl, nil
	}

	// Last resort: decode with replacement runes and parse once more. This
	// pass accepts whatever it can read.
	data, err := rewindAndRead(r)
	if err != nil {
		return nil, &LoadError{Format: format, Err: err}
	}
	decoded, _ := decodeUTF8Lossy(data)
	tbl, err := parseDelimited(decoded, delim)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, &LoadError{Format: format, Err: lastErr}
	}
	slog.Debug("file parsed via replacement-character fallback",
		slog.String("format", string(format)),
		slog.Int("rows", tbl.NumRows()))
	return tbl, nil
}

// loadTXT crosses every delimiter with every encoding, delimiter outer loop.
// A parse counts only when it yields more than one column: a one-column
// result means the delimiter was wrong, not that the file parsed.
func loadTXT(r io.ReadSeeker) (*table.Table, error) {
	for _, delim := range txtDelimiters {
		for _, enc := range textEncodings {
			data, err := rewindAndRead(r)
			if err != nil {
				return nil, &LoadError{Format: FormatTXT, Err: err}
			}
			decoded, err := enc.decode(data)
			if err != nil {
				continue
			}
			tbl, err := parseDelimited(decoded, delim)
			if err != nil || tbl.NumCols() <= 1 {
				continue
			}
			slog.Debug("txt file parsed",
				slog.String("delimiter", string(delim)),
				slog.String("encoding", enc.name),
				slog.Int("columns", tbl.NumCols()))
			return tbl, nil
		}
	}

	// Replacement-character pass, one more try per delimiter.
	data, err := rewindAndRead(r)
	if err != nil {
		return nil, &LoadError{Format: FormatTXT, Err: err}
	}
	decoded, _ := decodeUTF8Lossy(data)
	for _, delim := range txtDelimiters {
		tbl, err := parseDelimited(decoded, delim)
		if err == nil && tbl.NumCols() > 1 {
			slog.Debug("txt file parsed via replacement-character fallback",
				slog.String("delimiter", string(delim)))
			return tbl, nil
		}
	}
	return nil, &LoadError{Format: FormatTXT, Err: ErrNoSeparator}
}

func rewindAndRead(r io.ReadSeeker) ([]byte, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind input: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// parseDelimited parses decoded text with a fixed delimiter in lenient row
// mode: malformed rows are skipped rather than aborting the parse.
func parseDelimited(data []byte, delim rune) (*table.Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Lenient mode: drop the malformed row and keep going.
			continue
		}
		records = append(records, record)
	}

	return table.FromRecords(header, records)
}
