// Command merger runs the merge pipeline once from the command line: load
// two files, join them on the key column, optionally project, rename and
// filter, then write the export to disk.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mergecli/internal/config"
	"mergecli/internal/exporter"
	"mergecli/internal/infrastructure"
	"mergecli/internal/loader"
	"mergecli/internal/merge"
	"mergecli/internal/table"
	"mergecli/internal/transform"
	"mergecli/internal/validation"
)

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	posPath := flag.String("pos", "", "path to the POS file (csv, xlsx, xls, tsv or txt)")
	supplierPath := flag.String("supplier", "", "path to the supplier file")
	keyColumn := flag.String("key", "", "join column name (defaults to the configured key column)")
	columns := flag.String("columns", "", "comma-separated columns to keep (defaults to all merged columns)")
	format := flag.String("format", "xlsx", "export format: xlsx | json | parquet")
	outPath := flag.String("out", "", "output file path (defaults to the export filename in the current directory)")
	configFile := flag.String("config", "", "path to YAML config file (optional)")

	var renames multiFlag
	var filters multiFlag
	flag.Var(&renames, "rename", "rename a column, old=new (repeatable)")
	flag.Var(&filters, "filter", "filter rows, column:operator:value (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if *posPath == "" || *supplierPath == "" {
		logger.Error("Both -pos and -supplier are required")
		flag.Usage()
		os.Exit(2)
	}
	if *keyColumn == "" {
		*keyColumn = cfg.Pipeline.KeyColumn
	}

	if err := run(logger, *posPath, *supplierPath, *keyColumn, *columns, renames, filters, *format, *outPath); err != nil {
		logger.Error("Merge failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, posPath, supplierPath, keyColumn, columns string, renames, filters []string, formatName, outPath string) error {
	outFormat, err := exporter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	validator := validation.NewFileValidator(logger)
	for _, path := range []string{posPath, supplierPath} {
		if err := validator.ValidateInputFile(path); err != nil {
			return err
		}
	}

	posTable, err := loadFile(logger, posPath)
	if err != nil {
		return fmt.Errorf("loading POS file: %w", err)
	}
	suppTable, err := loadFile(logger, supplierPath)
	if err != nil {
		return fmt.Errorf("loading supplier file: %w", err)
	}

	result, err := merge.Merge(
		merge.Input{Name: "POS", Table: posTable},
		merge.Input{Name: "Supplier", Table: suppTable},
		keyColumn,
	)
	if err != nil {
		return err
	}

	logger.Info("Merge complete",
		slog.Int("merged_rows", result.Merged.NumRows()),
		slog.Int("unmatched_pos", result.UnmatchedA.NumRows()),
		slog.Int("unmatched_supplier", result.UnmatchedB.NumRows()))

	view := result.Merged
	if columns != "" || len(renames) > 0 || len(filters) > 0 {
		params, err := buildParams(result.Merged, columns, renames, filters)
		if err != nil {
			return err
		}
		transformed, warnings, err := transform.Apply(view, params)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			logger.Warn("Filter skipped",
				slog.String("column", w.Filter.Column),
				slog.String("reason", w.Reason))
		}
		view = transformed
	}

	res, err := exporter.Export(view, outFormat, &exporter.Aux{
		UnmatchedA: result.UnmatchedA,
		UnmatchedB: result.UnmatchedB,
	})
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = res.Filename
	}
	if err := validator.EnsureOutputDir(outPath); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, res.Bytes, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	logger.Info("Export written",
		slog.String("path", outPath),
		slog.String("format", string(outFormat)),
		slog.Int("rows", view.NumRows()),
		slog.Int("bytes", len(res.Bytes)))
	return nil
}

func loadFile(logger *slog.Logger, path string) (*table.Table, error) {
	format := loader.DetectFormat(path)
	if format == loader.FormatUnknown {
		return nil, &loader.FormatError{Filename: path}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := loader.Load(f, format)
	if err != nil {
		return nil, err
	}

	logger.Info("File loaded",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumCols()))
	return t, nil
}

// buildParams converts CLI flags into transform parameters. An empty
// -columns flag keeps every merged column.
func buildParams(merged *table.Table, columns string, renames, filters []string) (transform.Params, error) {
	params := transform.Params{}

	if columns != "" {
		for _, c := range strings.Split(columns, ",") {
			if c = strings.TrimSpace(c); c != "" {
				params.SelectedColumns = append(params.SelectedColumns, c)
			}
		}
	} else {
		params.SelectedColumns = merged.ColumnNames()
	}

	if len(renames) > 0 {
		params.RenameMap = make(map[string]string, len(renames))
		for _, r := range renames {
			old, updated, ok := strings.Cut(r, "=")
			if !ok || old == "" || updated == "" {
				return params, fmt.Errorf("invalid -rename %q, expected old=new", r)
			}
			params.RenameMap[old] = updated
		}
	}

	for _, f := range filters {
		parts := strings.SplitN(f, ":", 3)
		if len(parts) != 3 {
			return params, fmt.Errorf("invalid -filter %q, expected column:operator:value", f)
		}
		params.Filters = append(params.Filters, transform.FilterSpec{
			Column:   parts[0],
			Operator: transform.Operator(parts[1]),
			Value:    parts[2],
		})
	}

	return params, nil
}
