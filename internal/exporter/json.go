package exporter

import (
	"encoding/json"
	"log/slog"

	"mergecli/internal/table"
)

// exportJSON serializes the working view as an indented array of row
// objects, one column-name→value pair per cell. Null cells serialize as
// JSON null.
func exportJSON(view *table.Table) (*Result, error) {
	rows := make([]map[string]interface{}, view.NumRows())
	for i := range rows {
		rows[i] = view.RowMap(i)
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, &ExportError{Format: FormatJSON, Err: err}
	}

	slog.Info("json export created",
		slog.Int("rows", view.NumRows()),
		slog.Int("bytes", len(data)))
	return &Result{Bytes: data, Filename: "merged_export.json", MIMEType: "application/json"}, nil
}
