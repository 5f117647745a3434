package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"inventory.csv", FormatCSV},
		{"REPORT.CSV", FormatCSV},
		{"catalog.xlsx", FormatExcel},
		{"legacy.XLS", FormatExcel},
		{"export.tsv", FormatTSV},
		{"dump.txt", FormatTXT},
		{"data.parquet", FormatUnknown},
		{"noextension", FormatUnknown},
		{"archive.csv.gz", FormatUnknown},
		{"", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.filename))
		})
	}
}
