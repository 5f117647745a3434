package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"mergecli/internal/table"
)

// POSTable builds a small point-of-sale table keyed by UPC.
func POSTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewStringColumn("UPC", []string{"100", "200", "300"}, nil),
		table.NewStringColumn("Description", []string{"Cola 12oz", "Chips", "Candy Bar"}, nil),
		table.NewFloatColumn("Price", []float64{1.99, 3.49, 0.99}, nil),
	)
	if err != nil {
		t.Fatalf("building POS fixture: %v", err)
	}
	return tbl
}

// SupplierTable builds a supplier catalog sharing two UPCs with POSTable.
func SupplierTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewStringColumn("UPC", []string{"100", "300", "400"}, nil),
		table.NewFloatColumn("Cost", []float64{1.10, 0.45, 2.00}, nil),
		table.NewStringColumn("Vendor", []string{"Acme", "Acme", "Globex"}, nil),
	)
	if err != nil {
		t.Fatalf("building supplier fixture: %v", err)
	}
	return tbl
}

// WriteTempCSV writes content to name inside a test temp dir and returns
// the full path.
func WriteTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}
