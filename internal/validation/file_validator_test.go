package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mergecli/internal/shared/testutil"
)

func writeFixture(t *testing.T, name string) string {
	t.Helper()
	return testutil.WriteTempCSV(t, name, "UPC,v\n1,2\n")
}

func TestValidateInputFile(t *testing.T) {
	v := NewFileValidator(nil)

	t.Run("valid csv", func(t *testing.T) {
		assert.NoError(t, v.ValidateInputFile(writeFixture(t, "pos.csv")))
	})

	t.Run("missing file", func(t *testing.T) {
		err := v.ValidateInputFile(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("directory rejected", func(t *testing.T) {
		dir := t.TempDir()
		renamed := dir + ".csv"
		require.NoError(t, os.Rename(dir, renamed))
		t.Cleanup(func() { os.RemoveAll(renamed) })

		err := v.ValidateInputFile(renamed)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "directory")
	})

	t.Run("office lock file rejected", func(t *testing.T) {
		err := v.ValidateInputFile(writeFixture(t, "~$report.xlsx"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock file")
	})

	t.Run("unsupported extension rejected", func(t *testing.T) {
		err := v.ValidateInputFile(writeFixture(t, "data.parquet"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported file extension")
	})
}

func TestEnsureOutputDir(t *testing.T) {
	v := NewFileValidator(nil)

	t.Run("creates missing directories", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "deep", "nested", "out.xlsx")
		require.NoError(t, v.EnsureOutputDir(out))

		info, err := os.Stat(filepath.Dir(out))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing directory passes", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.json")
		assert.NoError(t, v.EnsureOutputDir(out))
	})
}
