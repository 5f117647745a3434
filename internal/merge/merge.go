// Package merge implements the key-based inner join between the two input
// tables, including the two complementary unmatched sets.
package merge

import (
	"fmt"
	"log/slog"

	"mergecli/internal/table"
)

// NullKeySentinel replaces null key cells before comparison. Two nulls on
// opposite sides therefore match each other; that mirrors the original
// merge policy and is intentional.
const NullKeySentinel = "MISSING_UPC"

// RightSuffix disambiguates right-side columns whose names collide with a
// left-side column in the join output.
const RightSuffix = "_right"

// Input is one side of a merge, labeled for error messages.
type Input struct {
	Name  string
	Table *table.Table
}

// Result owns the three tables produced by one join. It is created
// atomically and superseded wholesale on re-merge.
type Result struct {
	Merged     *table.Table
	UnmatchedA *table.Table
	UnmatchedB *table.Table
}

// ValidationError reports an input that cannot be joined: an empty table or
// a missing key column.
type ValidationError struct {
	Source  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// Merge inner-joins a and b on equality of the key column after coercing
// both sides to string with the null sentinel. Standard relational
// semantics: a key appearing k times on the left and m times on the right
// produces k×m output rows. The unmatched tables hold every row whose key
// value appears nowhere in the merged output; when the join is empty they
// equal the full inputs. An empty merged table is the caller's warning to
// surface, not an error.
func Merge(a, b Input, keyColumn string) (*Result, error) {
	if err := validateInput(a, keyColumn); err != nil {
		return nil, err
	}
	if err := validateInput(b, keyColumn); err != nil {
		return nil, err
	}

	left := withStringKey(a.Table, keyColumn)
	right := withStringKey(b.Table, keyColumn)
	leftKeys := keyValues(left, keyColumn)
	rightKeys := keyValues(right, keyColumn)

	slog.Info("performing merge",
		slog.String("key_column", keyColumn),
		slog.Int("left_rows", left.NumRows()),
		slog.Int("right_rows", right.NumRows()))

	// Hash index on the right side: coerced key value → row indices.
	index := make(map[string][]int, right.NumRows())
	for i, key := range rightKeys {
		index[key] = append(index[key], i)
	}

	var leftIdx, rightIdx []int
	matched := make(map[string]struct{})
	for i, key := range leftKeys {
		rows, ok := index[key]
		if !ok {
			continue
		}
		matched[key] = struct{}{}
		for _, j := range rows {
			leftIdx = append(leftIdx, i)
			rightIdx = append(rightIdx, j)
		}
	}

	merged, err := buildMerged(left, right, keyColumn, leftIdx, rightIdx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Merged:     merged,
		UnmatchedA: unmatchedRows(left, leftKeys, matched),
		UnmatchedB: unmatchedRows(right, rightKeys, matched),
	}

	slog.Info("merge completed",
		slog.Int("merged_rows", result.Merged.NumRows()),
		slog.Int("unmatched_a", result.UnmatchedA.NumRows()),
		slog.Int("unmatched_b", result.UnmatchedB.NumRows()))

	return result, nil
}

func validateInput(in Input, keyColumn string) error {
	if in.Table == nil || in.Table.IsEmpty() {
		return &ValidationError{Source: in.Name, Message: "table is empty"}
	}
	if !in.Table.HasColumn(keyColumn) {
		return &ValidationError{
			Source:  in.Name,
			Message: fmt.Sprintf("%s column not found (available: %v)", keyColumn, in.Table.ColumnNames()),
		}
	}
	return nil
}

// withStringKey replaces the key column with its string coercion, nulls
// substituted by the sentinel. Both the merged table and the unmatched
// tables carry the coerced key.
func withStringKey(t *table.Table, keyColumn string) *table.Table {
	cols := make([]*table.Column, t.NumCols())
	for i := 0; i < t.NumCols(); i++ {
		col := t.ColumnAt(i)
		if col.Name() != keyColumn {
			cols[i] = col
			continue
		}
		values := make([]string, col.Len())
		for r := 0; r < col.Len(); r++ {
			if col.IsNull(r) {
				values[r] = NullKeySentinel
			} else {
				values[r] = col.StringValue(r)
			}
		}
		cols[i] = table.NewStringColumn(keyColumn, values, nil)
	}
	// Invariants already hold on the source table.
	out, _ := table.New(cols...)
	return out
}

func keyValues(t *table.Table, keyColumn string) []string {
	col, _ := t.Column(keyColumn)
	values := make([]string, col.Len())
	for i := range values {
		values[i] = col.StringValue(i)
	}
	return values
}

// buildMerged assembles the output columns: every left column (key once),
// then every right column except the key, suffixed on name collision.
func buildMerged(left, right *table.Table, keyColumn string, leftIdx, rightIdx []int) (*table.Table, error) {
	leftGathered := left.Gather(leftIdx)
	rightGathered := right.Gather(rightIdx)

	leftNames := make(map[string]struct{}, left.NumCols())
	for _, name := range left.ColumnNames() {
		leftNames[name] = struct{}{}
	}

	cols := make([]*table.Column, 0, left.NumCols()+right.NumCols()-1)
	for i := 0; i < leftGathered.NumCols(); i++ {
		cols = append(cols, leftGathered.ColumnAt(i))
	}
	for i := 0; i < rightGathered.NumCols(); i++ {
		col := rightGathered.ColumnAt(i)
		if col.Name() == keyColumn {
			continue
		}
		if _, collides := leftNames[col.Name()]; collides {
			col = col.Renamed(col.Name() + RightSuffix)
		}
		cols = append(cols, col)
	}
	merged, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("assemble merged table: %w", err)
	}
	return merged, nil
}

func unmatchedRows(t *table.Table, keys []string, matched map[string]struct{}) *table.Table {
	keep := make([]bool, len(keys))
	for i, key := range keys {
		_, ok := matched[key]
		keep[i] = !ok
	}
	return t.FilterRows(keep)
}
