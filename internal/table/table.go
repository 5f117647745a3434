// Package table provides the in-memory columnar structure shared by the
// loader, join engine, transform pipeline and exporters. A Table is an
// ordered set of named, equal-length columns; each column holds values of a
// single inferred type with a per-cell validity mask.
package table

import (
	"fmt"
	"strconv"
)

// Type identifies the semantic type of a column.
type Type int

const (
	String Type = iota
	Int
	Float
	Bool
)

// String returns the lowercase name of the type.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Column is a named, single-typed value vector with a validity mask.
type Column struct {
	name   string
	typ    Type
	strs   []string
	ints   []int64
	floats []float64
	bools  []bool
	valid  []bool
}

// NewStringColumn builds a string column. A nil valid mask means all cells
// are valid.
func NewStringColumn(name string, values []string, valid []bool) *Column {
	return &Column{name: name, typ: String, strs: values, valid: normalizeMask(valid, len(values))}
}

// NewIntColumn builds an int64 column.
func NewIntColumn(name string, values []int64, valid []bool) *Column {
	return &Column{name: name, typ: Int, ints: values, valid: normalizeMask(valid, len(values))}
}

// NewFloatColumn builds a float64 column.
func NewFloatColumn(name string, values []float64, valid []bool) *Column {
	return &Column{name: name, typ: Float, floats: values, valid: normalizeMask(valid, len(values))}
}

// NewBoolColumn builds a bool column.
func NewBoolColumn(name string, values []bool, valid []bool) *Column {
	return &Column{name: name, typ: Bool, bools: values, valid: normalizeMask(valid, len(values))}
}

func normalizeMask(valid []bool, n int) []bool {
	if valid != nil {
		return valid
	}
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column type.
func (c *Column) Type() Type { return c.typ }

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.valid) }

// IsNull reports whether the cell at i holds no value.
func (c *Column) IsNull(i int) bool { return !c.valid[i] }

// Value returns the typed value at i, or nil for a null cell.
func (c *Column) Value(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	switch c.typ {
	case String:
		return c.strs[i]
	case Int:
		return c.ints[i]
	case Float:
		return c.floats[i]
	case Bool:
		return c.bools[i]
	}
	return nil
}

// StringValue returns the cell at i coerced to its string form. Null cells
// render as the empty string; callers that need a sentinel substitute it
// themselves.
func (c *Column) StringValue(i int) string {
	if !c.valid[i] {
		return ""
	}
	switch c.typ {
	case String:
		return c.strs[i]
	case Int:
		return strconv.FormatInt(c.ints[i], 10)
	case Float:
		return strconv.FormatFloat(c.floats[i], 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(c.bools[i])
	}
	return ""
}

// FloatValue returns the numeric value at i. ok is false for null cells and
// for columns that are not numeric.
func (c *Column) FloatValue(i int) (float64, bool) {
	if !c.valid[i] {
		return 0, false
	}
	switch c.typ {
	case Int:
		return float64(c.ints[i]), true
	case Float:
		return c.floats[i], true
	default:
		return 0, false
	}
}

// IsNumeric reports whether the column holds int or float values.
func (c *Column) IsNumeric() bool { return c.typ == Int || c.typ == Float }

// Renamed returns a copy of the column under a new name sharing the same
// backing data.
func (c *Column) Renamed(name string) *Column {
	clone := *c
	clone.name = name
	return &clone
}

// Gather builds a new column from the cells at the given row indices.
func (c *Column) Gather(indices []int) *Column {
	out := &Column{name: c.name, typ: c.typ, valid: make([]bool, len(indices))}
	switch c.typ {
	case String:
		out.strs = make([]string, len(indices))
		for i, idx := range indices {
			out.strs[i] = c.strs[idx]
			out.valid[i] = c.valid[idx]
		}
	case Int:
		out.ints = make([]int64, len(indices))
		for i, idx := range indices {
			out.ints[i] = c.ints[idx]
			out.valid[i] = c.valid[idx]
		}
	case Float:
		out.floats = make([]float64, len(indices))
		for i, idx := range indices {
			out.floats[i] = c.floats[idx]
			out.valid[i] = c.valid[idx]
		}
	case Bool:
		out.bools = make([]bool, len(indices))
		for i, idx := range indices {
			out.bools[i] = c.bools[idx]
			out.valid[i] = c.valid[idx]
		}
	}
	return out
}

// Table is an ordered sequence of equal-length, uniquely named columns.
type Table struct {
	cols   []*Column
	byName map[string]int
}

// New builds a Table from the given columns, enforcing the equal-length and
// unique-name invariants.
func New(cols ...*Column) (*Table, error) {
	t := &Table{cols: cols, byName: make(map[string]int, len(cols))}
	for i, col := range cols {
		if _, dup := t.byName[col.Name()]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name())
		}
		t.byName[col.Name()] = i
		if col.Len() != cols[0].Len() {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name(), col.Len(), cols[0].Len())
		}
	}
	return t, nil
}

// NumRows returns the row count; zero for a table with no columns.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool { return t.NumRows() == 0 }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, col := range t.cols {
		names[i] = col.Name()
	}
	return names
}

// Column returns the named column, or false when absent.
func (t *Table) Column(name string) (*Column, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.cols[idx], true
}

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Select returns a new table with only the named columns, in the given
// order.
func (t *Table) Select(names []string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		cols = append(cols, col)
	}
	return New(cols...)
}

// Rename applies the given old→new name mapping. Keys that do not match an
// existing column are ignored. When two source columns map to the same
// target the later one wins; callers guard against that upstream.
func (t *Table) Rename(mapping map[string]string) *Table {
	cols := make([]*Column, len(t.cols))
	byName := make(map[string]int, len(t.cols))
	for i, col := range t.cols {
		name := col.Name()
		if newName, ok := mapping[name]; ok && newName != "" {
			name = newName
		}
		cols[i] = col.Renamed(name)
		byName[name] = i
	}
	return &Table{cols: cols, byName: byName}
}

// FilterRows returns a new table keeping only rows where keep[i] is true.
func (t *Table) FilterRows(keep []bool) *Table {
	indices := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			indices = append(indices, i)
		}
	}
	return t.Gather(indices)
}

// Gather returns a new table built from the rows at the given indices, in
// order. Indices may repeat.
func (t *Table) Gather(indices []int) *Table {
	cols := make([]*Column, len(t.cols))
	byName := make(map[string]int, len(t.cols))
	for i, col := range t.cols {
		cols[i] = col.Gather(indices)
		byName[col.Name()] = i
	}
	return &Table{cols: cols, byName: byName}
}

// Row returns the string-coerced cells of row i, in column order. Used by
// the xlsx exporter and previews.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.cols))
	for j, col := range t.cols {
		row[j] = col.StringValue(i)
	}
	return row
}

// RowMap returns row i as a column-name→typed-value map. Null cells map to
// nil.
func (t *Table) RowMap(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(t.cols))
	for _, col := range t.cols {
		row[col.Name()] = col.Value(i)
	}
	return row
}
