package table

import (
	"fmt"
	"strconv"
	"strings"
)

// FromRecords builds a typed Table from a raw header row and string records,
// the shape every parser engine produces. Empty cells become nulls; rows
// shorter than the header are padded with nulls, longer rows are truncated.
// Each column's type is inferred from its non-null cells: int, then float,
// then bool, falling back to string.
func FromRecords(header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	names := dedupeNames(header)
	cols := make([]*Column, len(names))
	for j, name := range names {
		raw := make([]string, len(records))
		valid := make([]bool, len(records))
		for i, rec := range records {
			if j < len(rec) && strings.TrimSpace(rec[j]) != "" {
				raw[i] = strings.TrimSpace(rec[j])
				valid[i] = true
			}
		}
		cols[j] = inferColumn(name, raw, valid)
	}
	return New(cols...)
}

// dedupeNames makes header names unique and non-empty, preserving order.
// Blank headers become column_<n>; repeats get a numeric suffix.
func dedupeNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name] = 1
		names[i] = name
	}
	return names
}

func inferColumn(name string, raw []string, valid []bool) *Column {
	typ := inferType(raw, valid)
	switch typ {
	case Int:
		ints := make([]int64, len(raw))
		for i, s := range raw {
			if valid[i] {
				ints[i], _ = strconv.ParseInt(s, 10, 64)
			}
		}
		return NewIntColumn(name, ints, valid)
	case Float:
		floats := make([]float64, len(raw))
		for i, s := range raw {
			if valid[i] {
				floats[i], _ = strconv.ParseFloat(s, 64)
			}
		}
		return NewFloatColumn(name, floats, valid)
	case Bool:
		bools := make([]bool, len(raw))
		for i, s := range raw {
			if valid[i] {
				bools[i], _ = strconv.ParseBool(strings.ToLower(s))
			}
		}
		return NewBoolColumn(name, bools, valid)
	default:
		return NewStringColumn(name, raw, valid)
	}
}

func inferType(raw []string, valid []bool) Type {
	sawValue := false
	isInt, isFloat, isBool := true, true, true
	for i, s := range raw {
		if !valid[i] {
			continue
		}
		sawValue = true
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			switch strings.ToLower(s) {
			case "true", "false":
			default:
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return String
		}
	}
	// An all-null column stays string typed.
	if !sawValue {
		return String
	}
	switch {
	case isInt:
		return Int
	case isFloat:
		return Float
	case isBool:
		return Bool
	default:
		return String
	}
}
