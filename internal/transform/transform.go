// Package transform derives the working view from a merged table: column
// projection, renaming, then an ordered chain of predicate filters combined
// with implicit AND.
package transform

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"mergecli/internal/table"
)

// Operator is a filter predicate kind.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// FilterSpec is one user-defined predicate in the filter chain. Value is
// always a string literal; the numeric operators parse it as a float.
type FilterSpec struct {
	Column   string   `json:"column" validate:"required"`
	Operator Operator `json:"operator" validate:"required,oneof=equals not_equals contains greater_than less_than"`
	Value    string   `json:"value"`
}

// Params carries everything needed to recompute the working view.
type Params struct {
	SelectedColumns []string          `json:"selected_columns"`
	RenameMap       map[string]string `json:"rename_map"`
	Filters         []FilterSpec      `json:"filters" validate:"dive"`
}

// ErrEmptySelection rejects a transform with no selected columns before any
// filter runs.
var ErrEmptySelection = errors.New("at least one column must be selected")

// Warning records a filter entry that was skipped. Filter failures are
// per-entry and never abort the pipeline; the remaining filters still
// apply.
type Warning struct {
	Filter FilterSpec `json:"filter"`
	Reason string     `json:"reason"`
}

// Apply recomputes the working view: projection, rename, then the filter
// chain in list order. Filters with an empty value are inert. A filter
// referencing an absent column or carrying an unparseable numeric value is
// skipped with a warning.
func Apply(t *table.Table, p Params) (*table.Table, []Warning, error) {
	if len(p.SelectedColumns) == 0 {
		return nil, nil, ErrEmptySelection
	}

	view, err := t.Select(p.SelectedColumns)
	if err != nil {
		return nil, nil, fmt.Errorf("column selection: %w", err)
	}

	if len(p.RenameMap) > 0 {
		view = view.Rename(p.RenameMap)
	}

	var warnings []Warning
	for _, f := range p.Filters {
		if f.Value == "" {
			continue
		}
		filtered, err := applyFilter(view, f)
		if err != nil {
			slog.Warn("filter skipped",
				slog.String("column", f.Column),
				slog.String("operator", string(f.Operator)),
				slog.String("reason", err.Error()))
			warnings = append(warnings, Warning{Filter: f, Reason: err.Error()})
			continue
		}
		view = filtered
	}

	return view, warnings, nil
}

func applyFilter(t *table.Table, f FilterSpec) (*table.Table, error) {
	col, ok := t.Column(f.Column)
	if !ok {
		return nil, fmt.Errorf("column %q is not part of the current selection", f.Column)
	}

	keep := make([]bool, col.Len())
	switch f.Operator {
	case OpEquals:
		for i := range keep {
			keep[i] = !col.IsNull(i) && col.StringValue(i) == f.Value
		}
	case OpNotEquals:
		for i := range keep {
			keep[i] = !col.IsNull(i) && col.StringValue(i) != f.Value
		}
	case OpContains:
		for i := range keep {
			keep[i] = !col.IsNull(i) && strings.Contains(col.StringValue(i), f.Value)
		}
	case OpGreaterThan, OpLessThan:
		if !col.IsNumeric() {
			return nil, fmt.Errorf("column %q is not numeric", f.Column)
		}
		threshold, err := strconv.ParseFloat(f.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a number", f.Value)
		}
		for i := range keep {
			v, valid := col.FloatValue(i)
			if !valid {
				continue
			}
			if f.Operator == OpGreaterThan {
				keep[i] = v > threshold
			} else {
				keep[i] = v < threshold
			}
		}
	default:
		return nil, fmt.Errorf("unknown operator %q", f.Operator)
	}

	return t.FilterRows(keep), nil
}
