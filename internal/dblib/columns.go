package dblib

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tally/internal/grid"
)

// OrderColumn, when present, holds each row's 1-based position in the grid.
const OrderColumn = "position"

// hidden columns carry row structure rather than cell values.
func hidden(name string) bool {
	return isFlagColumn(name) || name == OrderColumn
}

// GridColumns maps the table's visible columns to grid column descriptors.
func (t Table) GridColumns() []grid.Column {
	out := make([]grid.Column, 0, len(t.Columns))
	for _, col := range t.Columns {
		if hidden(col.Name) {
			continue
		}
		out = append(out, grid.Column{
			ID:       col.Name,
			Header:   headerFor(col.Name),
			Type:     columnType(col),
			Options:  col.EnumValues,
			ReadOnly: col.PrimaryKey,
		})
	}
	return out
}

func headerFor(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

func columnType(col Column) grid.ColumnType {
	name := strings.ToLower(col.Name)
	switch {
	case len(col.EnumValues) > 0:
		return grid.Listbox
	case name == grid.FieldAmount || name == grid.FieldTotal || name == grid.FieldRounding:
		return grid.Amount
	case name == grid.FieldTax || strings.HasSuffix(name, "_rate"):
		return grid.Rate
	}

	t := strings.ToLower(col.Type)
	switch {
	case strings.Contains(t, "bool"):
		return grid.Checkbox
	case strings.Contains(t, "int") && !strings.Contains(t, "point"):
		return grid.Number
	case strings.Contains(t, "date") || strings.Contains(t, "time"):
		return grid.Date
	case strings.Contains(t, "numeric"), strings.Contains(t, "decimal"), strings.Contains(t, "real"),
		strings.Contains(t, "float"), strings.Contains(t, "double"), strings.Contains(t, "money"):
		return grid.Float
	default:
		return grid.Text
	}
}

// cellValue converts a scanned database value into the form the grid edits.
func cellValue(typ grid.ColumnType, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return grid.ZeroValue(typ)
	}
	switch typ {
	case grid.Number:
		switch n := v.(type) {
		case float64:
			return int64(n)
		case string:
			if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return i
			}
			return int64(0)
		}
	case grid.Float, grid.Rate:
		switch n := v.(type) {
		case int64:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f
			}
			return float64(0)
		}
	case grid.Checkbox:
		return asBool(v)
	case grid.Date:
		if ts, ok := v.(time.Time); ok {
			return ts.Format(time.DateOnly)
		}
	}
	return v
}

// storedValue converts a grid value into a driver argument.
func storedValue(typ grid.ColumnType, v any) any {
	if typ == grid.Date {
		if s, ok := v.(string); ok && s == "" {
			return nil
		}
	}
	return v
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case float64:
		return b != 0
	case []byte:
		return asBool(string(b))
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}
