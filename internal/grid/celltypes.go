package grid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxMagnitude is the largest value a numeric cell accepts; larger input clamps to it.
const MaxMagnitude = "99999999999999"

const (
	rateDecimals = 3
	dateLayout   = "2006-01-02"

	checkedGlyph   = "☑"
	uncheckedGlyph = "☐"
	actionGlyph    = "✕"
)

var maxMagnitude = decimal.RequireFromString(MaxMagnitude)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// behavior is the per-type rule set. Every ColumnType has exactly one entry.
type behavior struct {
	numeric  bool
	editable bool
	tabbable bool
	align    Align

	filter func(input string) string
	blur   func(draft string) string
	parse  func(draft string) any
	format func(v any) (string, Align)
	zero   func() any
}

var behaviors = map[ColumnType]behavior{
	Text: {
		editable: true, tabbable: true,
		filter: identity, blur: identity, parse: rawString,
		format: formatText, zero: emptyString,
	},
	Number: {
		numeric: true, editable: true, tabbable: true, align: AlignRight,
		filter: func(s string) string { return filterNumeric(s, false, 0) },
		blur:   blurNumeric, parse: parseInteger,
		format: formatNumber, zero: zeroInt,
	},
	Rate: {
		numeric: true, editable: true, tabbable: true, align: AlignRight,
		filter: func(s string) string { return filterNumeric(s, true, rateDecimals) },
		blur:   blurNumeric, parse: parseFloat,
		format: formatNumber, zero: zeroFloat,
	},
	Float: {
		numeric: true, editable: true, tabbable: true, align: AlignRight,
		filter: func(s string) string { return filterNumeric(s, true, -1) },
		blur:   blurNumeric, parse: parseFloat,
		format: formatNumber, zero: zeroFloat,
	},
	Amount: {
		numeric: true, align: AlignRight,
		filter: identity, blur: identity, parse: rawString,
		format: formatFixed, zero: zeroInt,
	},
	Date: {
		editable: true, tabbable: true,
		filter: filterDate, blur: blurDate, parse: rawString,
		format: formatDate, zero: emptyString,
	},
	Checkbox: {
		align:  AlignCenter,
		filter: identity, blur: identity, parse: parseBool,
		format: formatCheckbox, zero: func() any { return false },
	},
	Listbox: {
		editable: true,
		filter:   identity, blur: identity, parse: rawString,
		format: formatText, zero: emptyString,
	},
	Combobox: {
		editable: true,
		filter:   identity, blur: identity, parse: rawString,
		format: formatText, zero: emptyString,
	},
	Readonly: {
		filter: identity, blur: identity, parse: rawString,
		format: formatFixed, zero: emptyString,
	},
	Action: {
		align:  AlignCenter,
		filter: identity, blur: identity, parse: rawString,
		format: func(any) (string, Align) { return actionGlyph, AlignCenter },
		zero:   emptyString,
	},
}

func behaviorFor(t ColumnType) behavior {
	if b, ok := behaviors[t]; ok {
		return b
	}
	return behaviors[Text]
}

// FilterInput applies the keystroke filter of a column type to the editor text.
func FilterInput(t ColumnType, input string) string {
	return behaviorFor(t).filter(input)
}

// NormalizeOnBlur finishes an edit: trailing points are dropped and empty numbers become "0".
func NormalizeOnBlur(t ColumnType, draft string) string {
	return behaviorFor(t).blur(draft)
}

// ParseValue converts editor text into the value stored in the row.
func ParseValue(t ColumnType, draft string) any {
	return behaviorFor(t).parse(draft)
}

// ZeroValue is what AddRow puts in a fresh row for this type.
func ZeroValue(t ColumnType) any {
	return behaviorFor(t).zero()
}

// FormatValue renders a stored value for display.
func FormatValue(col Column, v any) (string, Align) {
	b := behaviorFor(col.Type)
	if v == nil && col.Type != Checkbox && col.Type != Action {
		return "", b.align
	}
	return b.format(v)
}

// DraftText is the editor text a cell starts with when edit mode begins.
func DraftText(col Column, v any) string {
	if v == nil {
		return ""
	}
	if b := behaviorFor(col.Type); b.numeric {
		if d, ok := toDecimal(v); ok {
			return d.String()
		}
	}
	if t, ok := v.(time.Time); ok {
		return t.Format(dateLayout)
	}
	return toText(v)
}

func filterNumeric(input string, allowPoint bool, maxDecimals int) string {
	var b strings.Builder
	seenPoint := false
	decimals := 0
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			if seenPoint {
				if maxDecimals >= 0 && decimals >= maxDecimals {
					continue
				}
				decimals++
			}
			b.WriteRune(r)
		case r == '.' && allowPoint && !seenPoint:
			seenPoint = true
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || s == "." {
		return "0"
	}
	return clampMagnitude(collapseLeadingZeros(s))
}

func collapseLeadingZeros(s string) string {
	intPart, frac, hasPoint := strings.Cut(s, ".")
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	if hasPoint {
		return intPart + "." + frac
	}
	return intPart
}

func clampMagnitude(s string) string {
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return s
	}
	if d.GreaterThan(maxMagnitude) {
		return MaxMagnitude
	}
	return s
}

func blurNumeric(draft string) string {
	draft = strings.TrimSuffix(draft, ".")
	if draft == "" {
		return "0"
	}
	return draft
}

func parseInteger(draft string) any {
	n, err := strconv.ParseInt(strings.TrimSuffix(draft, "."), 10, 64)
	if err != nil {
		return int64(0)
	}
	return n
}

func parseFloat(draft string) any {
	f, err := strconv.ParseFloat(strings.TrimSuffix(draft, "."), 64)
	if err != nil {
		return float64(0)
	}
	return f
}

func parseBool(draft string) any {
	return truthy(draft)
}

func filterDate(input string) string {
	var b strings.Builder
	n := 0
	for _, r := range input {
		if n == len(dateLayout) {
			break
		}
		if (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
			n++
		}
	}
	return b.String()
}

func blurDate(draft string) string {
	if t, err := time.Parse(dateLayout, draft); err == nil {
		return t.Format(dateLayout)
	}
	return draft
}

func identity(s string) string { return s }
func rawString(s string) any   { return s }
func emptyString() any         { return "" }
func zeroInt() any             { return int64(0) }
func zeroFloat() any           { return float64(0) }

func formatText(v any) (string, Align) {
	return toText(v), AlignLeft
}

func formatNumber(v any) (string, Align) {
	if d, ok := toDecimal(v); ok {
		return d.String(), AlignRight
	}
	return toText(v), AlignLeft
}

// formatFixed shows numbers with two decimals and anything else as plain text.
func formatFixed(v any) (string, Align) {
	if d, ok := toDecimal(v); ok {
		return d.StringFixed(2), AlignRight
	}
	return toText(v), AlignLeft
}

func formatDate(v any) (string, Align) {
	if t, ok := v.(time.Time); ok {
		return t.Format(dateLayout), AlignLeft
	}
	return toText(v), AlignLeft
}

func formatCheckbox(v any) (string, Align) {
	if truthy(v) {
		return checkedGlyph, AlignCenter
	}
	return uncheckedGlyph, AlignCenter
}

func toText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toDecimal converts the numeric representations rows carry. Strings must parse fully.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint32:
		return decimal.NewFromInt(int64(v)), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case []byte:
		return toDecimal(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		}
	case []byte:
		return truthy(string(v))
	}
	return false
}
