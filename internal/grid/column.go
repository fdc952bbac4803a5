package grid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownColumnType = errors.New("unknown column type")
	ErrDuplicateColumn   = errors.New("duplicate column id")
	ErrMultipleTotals    = errors.New("more than one total row")
)

// ColumnType selects how a column renders, validates and sorts its cells.
type ColumnType int

const (
	Text ColumnType = iota
	Number
	Rate
	Float
	Amount
	Date
	Checkbox
	Listbox
	Combobox
	Readonly
	Action
)

var columnTypeNames = map[ColumnType]string{
	Text:     "text",
	Number:   "number",
	Rate:     "rate",
	Float:    "float",
	Amount:   "amount",
	Date:     "date",
	Checkbox: "checkbox",
	Listbox:  "listbox",
	Combobox: "combobox",
	Readonly: "readonly",
	Action:   "action",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ParseColumnType maps a schema type name to a ColumnType. The empty string is text.
func ParseColumnType(name string) (ColumnType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Text, nil
	}
	for t, n := range columnTypeNames {
		if n == name {
			return t, nil
		}
	}
	return Text, fmt.Errorf("%w: %q", ErrUnknownColumnType, name)
}

// UnmarshalText lets column types be decoded straight from schema files.
func (t *ColumnType) UnmarshalText(b []byte) error {
	parsed, err := ParseColumnType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// NumericLike reports whether values of this type sort and align as numbers.
func (t ColumnType) NumericLike() bool {
	return behaviorFor(t).numeric
}

// CellContext is handed to a column's custom renderer.
type CellContext struct {
	Row      Row
	Column   Column
	Index    int // absolute index of the row
	Value    any
	Editing  bool
	Selected bool
}

// Column describes one grid column.
type Column struct {
	ID      string
	Header  string
	Type    ColumnType
	Width   int
	Options []string

	// Render replaces the formatted display value when set.
	Render func(CellContext) string

	// ReadOnly disables editing regardless of the column type.
	ReadOnly bool
}

// Editable reports whether a click on a data row may put this column in edit mode.
func (c Column) Editable() bool {
	return !c.ReadOnly && behaviorFor(c.Type).editable
}

// Tabbable reports whether Tab/Enter navigation may land on this column.
func (c Column) Tabbable() bool {
	return !c.ReadOnly && behaviorFor(c.Type).tabbable
}

// Sortable reports whether the header toggles sorting for this column.
func (c Column) Sortable() bool {
	return c.Type != Action
}

func validateColumns(columns []Column) error {
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if _, ok := seen[col.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, col.ID)
		}
		seen[col.ID] = struct{}{}
		if _, ok := columnTypeNames[col.Type]; !ok {
			return fmt.Errorf("%w: column %q", ErrUnknownColumnType, col.ID)
		}
	}
	return nil
}
