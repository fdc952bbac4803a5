package grid

import (
	"maps"

	"github.com/google/uuid"
)

// Reserved value keys read and written by the aggregation pass.
const (
	FieldQuantity = "quantity"
	FieldPrice    = "price"
	FieldTax      = "tax"
	FieldAmount   = "amount"
	FieldTotal    = "total"
	FieldRounding = "rounding"
)

// Row is one record. Values is keyed by column id; the grid only interprets the
// aggregate flags and the reserved numeric fields.
type Row struct {
	ID       string
	Subtotal bool
	Total    bool
	Values   map[string]any

	// synthetic marks a total row the grid appended itself; it never reaches OnChange.
	synthetic bool
}

// Aggregate reports whether the row is computed rather than edited.
func (r Row) Aggregate() bool {
	return r.Subtotal || r.Total
}

// Get returns the value stored under key, or nil.
func (r Row) Get(key string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[key]
}

// Clone copies the row so that edits to the copy never reach the original.
func (r Row) Clone() Row {
	out := r
	out.Values = maps.Clone(r.Values)
	if out.Values == nil {
		out.Values = make(map[string]any)
	}
	return out
}

func (r *Row) set(key string, v any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	r.Values[key] = v
}

func newRowID() string {
	return uuid.NewString()
}

// NewSubtotal returns an empty subtotal marker row.
func NewSubtotal() Row {
	return Row{ID: newRowID(), Subtotal: true, Values: map[string]any{}}
}

// NewTotal returns an empty total row with zero rounding.
func NewTotal() Row {
	return Row{ID: newRowID(), Total: true, Values: map[string]any{FieldRounding: int64(0)}}
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
