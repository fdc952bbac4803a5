package grid

import (
	"testing"

	"github.com/shopspring/decimal"
)

func line(qty, price, tax any) Row {
	return Row{ID: newRowID(), Values: map[string]any{
		FieldQuantity: qty,
		FieldPrice:    price,
		FieldTax:      tax,
	}}
}

func TestRecomputeScenario(t *testing.T) {
	rows := []Row{
		line(2, 5, 0),
		NewSubtotal(),
		line(1, 10, 0),
	}
	out, totals := recompute(rows, nil, true)
	if len(out) != 4 {
		t.Fatalf("expected appended total row, got %d rows", len(out))
	}
	if got := out[1].Get(FieldTotal); got != "10.00" {
		t.Errorf("subtotal total = %v, want 10.00", got)
	}
	last := out[3]
	if !last.Total || !last.synthetic {
		t.Fatalf("last row is not the synthetic total: %+v", last)
	}
	if got := last.Get(FieldTotal); got != "20.00" {
		t.Errorf("total = %v, want 20.00", got)
	}
	if !totals.Total.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Totals.Total = %s", totals.Total)
	}
}

func TestRecomputeSubtotalGroups(t *testing.T) {
	rows := []Row{
		line(1, "2.50", "0.25"),
		line(3, 4, 1),
		NewSubtotal(),
		line(2, 2, 0),
		NewSubtotal(),
		NewSubtotal(),
		line(1, 1, 0),
	}
	out, totals := recompute(rows, nil, false)
	want := map[int]string{2: "15.75", 4: "4.00", 5: "0.00"}
	for i, w := range want {
		if got := out[i].Get(FieldTotal); got != w {
			t.Errorf("subtotal at %d = %v, want %s", i, got, w)
		}
	}
	if got := out[0].Get(FieldAmount); got != "2.50" {
		t.Errorf("row amount = %v, want 2.50", got)
	}
	if got := out[1].Get(FieldTotal); got != "13.00" {
		t.Errorf("row total = %v, want 13.00", got)
	}
	// the grand total ignores subtotal resets
	if !totals.Total.Equal(decimal.RequireFromString("20.75")) {
		t.Errorf("Totals.Total = %s, want 20.75", totals.Total)
	}
	if len(out) != len(rows) {
		t.Errorf("no total row expected, got %d rows", len(out))
	}
}

func TestRecomputeRounding(t *testing.T) {
	for _, tt := range []struct {
		rounding string
		want     string
	}{
		{"0", "20.00"},
		{"0.05", "20.05"},
		{"-0.25", "19.75"},
		{"-20", "0.00"},
	} {
		t.Run(tt.rounding, func(t *testing.T) {
			total := NewTotal()
			total.Values[FieldRounding] = tt.rounding
			out, _ := recompute([]Row{line(2, 5, 0), line(1, 10, 0), total}, nil, false)
			if got := out[2].Get(FieldTotal); got != tt.want {
				t.Errorf("total = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestRecomputeMovesTotalLast(t *testing.T) {
	total := NewTotal()
	out, _ := recompute([]Row{total, line(1, 1, 0)}, nil, true)
	if !out[1].Total || out[1].ID != total.ID {
		t.Errorf("total row not moved last: %+v", out)
	}
	if len(out) != 2 {
		t.Errorf("caller total must not be duplicated, got %d rows", len(out))
	}
}

func TestRecomputeOverride(t *testing.T) {
	override := func(r Row) (decimal.Decimal, bool) {
		if r.Get("flat") == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(100), true
	}
	flat := line(1, 1, 0)
	flat.Values["flat"] = true
	out, totals := recompute([]Row{flat, line(1, 1, 0)}, override, false)
	if got := out[0].Get(FieldTotal); got != "100.00" {
		t.Errorf("overridden total = %v", got)
	}
	if !totals.Total.Equal(decimal.NewFromInt(101)) {
		t.Errorf("Totals.Total = %s, want 101", totals.Total)
	}
}

func TestRecomputeUnpricedRows(t *testing.T) {
	r := Row{ID: newRowID(), Values: map[string]any{FieldTotal: "12.5"}}
	out, totals := recompute([]Row{r, NewSubtotal()}, nil, false)
	if got := out[1].Get(FieldTotal); got != "12.50" {
		t.Errorf("subtotal = %v, want 12.50", got)
	}
	if got := out[0].Get(FieldTotal); got != "12.5" {
		t.Errorf("unpriced row total rewritten to %v", got)
	}
	if !totals.Total.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Totals.Total = %s", totals.Total)
	}
}
