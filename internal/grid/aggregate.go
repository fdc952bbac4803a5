package grid

import (
	"github.com/shopspring/decimal"
)

// RowTotalFunc overrides the per-row total. Returning false falls back to
// quantity × price + tax.
type RowTotalFunc func(Row) (decimal.Decimal, bool)

// Totals is the result of one recomputation pass.
type Totals struct {
	Amount   decimal.Decimal // sum of quantity × price over data rows
	Tax      decimal.Decimal
	Rounding decimal.Decimal
	Total    decimal.Decimal // sum of per-row totals plus rounding
}

func decimalField(r Row, key string) decimal.Decimal {
	d, _ := toDecimal(r.Get(key))
	return d
}

func hasField(r Row, key string) bool {
	_, ok := r.Values[key]
	return ok
}

// rowTotal computes the line total of a data row and whether quantity/price were
// present so the caller knows to write amount back.
func rowTotal(r Row, override RowTotalFunc) (amount, total decimal.Decimal, priced bool) {
	priced = hasField(r, FieldQuantity) && hasField(r, FieldPrice)
	if priced {
		amount = decimalField(r, FieldQuantity).Mul(decimalField(r, FieldPrice))
	}
	if override != nil {
		if t, ok := override(r); ok {
			return amount, t, priced
		}
	}
	if !priced {
		// rows without a price carry their own total, if any
		return amount, decimalField(r, FieldTotal), false
	}
	return amount, amount.Add(decimalField(r, FieldTax)), true
}

// recompute rewrites subtotal and total rows in place and keeps the total row last.
// When appendTotal is set and no total row exists, a synthetic one is appended.
func recompute(rows []Row, override RowTotalFunc, appendTotal bool) ([]Row, Totals) {
	var (
		totals   Totals
		running  decimal.Decimal
		totalRow *Row
	)
	out := make([]Row, 0, len(rows)+1)
	for _, r := range rows {
		if r.Total {
			tr := r
			totalRow = &tr
			continue
		}
		if r.Subtotal {
			r.set(FieldAmount, running.StringFixed(2))
			r.set(FieldTotal, running.StringFixed(2))
			running = decimal.Zero
			out = append(out, r)
			continue
		}
		amount, total, priced := rowTotal(r, override)
		if priced {
			r.set(FieldAmount, amount.StringFixed(2))
			r.set(FieldTotal, total.StringFixed(2))
		}
		totals.Amount = totals.Amount.Add(amount)
		totals.Tax = totals.Tax.Add(decimalField(r, FieldTax))
		totals.Total = totals.Total.Add(total)
		running = running.Add(total)
		out = append(out, r)
	}

	if totalRow == nil && appendTotal {
		tr := NewTotal()
		tr.synthetic = true
		totalRow = &tr
	}
	if totalRow != nil {
		totals.Rounding = decimalField(*totalRow, FieldRounding)
		totals.Total = totals.Total.Add(totals.Rounding)
		totalRow.set(FieldAmount, totals.Total.StringFixed(2))
		totalRow.set(FieldTotal, totals.Total.StringFixed(2))
		out = append(out, *totalRow)
	}
	return out, totals
}
