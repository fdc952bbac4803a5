package grid

import (
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortDirection int

const (
	Unsorted SortDirection = iota
	Ascending
	Descending
)

func (d SortDirection) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "none"
	}
}

// next advances the header cycle unsorted → ascending → descending → unsorted.
func (d SortDirection) next() SortDirection {
	switch d {
	case Unsorted:
		return Ascending
	case Ascending:
		return Descending
	default:
		return Unsorted
	}
}

// SortState is the active sort. Column is -1 when unsorted.
type SortState struct {
	Column    int
	Direction SortDirection
}

func (s SortState) Active() bool {
	return s.Direction != Unsorted && s.Column >= 0
}

var textCollator = collate.New(language.Und, collate.IgnoreCase, collate.Numeric)

// compareValues orders two cell values of the given column type.
func compareValues(t ColumnType, a, b any) int {
	switch {
	case t.NumericLike():
		da, _ := toDecimal(a)
		db, _ := toDecimal(b)
		return da.Cmp(db)
	case t == Checkbox:
		ba, bb := truthy(a), truthy(b)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case t == Date:
		ta, errA := parseDate(a)
		tb, errB := parseDate(b)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
	}
	return textCollator.CompareString(toText(a), toText(b))
}

func parseDate(v any) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	return time.Parse(dateLayout, toText(v))
}

// sortedOrder returns the ids of rows ordered by the sort state. Subtotal rows are
// left out and the total row is kept last.
func sortedOrder(rows []Row, col Column, dir SortDirection) []string {
	data := make([]Row, 0, len(rows))
	var total []Row
	for _, r := range rows {
		switch {
		case r.Subtotal:
		case r.Total:
			total = append(total, r)
		default:
			data = append(data, r)
		}
	}
	slices.SortStableFunc(data, func(a, b Row) int {
		c := compareValues(col.Type, a.Get(col.ID), b.Get(col.ID))
		if dir == Descending {
			return -c
		}
		return c
	})
	ids := make([]string, 0, len(data)+len(total))
	for _, r := range data {
		ids = append(ids, r.ID)
	}
	for _, r := range total {
		ids = append(ids, r.ID)
	}
	return ids
}
