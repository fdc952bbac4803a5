package main

import (
	"slices"
	"strings"
	"testing"

	"tally/internal/grid"
)

func TestStatusSummary(t *testing.T) {
	t.Run("plain table on one page", func(t *testing.T) {
		g, err := grid.New(invoiceColumns(), invoiceRows(2), grid.Options{TableKey: "stock"})
		if err != nil {
			t.Fatal(err)
		}
		if got := statusSummary(g, false); len(got) != 0 {
			t.Errorf("statusSummary = %v, want nothing", got)
		}
	})

	t.Run("totals pages and unsaved", func(t *testing.T) {
		g, err := grid.New(invoiceColumns(), invoiceRows(3), grid.Options{TableKey: "invoice-lines", PageSize: 2})
		if err != nil {
			t.Fatal(err)
		}
		got := statusSummary(g, true)
		want := []string{"Total 60.00", "Page 1/2", "[red]● unsaved[black]"}
		if !slices.Equal(got, want) {
			t.Errorf("statusSummary = %v, want %v", got, want)
		}
	})

	t.Run("selection and sort", func(t *testing.T) {
		g, err := grid.New(invoiceColumns(), invoiceRows(3), grid.Options{TableKey: "einvoice-submit"})
		if err != nil {
			t.Fatal(err)
		}
		g.ToggleRow(1)
		g.ToggleSort(1)
		got := strings.Join(statusSummary(g, false), " · ")
		if !strings.Contains(got, "1 selected") {
			t.Errorf("summary %q lacks the selection count", got)
		}
		if !strings.Contains(got, "Sorted by Qty") {
			t.Errorf("summary %q lacks the sort column", got)
		}
	})
}

func TestFormatEnumValuesWithHighlight(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		query    string
		expected string
	}{
		{"empty", nil, "", ""},
		{"plain", []string{"kg", "pcs"}, "", "'kg', 'pcs'"},
		{"highlight", []string{"kg", "pcs"}, "PC", "'kg', [green]'pcs'[black]"},
		{"more than five", []string{"a", "b", "c", "d", "e", "f"}, "", "'a', 'b', 'c', 'd', 'e', ..."},
		{"long value shortened", []string{"abcdefghijklmnopqrstuvwxyz"}, "", "'abcdefghijklmnopq...'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatEnumValuesWithHighlight(tt.values, tt.query); got != tt.expected {
				t.Errorf("formatEnumValuesWithHighlight(%v, %q) = %q, want %q", tt.values, tt.query, got, tt.expected)
			}
		})
	}
}

func TestTypeHint(t *testing.T) {
	tests := []struct {
		col      grid.Column
		expected string
	}{
		{grid.Column{Type: grid.Number}, "Whole number"},
		{grid.Column{Type: grid.Date}, "Date (YYYY-MM-DD)"},
		{grid.Column{Type: grid.Listbox, Options: []string{"kg"}}, "Choose: 'kg'"},
		{grid.Column{Type: grid.Combobox, Options: []string{"a", "b"}}, "Type to filter 2 choices"},
		{grid.Column{Type: grid.Text}, "Text"},
	}

	for _, tt := range tests {
		t.Run(tt.col.Type.String(), func(t *testing.T) {
			if got := typeHint(tt.col); got != tt.expected {
				t.Errorf("typeHint(%v) = %q, want %q", tt.col.Type, got, tt.expected)
			}
		})
	}
}
