package main

import (
	"slices"
	"testing"
)

func TestPrefixMatchPriority(t *testing.T) {
	// Create a fuzzy selector with test tables
	tables := []string{"orders", "test_users", "users", "user_profiles", "my_users"}

	fs := NewFuzzySelector(tables, nil, nil, nil)

	tests := []struct {
		search   string
		expected []string
	}{
		{
			search:   "user",
			expected: []string{"users", "user_profiles", "test_users", "my_users"}, // prefix matches first, then fuzzy
		},
		{
			search:   "test",
			expected: []string{"test_users"}, // only prefix match
		},
		{
			search:   "usr",
			expected: []string{"test_users", "users", "user_profiles", "my_users"}, // all fuzzy matches in original order
		},
		{
			search:   "ord",
			expected: []string{"orders"}, // prefix match
		},
		{
			search:   "",
			expected: []string{"orders", "test_users", "users", "user_profiles", "my_users"}, // all tables
		},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			filtered, positions, _ := fs.calculateFiltered(tt.search)
			if tt.search != "" && len(positions) != len(filtered) {
				t.Errorf("search %q: %d position lists for %d results", tt.search, len(positions), len(filtered))
			}

			if len(filtered) != len(tt.expected) {
				t.Errorf("search %q: expected %d results, got %d", tt.search, len(tt.expected), len(filtered))
				t.Errorf("expected: %v", tt.expected)
				t.Errorf("got: %v", filtered)
				return
			}

			for i, expected := range tt.expected {
				if filtered[i] != expected {
					t.Errorf("search %q: at position %d, expected %q, got %q", tt.search, i, expected, filtered[i])
				}
			}
		})
	}
}

func TestIsPrefixMatch(t *testing.T) {
	tests := []struct {
		search   string
		text     string
		expected bool
	}{
		{"user", "users", true},
		{"user", "user_profiles", true},
		{"user", "test_users", false},
		{"test", "test_users", true},
		{"usr", "users", false},
		{"", "users", true}, // empty string is prefix of everything
		{"USERS", "users", true}, // case insensitive
		{"users", "USERS", true}, // case insensitive
	}

	for _, tt := range tests {
		t.Run(tt.search+":"+tt.text, func(t *testing.T) {
			result := isPrefixMatch(tt.search, tt.text)
			if result != tt.expected {
				t.Errorf("isPrefixMatch(%q, %q) = %v, expected %v", tt.search, tt.text, result, tt.expected)
			}
		})
	}
}

func TestPrefixCount(t *testing.T) {
	fs := NewFuzzySelector([]string{"invoice_lines", "credit_notes", "invoices", "line_items"}, nil, nil, nil)
	filtered, _, prefix := fs.calculateFiltered("inv")
	if prefix != 2 {
		t.Errorf("prefix count = %d, want 2", prefix)
	}
	if want := []string{"invoice_lines", "invoices"}; !slices.Equal(filtered, want) {
		t.Errorf("filtered = %v, want %v", filtered, want)
	}
}

func TestFuzzyMatchPositions(t *testing.T) {
	tests := []struct {
		search    string
		text      string
		ok        bool
		positions []int
	}{
		{"il", "invoice_lines", true, []int{0, 8}},
		{"IL", "invoice_lines", true, []int{0, 8}},
		{"zz", "invoice_lines", false, nil},
		{"çl", "façade_lines", true, []int{2, 7}},
		{"", "stock", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.search+":"+tt.text, func(t *testing.T) {
			ok, positions := fuzzyMatch(tt.search, tt.text)
			if ok != tt.ok {
				t.Fatalf("fuzzyMatch(%q, %q) ok = %v, want %v", tt.search, tt.text, ok, tt.ok)
			}
			if ok && !slices.Equal(positions, tt.positions) {
				t.Errorf("fuzzyMatch(%q, %q) positions = %v, want %v", tt.search, tt.text, positions, tt.positions)
			}
		})
	}
}

func TestFormatTableNameWithColor(t *testing.T) {
	tests := []struct {
		table     string
		positions []int
		expected  string
	}{
		{"stock", nil, "stock"},
		{"stock", []int{0, 2}, "[darkgreen::b]s[-::-]t[darkgreen::b]o[-::-]ck"},
		{"a[b]", []int{0}, "[darkgreen::b]a[-::-][b[]"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			if got := formatTableNameWithColor(tt.table, tt.positions); got != tt.expected {
				t.Errorf("formatTableNameWithColor(%q, %v) = %q, want %q", tt.table, tt.positions, got, tt.expected)
			}
		})
	}
}

func TestOrderByRecent(t *testing.T) {
	tables := []string{"customers", "invoice_lines", "stock", "payroll"}
	tests := []struct {
		name       string
		recent     []string
		expected   []string
		wantRecent int
	}{
		{"no recent", nil, tables, 0},
		{"recent first", []string{"stock", "customers"}, []string{"stock", "customers", "invoice_lines", "payroll"}, 2},
		{"dropped tables ignored", []string{"archive", "payroll"}, []string{"payroll", "customers", "invoice_lines", "stock"}, 1},
		{"duplicates once", []string{"stock", "stock"}, []string{"stock", "customers", "invoice_lines", "payroll"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := orderByRecent(tables, tt.recent)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("orderByRecent(%v) = %v, want %v", tt.recent, got, tt.expected)
			}
			if n != tt.wantRecent {
				t.Errorf("recent count = %d, want %d", n, tt.wantRecent)
			}
		})
	}
}

func TestRecentTablesFor(t *testing.T) {
	settings := &Settings{RecentTables: []string{"shop/stock", "hr/payroll", "shop/invoice_lines"}}
	if got, want := recentTablesFor(settings, "shop"), []string{"stock", "invoice_lines"}; !slices.Equal(got, want) {
		t.Errorf("recentTablesFor(shop) = %v, want %v", got, want)
	}
	if got := recentTablesFor(nil, "shop"); got != nil {
		t.Errorf("recentTablesFor(nil) = %v, want nil", got)
	}
}
