package main

import (
	"fmt"
	"slices"
	"testing"
)

func TestSettingsRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.FirstRunComplete || s.TelemetryEnabled {
		t.Errorf("defaults = %+v", s)
	}

	s.FirstRunComplete = true
	s.TouchRecent("shop.db/invoice_lines")
	if err := SaveSettings(s); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	loaded, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if !loaded.FirstRunComplete || !slices.Equal(loaded.RecentTables, []string{"shop.db/invoice_lines"}) {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestTouchRecent(t *testing.T) {
	var s Settings
	for i := range maxRecentTables + 2 {
		s.TouchRecent(fmt.Sprintf("t%d", i))
	}
	if len(s.RecentTables) != maxRecentTables || s.RecentTables[0] != "t11" {
		t.Errorf("recent = %v", s.RecentTables)
	}
	s.TouchRecent("t5")
	if s.RecentTables[0] != "t5" || slices.Index(s.RecentTables, "t5") != lastIndex(s.RecentTables, "t5") {
		t.Errorf("recent = %v", s.RecentTables)
	}
}

// lastIndex returns the index of the last occurrence of v in s, or -1.
func lastIndex(s []string, v string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == v {
			return i
		}
	}
	return -1
}
