package grid

import "sync"

// Profile is the set of behaviour switches a tableKey selects.
type Profile struct {
	// SortingDisabled hides sort affordances; used by grouped tables whose
	// subtotal rows depend on row order.
	SortingDisabled bool
	// SelectionEnabled adds row checkboxes and the select-all control.
	SelectionEnabled bool
	// Totals appends a total row when the caller supplied none.
	Totals bool
}

var (
	profilesMu sync.RWMutex
	profiles   = map[string]Profile{
		"invoice-lines":      {SortingDisabled: true, Totals: true},
		"credit-note-lines":  {SortingDisabled: true, Totals: true},
		"einvoice-submit":    {SelectionEnabled: true},
		"einvoice-cancel":    {SelectionEnabled: true},
		"payroll-incentives": {SelectionEnabled: true, Totals: true},
		"stock":              {},
	}
)

// RegisterProfile adds or replaces the profile for a tableKey.
func RegisterProfile(tableKey string, p Profile) {
	profilesMu.Lock()
	defer profilesMu.Unlock()
	profiles[tableKey] = p
}

// ProfileFor returns the profile for a tableKey. Unknown keys get the zero
// profile: sortable, no selection, no synthetic total.
func ProfileFor(tableKey string) Profile {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	return profiles[tableKey]
}
