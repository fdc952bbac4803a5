package main

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"tally/internal/grid"
)

// updateStatus shows the highlighted cell and the grid summary when nothing is
// being edited.
func (e *Editor) updateStatus() {
	if e.editing || e.statusBar == nil {
		return
	}
	g := e.grid()
	var parts []string
	if cell := highlightedCell(g); cell != "" {
		parts = append(parts, cell)
	}
	dirty := e.store != nil && e.store.Dirty()
	parts = append(parts, statusSummary(g, dirty)...)
	if len(parts) == 0 {
		e.SetStatusMessage("Ready")
		return
	}
	e.SetStatusMessage(strings.Join(parts, " · "))
}

// highlightedCell formats "header value" for the highlighted cell.
func highlightedCell(g *grid.Controller) string {
	h := g.Highlight()
	columns := g.Columns()
	if h.Column < 0 || h.Column >= len(columns) {
		return ""
	}
	row, ok := g.Row(h.RowID)
	if !ok {
		return ""
	}
	col := columns[h.Column]
	text, _ := grid.FormatValue(col, row.Get(col.ID))
	return fmt.Sprintf("[black]%s[darkgreen] %s[black]", tview.Escape(col.Header), tview.Escape(text))
}

// statusSummary lists totals, selection, page and save state.
func statusSummary(g *grid.Controller, dirty bool) []string {
	var parts []string
	profile := g.Profile()
	if profile.Totals {
		t := g.Totals()
		parts = append(parts, fmt.Sprintf("Total %s", t.Total.StringFixed(2)))
	}
	if profile.SelectionEnabled {
		if n := len(g.Selected()); n > 0 {
			parts = append(parts, fmt.Sprintf("%d selected", n))
		}
	}
	if n := g.PageCount(); n > 1 {
		parts = append(parts, fmt.Sprintf("Page %d/%d", g.Page()+1, n))
	}
	if s := g.Sort(); s.Active() {
		parts = append(parts, fmt.Sprintf("Sorted by %s %s", g.Columns()[s.Column].Header, s.Direction))
	}
	if dirty {
		parts = append(parts, "[red]● unsaved[black]")
	}
	return parts
}

// typeHint describes what a column accepts while it is edited.
func typeHint(col grid.Column) string {
	switch col.Type {
	case grid.Number:
		return "Whole number"
	case grid.Rate:
		return "Rate, up to 3 decimals"
	case grid.Float:
		return "Decimal number"
	case grid.Date:
		return "Date (YYYY-MM-DD)"
	case grid.Listbox:
		return "Choose: " + formatEnumValues(col.Options)
	case grid.Combobox:
		return fmt.Sprintf("Type to filter %d choices", len(col.Options))
	default:
		return "Text"
	}
}

// updateStatusForEditMode sets helpful status bar text based on column type
func (e *Editor) updateStatusForEditMode(col grid.Column) {
	parts := []string{tview.Escape(col.Header), typeHint(col), "Enter/Tab next · Esc revert"}
	e.SetStatusMessage(strings.Join(parts, " · "))
}

// updateEditPreview refreshes the edit hint as the draft changes.
func (e *Editor) updateEditPreview(col grid.Column, text string) {
	if col.Type != grid.Combobox {
		e.updateStatusForEditMode(col)
		return
	}
	options := e.grid().Options()
	hint := grid.NothingFound
	if len(options) > 0 {
		hint = formatEnumValuesWithHighlight(options, text)
	}
	e.SetStatusMessage(strings.Join([]string{tview.Escape(col.Header), hint, "Enter choose · Esc revert"}, " · "))
}

// formatEnumValues formats option values for display in the status bar
// Shows first few values, with "..." if there are too many
func formatEnumValues(values []string) string {
	return formatEnumValuesWithHighlight(values, "")
}

// formatEnumValuesWithHighlight formats option values and highlights the ones
// containing the current query
func formatEnumValuesWithHighlight(values []string, query string) string {
	if len(values) == 0 {
		return ""
	}

	const (
		maxDisplay = 5
		maxLength  = 60
	)
	q := strings.ToLower(strings.TrimSpace(query))

	var parts []string
	totalLen := 0
	for i, val := range values {
		if i >= maxDisplay {
			parts = append(parts, "...")
			break
		}

		displayVal := val
		if len(displayVal) > 20 {
			displayVal = displayVal[:17] + "..."
		}
		plain := "'" + displayVal + "'"
		if totalLen+len(plain)+2 > maxLength && i > 0 {
			parts = append(parts, "...")
			break
		}

		formatted := tview.Escape(plain)
		if q != "" && strings.Contains(strings.ToLower(val), q) {
			formatted = "[green]" + formatted + "[black]"
		}
		parts = append(parts, formatted)
		totalLen += len(plain) + 2
	}
	return strings.Join(parts, ", ")
}

// Status bar API methods
func (e *Editor) SetStatusMessage(message string) {
	if e.statusBar != nil {
		e.statusBar.SetText(message)
	}
}

func (e *Editor) SetStatusError(message string) {
	if e.statusBar != nil {
		e.statusBar.SetText("[red]ERROR: " + tview.Escape(message) + "[black]")
	}
}

// SetStatusErrorWithSentry sets an error status and sends it to Sentry
func (e *Editor) SetStatusErrorWithSentry(err error) {
	e.SetStatusError(err.Error())
	CaptureError(err)
}

func (e *Editor) SetStatusLog(message string) {
	if e.statusBar != nil {
		e.statusBar.SetText("[blue]LOG: " + tview.Escape(message) + "[black]")
	}
}
