package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

const keybindingHelp = "Ctrl+… S: Save · N: New row · D: Delete row · A: Select all · T: Tables · P: Commands · Q: Quit"

func (e *Editor) setupKeyBindings() {
	e.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		key := event.Key()
		r := event.Rune()
		mod := event.Modifiers()

		if breadcrumbs != nil {
			breadcrumbs.RecordKeyboard(keyString(event), modifierString(mod))
		}
		if key != tcell.KeyCtrlQ {
			e.quitArmed = false
		}

		switch {
		case key == tcell.KeyCtrlS:
			e.save()
			return nil
		case key == tcell.KeyCtrlN:
			e.addRow()
			return nil
		case key == tcell.KeyCtrlD:
			e.deleteHighlightedRow()
			return nil
		case key == tcell.KeyCtrlA:
			e.grid().ToggleSelectAll()
			e.table.refresh()
			return nil
		case key == tcell.KeyCtrlT:
			e.openPicker()
			return nil
		case key == tcell.KeyCtrlP:
			e.setPaletteMode(PaletteModeCommand, true)
			return nil
		case key == tcell.KeyCtrlQ:
			e.quit()
			return nil
		case key == tcell.KeyRune && r == '=' && mod&tcell.ModCtrl != 0:
			e.adjustColumnWidth(1)
			return nil
		case key == tcell.KeyRune && r == '-' && mod&tcell.ModCtrl != 0:
			e.adjustColumnWidth(-1)
			return nil
		case key == tcell.KeyLeft && mod&tcell.ModAlt != 0:
			e.table.viewport.ScrollLeft()
			return nil
		case key == tcell.KeyRight && mod&tcell.ModAlt != 0:
			e.table.viewport.ScrollRight()
			return nil
		}
		return event
	})
}

func keyString(event *tcell.EventKey) string {
	if event.Key() == tcell.KeyRune {
		return string(event.Rune())
	}
	return tcell.KeyNames[event.Key()]
}

func modifierString(mod tcell.ModMask) string {
	s := ""
	if mod&tcell.ModCtrl != 0 {
		s += "Ctrl+"
	}
	if mod&tcell.ModShift != 0 {
		s += "Shift+"
	}
	if mod&tcell.ModAlt != 0 {
		s += "Alt+"
	}
	return s
}

// addRow appends a row before any total, brings its page into view and
// highlights its first cell.
func (e *Editor) addRow() {
	g := e.grid()
	if len(g.Columns()) == 0 {
		return
	}
	e.commitEdit()
	row := g.AddRow()
	g.SetPage(g.PageCount() - 1)
	g.Focus(row.ID, 0)
	recordGrid("add", row.ID)
	e.table.refresh()
}

func (e *Editor) deleteHighlightedRow() {
	g := e.grid()
	h := g.Highlight()
	row, ok := g.Row(h.RowID)
	if !ok {
		return
	}
	if row.Aggregate() && !row.Subtotal {
		e.SetStatusError("The total row cannot be deleted")
		return
	}
	e.commitEdit()
	if g.DeleteRowByID(row.ID) {
		recordGrid("delete", row.ID)
		e.table.refresh()
	}
}

// adjustColumnWidth widens or narrows the highlighted column by one cell.
func (e *Editor) adjustColumnWidth(delta int) {
	g := e.grid()
	col := g.Highlight().Column
	columns := g.Columns()
	if col < 0 || col >= len(columns) {
		return
	}
	g.SetColumnWidth(col, columns[col].Width+delta*pixelsPerCell)
	e.table.refresh()
}

// quit stops the application; with unsaved rows the first press only warns.
func (e *Editor) quit() {
	if e.store != nil && e.store.Dirty() && !e.quitArmed {
		e.quitArmed = true
		e.SetStatusError(fmt.Sprintf("%s has unsaved changes; Ctrl+Q again to quit without saving", e.tableName))
		return
	}
	e.app.Stop()
}
