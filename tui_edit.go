package main

import (
	"slices"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"tally/internal/grid"
)

// visible rows of a listbox or combobox dropdown
const maxChoiceRows = 6

// syncEditor makes the overlay follow the controller's edit cursor: it opens,
// moves or closes the editor as the grid says.
func (e *Editor) syncEditor() {
	cur, ok := e.grid().Editing()
	switch {
	case !ok:
		e.closeEditor()
	case !e.editing || cur != e.editCursor:
		e.openEditor(cur)
	case e.choiceList != nil:
		e.fillChoices()
	}
}

func (e *Editor) openEditor(cur grid.Cursor) {
	e.pages.RemovePage(pageEditor)
	e.editField, e.choiceList = nil, nil

	col := e.grid().Columns()[cur.Column]
	x, y, width, ok := e.table.CellRect(cur)
	if !ok {
		// the cell is below the screen edge; keep the value and leave edit mode
		e.grid().Commit()
		e.closeEditor()
		e.SetStatusError("Cell is off screen; enlarge the terminal or lower the page size")
		return
	}

	var overlay, focus tview.Primitive
	height := 1
	switch col.Type {
	case grid.Listbox:
		e.choiceList = e.newChoiceList()
		e.fillChoices()
		height = min(max(len(e.grid().Options()), 1), maxChoiceRows)
		overlay, focus = e.choiceList, e.choiceList
	case grid.Combobox:
		e.editField = e.newEditField(col)
		e.choiceList = e.newChoiceList()
		e.fillChoices()
		height = 1 + maxChoiceRows
		overlay = tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(e.editField, 1, 0, true).
			AddItem(e.choiceList, 0, 1, false)
		focus = e.editField
	default:
		e.editField = e.newEditField(col)
		overlay, focus = e.editField, e.editField
	}

	e.editing = true
	e.editCursor = cur
	e.pages.AddPage(pageEditor, createCellEditOverlay(overlay, x, y, width, height), true, true)
	e.app.SetFocus(focus)
	e.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		screen.SetCursorStyle(tcell.CursorStyleBlinkingBar)
	})
	e.setPaletteMode(PaletteModeEdit, false)
	e.updateStatusForEditMode(col)
	if breadcrumbs != nil {
		breadcrumbs.RecordNavigation("edit", col.ID)
	}
}

// createCellEditOverlay positions p over a cell with spacer items, the way tview
// pages lay out a floating primitive.
func createCellEditOverlay(p tview.Primitive, x, y, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, x, 0, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, y, 0, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

func (e *Editor) closeEditor() {
	if !e.editing {
		return
	}
	e.pages.RemovePage(pageEditor)
	e.editField, e.choiceList = nil, nil
	e.editing = false
	e.app.SetAfterDrawFunc(nil)
	e.app.SetFocus(e.table)
	e.setPaletteMode(PaletteModeDefault, false)
}

// commitEdit leaves edit mode keeping the value.
func (e *Editor) commitEdit() {
	if _, ok := e.grid().Editing(); !ok {
		return
	}
	e.grid().Commit()
	e.table.refresh()
}

// gridKey hands an edit-mode key to the controller.
func (e *Editor) gridKey(k grid.Key, name string) {
	if breadcrumbs != nil {
		breadcrumbs.RecordKeyboard(name, "")
	}
	if e.grid().Key(k) {
		recordGrid("key", name)
	}
	e.table.refresh()
}

func (e *Editor) newEditField(col grid.Column) *tview.InputField {
	text := e.grid().Draft()
	if col.Type == grid.Combobox {
		text = e.grid().Query()
	}
	field := tview.NewInputField().
		SetText(text).
		SetFieldWidth(0).
		SetFieldBackgroundColor(tcell.ColorRoyalBlue).
		SetFieldTextColor(tcell.ColorWhite)
	if col.Type == grid.Combobox {
		field.SetPlaceholder("Search...")
	}

	field.SetChangedFunc(func(text string) {
		if !e.editing {
			return
		}
		filtered := e.grid().Input(text)
		if filtered != text {
			// SetText calls back here with the filtered text, which passes unchanged
			field.SetText(filtered)
			return
		}
		if e.choiceList != nil {
			e.fillChoices()
		}
		e.updateEditPreview(col, filtered)
	})

	field.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			if col.Type == grid.Combobox {
				e.chooseCurrent()
				return nil
			}
			e.gridKey(grid.KeyEnter, "Enter")
			return nil
		case tcell.KeyTab:
			e.gridKey(grid.KeyTab, "Tab")
			return nil
		case tcell.KeyEscape:
			e.gridKey(grid.KeyEscape, "Escape")
			return nil
		case tcell.KeyDown:
			if e.choiceList != nil && e.choiceList.GetItemCount() > 0 {
				e.app.SetFocus(e.choiceList)
				return nil
			}
		case tcell.KeyCtrlS:
			e.save()
			return nil
		}
		return event
	})
	return field
}

func (e *Editor) newChoiceList() *tview.List {
	list := tview.NewList().
		SetWrapAround(true).
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	list.SetBackgroundColor(tcell.ColorDarkSlateGray)

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			e.chooseCurrent()
			return nil
		case tcell.KeyTab:
			e.gridKey(grid.KeyTab, "Tab")
			return nil
		case tcell.KeyEscape:
			e.gridKey(grid.KeyEscape, "Escape")
			return nil
		case tcell.KeyUp:
			if list.GetCurrentItem() == 0 && e.editField != nil {
				e.app.SetFocus(e.editField)
				return nil
			}
		}
		return event
	})
	return list
}

// fillChoices lists the options the controller offers for the current query.
func (e *Editor) fillChoices() {
	list := e.choiceList
	options := e.grid().Options()
	list.Clear()
	if len(options) == 0 {
		list.AddItem(grid.NothingFound, "", 0, nil)
		return
	}
	for _, option := range options {
		list.AddItem(tview.Escape(option), "", 0, nil)
	}
	if current := slices.Index(options, e.grid().Draft()); current >= 0 {
		list.SetCurrentItem(current)
	}
}

// chooseCurrent picks the highlighted option. The "Nothing found." entry is not
// an option, so Choose refuses it and edit mode stays open.
func (e *Editor) chooseCurrent() {
	options := e.grid().Options()
	idx := e.choiceList.GetCurrentItem()
	if idx < 0 || idx >= len(options) {
		return
	}
	if e.grid().Choose(options[idx]) {
		recordGrid("choose", options[idx])
	}
	e.table.refresh()
}
