package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"

	"tally/internal/grid"
)

// grid widths are pixels; a terminal cell counts as this many
const pixelsPerCell = 8

// checkboxLane marks the selection column, which has no grid column behind it.
const checkboxLane = -1

var checkGlyphs = map[grid.CheckState]string{
	grid.Unchecked:     "☐",
	grid.Indeterminate: "▣",
	grid.Checked:       "☑",
}

// Viewport handles horizontal scrolling for the table
type Viewport struct {
	scrollX     int
	screen      tcell.Screen
	tableWidth  int
	screenWidth int
}

func NewViewport() *Viewport {
	return &Viewport{}
}

func (v *Viewport) SetScreen(screen tcell.Screen) {
	v.screen = screen
}

// SetDimensions records the content and visible widths and clamps the offset.
func (v *Viewport) SetDimensions(tableWidth, screenWidth int) {
	v.tableWidth = tableWidth
	v.screenWidth = screenWidth
	if v.tableWidth <= v.screenWidth {
		v.scrollX = 0
		return
	}
	v.scrollX = min(v.scrollX, v.tableWidth-v.screenWidth)
}

// SetContent calls screen.SetContent with x adjusted by scrollX
func (v *Viewport) SetContent(x, y int, ch rune, combc []rune, style tcell.Style) {
	if v.screen != nil {
		v.screen.SetContent(x-v.scrollX, y, ch, combc, style)
	}
}

func (v *Viewport) ScrollLeft() {
	if v.scrollX > 0 {
		v.scrollX--
	}
}

func (v *Viewport) ScrollRight() {
	if v.tableWidth > v.screenWidth && v.scrollX < v.tableWidth-v.screenWidth {
		v.scrollX++
	}
}

func (v *Viewport) GetScrollX() int {
	return v.scrollX
}

// EnsureColumnVisible scrolls so that [startX, endX) fits in the visible area.
func (v *Viewport) EnsureColumnVisible(startX, endX, screenWidth int) {
	switch {
	case endX-startX >= screenWidth, startX < v.scrollX:
		v.scrollX = startX
	case endX > v.scrollX+screenWidth:
		v.scrollX = endX - screenWidth
	}
	v.scrollX = max(0, v.scrollX)
}

type lane struct {
	column int // grid column, or checkboxLane
	width  int // content width in cells
}

// GridView draws a grid.Controller frame and turns pointer and key events into
// controller transitions.
type GridView struct {
	*tview.Box

	grid      *grid.Controller
	frame     grid.Frame
	tableName string

	cellPadding   int
	borderColor   tcell.Color
	headerColor   tcell.Color
	headerBgColor tcell.Color

	viewport *Viewport

	changeFunc         func() // after every transition
	tableNameClickFunc func()

	prevCapture func(*tcell.EventMouse, tview.MouseAction) (*tcell.EventMouse, tview.MouseAction)
	mounted     *tview.Application
}

func NewGridView(g *grid.Controller) *GridView {
	tv := &GridView{
		Box:           tview.NewBox(),
		grid:          g,
		cellPadding:   1,
		borderColor:   tcell.ColorWhite,
		headerColor:   tcell.ColorWhite,
		headerBgColor: tcell.ColorDarkSlateGray,
		viewport:      NewViewport(),
	}
	tv.SetBorder(false)
	tv.frame = g.Frame()
	return tv
}

func (tv *GridView) SetTableName(name string) *GridView {
	tv.tableName = name
	return tv
}

func (tv *GridView) SetChangeFunc(handler func()) *GridView {
	tv.changeFunc = handler
	return tv
}

func (tv *GridView) SetTableNameClickFunc(handler func()) *GridView {
	tv.tableNameClickFunc = handler
	return tv
}

// SetGrid swaps the controller, as when another table is opened.
func (tv *GridView) SetGrid(g *grid.Controller) *GridView {
	tv.grid.Resizer().End()
	tv.grid = g
	tv.frame = g.Frame()
	tv.viewport.scrollX = 0
	return tv
}

func (tv *GridView) Grid() *grid.Controller {
	return tv.grid
}

// Mount installs the application mouse capture that commits an open edit when
// the pointer goes down outside the grid. Unmount restores the previous capture.
func (tv *GridView) Mount(app *tview.Application, onOutside func()) {
	if tv.mounted != nil {
		tv.Unmount()
	}
	prev := app.GetMouseCapture()
	tv.prevCapture = prev
	tv.mounted = app
	app.SetMouseCapture(func(event *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
		if action == tview.MouseLeftDown && event != nil {
			if x, y := event.Position(); !tv.InRect(x, y) {
				if _, editing := tv.grid.Editing(); editing && onOutside != nil {
					onOutside()
				}
			}
		}
		if prev != nil {
			return prev(event, action)
		}
		return event, action
	})
}

func (tv *GridView) Unmount() {
	tv.grid.Resizer().End()
	if tv.mounted == nil {
		return
	}
	tv.mounted.SetMouseCapture(tv.prevCapture)
	tv.mounted = nil
	tv.prevCapture = nil
}

// refresh re-snapshots the controller and notifies the host.
func (tv *GridView) refresh() {
	tv.frame = tv.grid.Frame()
	if tv.changeFunc != nil {
		tv.changeFunc()
	}
}

func cellsFor(px int) int {
	return max(1, px/pixelsPerCell)
}

func (tv *GridView) lanes() []lane {
	out := make([]lane, 0, len(tv.frame.Header)+1)
	if tv.frame.Selection {
		out = append(out, lane{column: checkboxLane, width: 1})
	}
	for _, h := range tv.frame.Header {
		out = append(out, lane{column: h.Column, width: cellsFor(h.Width)})
	}
	return out
}

func (tv *GridView) tableWidth(lanes []lane) int {
	width := 1
	for _, l := range lanes {
		width += l.width + 2*tv.cellPadding + 1
	}
	return width
}

func (tv *GridView) nameOffset() int {
	if tv.tableName != "" {
		return 1
	}
	return 0
}

func (tv *GridView) headerY() int { return tv.nameOffset() + 1 }
func (tv *GridView) bodyY() int   { return tv.nameOffset() + 3 }
func (tv *GridView) pagerY() int  { return tv.bodyY() + len(tv.frame.Rows) + 1 }

func (tv *GridView) Draw(screen tcell.Screen) {
	tv.Box.DrawForSubclass(screen, tv)
	tv.frame = tv.grid.Frame()
	x, y, width, height := tv.GetInnerRect()
	if len(tv.frame.Header) == 0 || width <= 0 || height <= 0 {
		return
	}

	lanes := tv.lanes()
	tableWidth := tv.tableWidth(lanes)
	tv.viewport.SetScreen(screen)
	tv.viewport.SetDimensions(tableWidth, width)

	bottom := y + height
	line := y
	if tv.tableName != "" {
		tview.Print(screen, fmt.Sprintf(" %s ▾", tview.Escape(tv.tableName)), x, line, width, tview.AlignLeft, tcell.ColorYellow)
		line++
	}
	if line < bottom {
		tv.drawBorder(x, line, lanes, '┌', '─', '┬', '┐')
		line++
	}
	if line < bottom {
		tv.drawHeaderRow(x, line, lanes)
		line++
	}
	if line < bottom {
		tv.drawBorder(x, line, lanes, '┝', '━', '┿', '┥')
		line++
	}
	for i := range tv.frame.Rows {
		if line >= bottom {
			break
		}
		tv.drawBodyRow(x, line, lanes, tv.frame.Rows[i])
		line++
	}
	if line < bottom {
		tv.drawBorder(x, line, lanes, '└', '─', '┴', '┘')
		line++
	}
	if line < bottom && tv.frame.PageCount > 1 {
		tview.Print(screen, tv.pagerText(), x, line, width, tview.AlignLeft, tcell.ColorWhite)
	}
}

func (tv *GridView) pagerText() string {
	return fmt.Sprintf(" ◀ Page %d of %d ▶", tv.frame.Page+1, tv.frame.PageCount)
}

func (tv *GridView) drawBorder(x, y int, lanes []lane, left, fill, junction, right rune) {
	style := tcell.StyleDefault.Foreground(tv.borderColor)
	tv.viewport.SetContent(x, y, left, nil, style)
	pos := x + 1
	for i, l := range lanes {
		for j := range l.width + 2*tv.cellPadding {
			tv.viewport.SetContent(pos+j, y, fill, nil, style)
		}
		pos += l.width + 2*tv.cellPadding
		if i < len(lanes)-1 {
			tv.viewport.SetContent(pos, y, junction, nil, style)
		} else {
			tv.viewport.SetContent(pos, y, right, nil, style)
		}
		pos++
	}
}

func (tv *GridView) drawHeaderRow(x, y int, lanes []lane) {
	border := tcell.StyleDefault.Foreground(tv.borderColor)
	style := tcell.StyleDefault.Bold(true).Foreground(tv.headerColor).Background(tv.headerBgColor)
	tv.viewport.SetContent(x, y, '│', nil, border)
	pos := x + 1
	for _, l := range lanes {
		text := checkGlyphs[tv.frame.SelectAll]
		if l.column != checkboxLane {
			text = headerText(tv.frame.Header[l.column], l.width)
		}
		pos = tv.drawCell(pos, y, l.width, fitCell(text, l.width, grid.AlignLeft), style)
		tv.viewport.SetContent(pos, y, '│', nil, border)
		pos++
	}
}

// headerText puts the sort glyph flush right of the label.
func headerText(h grid.HeaderCell, width int) string {
	if h.Glyph == "" {
		return h.Label
	}
	glyphWidth := runewidth.StringWidth(h.Glyph)
	room := width - glyphWidth - 1
	if room < 1 {
		return h.Glyph
	}
	label := runewidth.Truncate(h.Label, room, "…")
	return runewidth.FillRight(label, room) + " " + h.Glyph
}

func (tv *GridView) rowStyle(row grid.FrameRow) tcell.Style {
	style := tcell.StyleDefault
	switch row.Kind {
	case grid.SubtotalRow:
		style = style.Bold(true).Background(tcell.ColorDarkSlateBlue)
	case grid.TotalRow:
		style = style.Bold(true).Background(tcell.ColorDarkSlateGray)
	}
	if row.Selected {
		style = style.Background(tcell.ColorDarkGreen)
	}
	return style
}

func (tv *GridView) drawBodyRow(x, y int, lanes []lane, row grid.FrameRow) {
	base := tv.rowStyle(row)
	border := base.Foreground(tv.borderColor).Bold(false)
	highlight := tv.grid.Highlight()

	tv.viewport.SetContent(x, y, '│', nil, border)
	pos := x + 1
	for _, l := range lanes {
		style := base
		var text string
		if l.column == checkboxLane {
			if row.Selectable {
				text = checkGlyphs[grid.Unchecked]
				if row.Selected {
					text = checkGlyphs[grid.Checked]
				}
			}
			text = fitCell(text, l.width, grid.AlignCenter)
		} else {
			cell := row.Cells[l.column]
			switch {
			case cell.Editing:
				style = style.Background(tcell.ColorRoyalBlue).Foreground(tcell.ColorWhite)
			case row.Highlighted && highlight.Column == l.column:
				style = style.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite)
			}
			text = fitCell(cell.Text, l.width, cell.Align)
		}
		pos = tv.drawCell(pos, y, l.width, text, style)
		tv.viewport.SetContent(pos, y, '│', nil, border)
		pos++
	}
}

// drawCell writes padding, text and padding and returns the next x.
func (tv *GridView) drawCell(pos, y, width int, text string, style tcell.Style) int {
	for j := range tv.cellPadding {
		tv.viewport.SetContent(pos+j, y, ' ', nil, style)
	}
	pos += tv.cellPadding
	end := pos + width
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if pos+w > end {
			break
		}
		tv.viewport.SetContent(pos, y, ch, nil, style)
		pos += w
	}
	for ; pos < end+tv.cellPadding; pos++ {
		tv.viewport.SetContent(pos, y, ' ', nil, style)
	}
	return pos
}

// fitCell truncates text to width display cells and pads it per alignment.
func fitCell(text string, width int, align grid.Align) string {
	if width <= 0 {
		return ""
	}
	text = runewidth.Truncate(text, width, "…")
	switch align {
	case grid.AlignRight:
		return runewidth.FillLeft(text, width)
	case grid.AlignCenter:
		gap := width - runewidth.StringWidth(text)
		return runewidth.FillRight(runewidth.FillLeft(text, runewidth.StringWidth(text)+gap/2), width)
	}
	return runewidth.FillRight(text, width)
}

// lanePosition returns the table-relative [start, end) of a lane including padding.
func (tv *GridView) lanePosition(lanes []lane, idx int) (startX, endX int) {
	pos := 1
	for i := range idx {
		pos += lanes[i].width + 2*tv.cellPadding + 1
	}
	return pos, pos + lanes[idx].width + 2*tv.cellPadding
}

// laneAt maps a table-relative x to a lane; -1 on borders and past the table.
func (tv *GridView) laneAt(lanes []lane, relX int) int {
	for i := range lanes {
		start, end := tv.lanePosition(lanes, i)
		if relX >= start && relX < end {
			return i
		}
	}
	return -1
}

func (tv *GridView) relative(screenX, screenY int) (relX, relY int, ok bool) {
	x, y, width, height := tv.GetInnerRect()
	if screenX < x || screenX >= x+width || screenY < y || screenY >= y+height {
		return 0, 0, false
	}
	return screenX - x + tv.viewport.GetScrollX(), screenY - y, true
}

// bodyCellAt returns the frame row and lane under the pointer, or -1, -1.
func (tv *GridView) bodyCellAt(screenX, screenY int) (row, laneIdx int) {
	relX, relY, ok := tv.relative(screenX, screenY)
	if !ok {
		return -1, -1
	}
	row = relY - tv.bodyY()
	if row < 0 || row >= len(tv.frame.Rows) {
		return -1, -1
	}
	laneIdx = tv.laneAt(tv.lanes(), relX)
	if laneIdx < 0 {
		return -1, -1
	}
	return row, laneIdx
}

// headerLaneAt returns the lane of a header click, or -1.
func (tv *GridView) headerLaneAt(screenX, screenY int) int {
	relX, relY, ok := tv.relative(screenX, screenY)
	if !ok || relY != tv.headerY() {
		return -1
	}
	return tv.laneAt(tv.lanes(), relX)
}

// separatorAt returns the grid column left of the boundary under the pointer,
// or -1. Tolerance is one cell either side, on the header and body rows.
func (tv *GridView) separatorAt(screenX, screenY int) int {
	relX, relY, ok := tv.relative(screenX, screenY)
	if !ok || (relY != tv.headerY() && (relY < tv.bodyY() || relY >= tv.bodyY()+len(tv.frame.Rows))) {
		return -1
	}
	lanes := tv.lanes()
	for i, l := range lanes {
		if l.column == checkboxLane || i == len(lanes)-1 {
			continue
		}
		_, end := tv.lanePosition(lanes, i)
		if relX >= end-1 && relX <= end+1 {
			return l.column
		}
	}
	return -1
}

// CellRect is the screen rectangle of a body cell's content, or ok=false when
// the cell is not on the current page.
func (tv *GridView) CellRect(cur grid.Cursor) (x, y, width int, ok bool) {
	ix, iy, _, iheight := tv.GetInnerRect()
	lanes := tv.lanes()
	for r, row := range tv.frame.Rows {
		if row.ID != cur.RowID {
			continue
		}
		for i, l := range lanes {
			if l.column != cur.Column {
				continue
			}
			start, _ := tv.lanePosition(lanes, i)
			y = iy + tv.bodyY() + r
			if y >= iy+iheight {
				return 0, 0, 0, false
			}
			return ix + start - tv.viewport.GetScrollX() + tv.cellPadding, y, l.width, true
		}
	}
	return 0, 0, 0, false
}

// ensureColumnVisible scrolls the viewport to the highlighted column.
func (tv *GridView) ensureColumnVisible(col int) {
	_, _, width, _ := tv.GetInnerRect()
	lanes := tv.lanes()
	for i, l := range lanes {
		if l.column == col {
			start, end := tv.lanePosition(lanes, i)
			tv.viewport.EnsureColumnVisible(start, end, width)
			return
		}
	}
}

func (tv *GridView) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return tv.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		switch event.Key() {
		case tcell.KeyUp:
			tv.moveHighlight(-1, 0)
		case tcell.KeyDown:
			tv.moveHighlight(1, 0)
		case tcell.KeyLeft:
			tv.moveHighlight(0, -1)
		case tcell.KeyRight:
			tv.moveHighlight(0, 1)
		case tcell.KeyHome:
			tv.focusColumn(0)
		case tcell.KeyEnd:
			tv.focusColumn(len(tv.frame.Header) - 1)
		case tcell.KeyPgUp:
			tv.grid.PrevPage()
			tv.refresh()
		case tcell.KeyPgDn:
			tv.grid.NextPage()
			tv.refresh()
		case tcell.KeyEnter:
			tv.activateHighlight()
		case tcell.KeyRune:
			if event.Rune() == ' ' {
				tv.toggleHighlightedRow()
			}
		}
	})
}

// highlightPosition finds the highlighted row on the current page.
func (tv *GridView) highlightPosition() (row, col int) {
	h := tv.grid.Highlight()
	for i, r := range tv.frame.Rows {
		if r.ID == h.RowID {
			return i, max(h.Column, 0)
		}
	}
	return -1, max(h.Column, 0)
}

// moveHighlight steps the highlight; stepping off the page edge turns the page.
func (tv *GridView) moveHighlight(dRow, dCol int) {
	if len(tv.frame.Rows) == 0 || len(tv.frame.Header) == 0 {
		return
	}
	row, col := tv.highlightPosition()
	if row < 0 {
		row, dRow = 0, 0
	}
	col = min(max(col+dCol, 0), len(tv.frame.Header)-1)
	row += dRow
	switch {
	case row < 0 && tv.frame.Page > 0:
		tv.grid.PrevPage()
		tv.frame = tv.grid.Frame()
		row = len(tv.frame.Rows) - 1
	case row >= len(tv.frame.Rows) && tv.frame.Page < tv.frame.PageCount-1:
		tv.grid.NextPage()
		tv.frame = tv.grid.Frame()
		row = 0
	}
	row = min(max(row, 0), len(tv.frame.Rows)-1)
	tv.grid.Focus(tv.frame.Rows[row].ID, col)
	tv.ensureColumnVisible(col)
	recordGrid("focus", fmt.Sprintf("%d,%d", row, col))
	tv.refresh()
}

func (tv *GridView) focusColumn(col int) {
	row, _ := tv.highlightPosition()
	if row < 0 || col < 0 {
		return
	}
	tv.grid.Focus(tv.frame.Rows[row].ID, col)
	tv.ensureColumnVisible(col)
	tv.refresh()
}

// activateHighlight acts like a click on the highlighted cell.
func (tv *GridView) activateHighlight() {
	row, col := tv.highlightPosition()
	if row < 0 {
		return
	}
	tv.grid.Click(tv.frame.Rows[row].ID, col)
	tv.refresh()
}

func (tv *GridView) toggleHighlightedRow() {
	row, _ := tv.highlightPosition()
	if row < 0 || !tv.frame.Rows[row].Selectable {
		return
	}
	tv.grid.ToggleRow(tv.frame.Rows[row].Index)
	recordGrid("select", tv.frame.Rows[row].ID)
	tv.refresh()
}

func (tv *GridView) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return tv.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
		x, y := event.Position()
		resizer := tv.grid.Resizer()

		// drag events keep flowing while captured, even outside our rect
		switch action {
		case tview.MouseMove:
			if resizer.Active() {
				if _, ok := resizer.Move(x * pixelsPerCell); ok {
					tv.refresh()
				}
				return true, tv
			}
		case tview.MouseLeftUp:
			if resizer.Active() {
				recordGrid("resize", tv.frame.Header[resizer.Column()].Label)
				resizer.End()
				return true, nil
			}
		}

		if !tv.InRect(x, y) {
			return false, nil
		}
		if breadcrumbs != nil {
			breadcrumbs.RecordMouse(mouseActionString(action))
		}

		switch action {
		case tview.MouseLeftDown:
			setFocus(tv)
			if col := tv.separatorAt(x, y); col >= 0 {
				h := tv.frame.Header[col]
				if h.Resizable && resizer.Start(col, len(tv.frame.Header), x*pixelsPerCell, h.Width) {
					return true, tv
				}
			}
			return true, nil
		case tview.MouseLeftClick:
			return tv.click(x, y), nil
		case tview.MouseScrollUp:
			tv.grid.PrevPage()
			tv.refresh()
			return true, nil
		case tview.MouseScrollDown:
			tv.grid.NextPage()
			tv.refresh()
			return true, nil
		case tview.MouseScrollLeft:
			tv.viewport.ScrollLeft()
			return true, nil
		case tview.MouseScrollRight:
			tv.viewport.ScrollRight()
			return true, nil
		}
		return false, nil
	})
}

func (tv *GridView) click(x, y int) bool {
	_, relY, ok := tv.relative(x, y)
	if !ok {
		return false
	}
	if relY == 0 && tv.tableName != "" {
		if tv.tableNameClickFunc != nil {
			tv.tableNameClickFunc()
		}
		return true
	}
	if relY == tv.pagerY() && tv.frame.PageCount > 1 {
		ix, _, _, _ := tv.GetInnerRect()
		relX := x - ix
		switch {
		case relX <= 2:
			tv.grid.PrevPage()
		case relX >= runewidth.StringWidth(tv.pagerText())-2:
			tv.grid.NextPage()
		}
		tv.refresh()
		return true
	}

	lanes := tv.lanes()
	if idx := tv.headerLaneAt(x, y); idx >= 0 {
		l := lanes[idx]
		if l.column == checkboxLane {
			tv.grid.ToggleSelectAll()
			recordGrid("select all", tv.grid.SelectAllState().String())
		} else if tv.grid.ToggleSort(l.column) {
			recordGrid("sort", tv.grid.Sort().Direction.String())
		}
		tv.refresh()
		return true
	}

	row, idx := tv.bodyCellAt(x, y)
	if row < 0 {
		return false
	}
	fr := tv.frame.Rows[row]
	if lanes[idx].column == checkboxLane {
		if fr.Selectable {
			tv.grid.ToggleRow(fr.Index)
			recordGrid("select", fr.ID)
		}
		tv.refresh()
		return true
	}
	tv.grid.Click(fr.ID, lanes[idx].column)
	tv.refresh()
	return true
}
