package grid

// sortGlyphs is keyed by NumericLike, then direction.
var sortGlyphs = map[bool]map[SortDirection]string{
	true:  {Unsorted: "⇅", Ascending: "1→9", Descending: "9→1"},
	false: {Unsorted: "⇅", Ascending: "A→Z", Descending: "Z→A"},
}

// SortGlyph is the header icon for a column type in a sort direction.
func SortGlyph(t ColumnType, dir SortDirection) string {
	return sortGlyphs[t.NumericLike()][dir]
}

// HeaderCell is one rendered column header.
type HeaderCell struct {
	Column    int
	Label     string
	Width     int
	Sortable  bool
	Direction SortDirection
	Glyph     string // empty when the column has no sort affordance
	Resizable bool
}

func (c *Controller) headerCells() []HeaderCell {
	cells := make([]HeaderCell, len(c.columns))
	for i, col := range c.columns {
		cell := HeaderCell{
			Column:    i,
			Label:     col.Header,
			Width:     col.Width,
			Sortable:  c.sortable(i),
			Resizable: i < len(c.columns)-1,
		}
		if cell.Sortable {
			if c.sort.Column == i {
				cell.Direction = c.sort.Direction
			}
			cell.Glyph = SortGlyph(col.Type, cell.Direction)
		}
		cells[i] = cell
	}
	return cells
}

func (c *Controller) sortable(col int) bool {
	if c.profile.SortingDisabled || col < 0 || col >= len(c.columns) {
		return false
	}
	return c.columns[col].Sortable()
}

// ToggleSort advances the sort cycle of a header. Entering the sorted state drops
// subtotal rows from the visible sequence; leaving it restores original order and
// recomputes them. Returns false when the column cannot sort.
func (c *Controller) ToggleSort(col int) bool {
	if !c.sortable(col) {
		return false
	}
	dir := Ascending
	if c.sort.Column == col {
		dir = c.sort.Direction.next()
	}
	c.applySort(col, dir)
	return true
}

// ClearSort returns to original order.
func (c *Controller) ClearSort() {
	if c.sort.Active() {
		c.applySort(-1, Unsorted)
	}
}

func (c *Controller) applySort(col int, dir SortDirection) {
	wasActive := c.sort.Active()
	if dir == Unsorted {
		c.sort = SortState{Column: -1}
		c.order = nil
		if wasActive {
			c.recompute()
		}
		c.afterViewChange()
		return
	}
	if !wasActive {
		c.commitEdit()
		c.editing = nil
	}
	c.sort = SortState{Column: col, Direction: dir}
	c.order = sortedOrder(c.rows, c.columns[col], dir)
	c.afterViewChange()
}

// SelectAllState is the header checkbox state over every selectable row.
func (c *Controller) SelectAllState() CheckState {
	return c.selection.StateOf(c.selectableIndices())
}

// ToggleSelectAll clears the selection if anything is selected, otherwise selects
// every row on every page.
func (c *Controller) ToggleSelectAll() {
	if !c.profile.SelectionEnabled {
		return
	}
	if c.selection.Len() > 0 {
		c.selection.Clear()
	} else {
		c.selection.SelectAll(c.selectableIndices())
	}
	c.emitSelection()
}
