package grid

// RowKind tells the host which style a body row takes.
type RowKind int

const (
	DataRow RowKind = iota
	SubtotalRow
	TotalRow
)

// Cell is one rendered body cell.
type Cell struct {
	Column  int
	Text    string
	Align   Align
	Editing bool
}

// FrameRow is one rendered body row.
type FrameRow struct {
	ID          string
	Index       int // absolute index; -1 for a grid-appended total
	Kind        RowKind
	Cells       []Cell
	Selectable  bool
	Selected    bool
	Highlighted bool
}

// Frame is everything a host needs to draw the grid once.
type Frame struct {
	Header    []HeaderCell
	Rows      []FrameRow
	Selection bool       // render the checkbox column
	SelectAll CheckState // header checkbox over every page
	PageState CheckState // current page only

	Page, PageCount int
	Sorted          bool
	Editing         *Cursor
	Draft           string
	Options         []string // choices while a listbox or combobox edits
	NothingFound    bool
}

// Frame snapshots the current page.
func (c *Controller) Frame() Frame {
	vis := c.visible()
	start, end := c.page.Bounds(len(vis))
	f := Frame{
		Header:    c.headerCells(),
		Rows:      make([]FrameRow, 0, end-start),
		Selection: c.profile.SelectionEnabled,
		SelectAll: c.SelectAllState(),
		PageState: c.PageSelection(),
		Page:      c.page.Page,
		PageCount: c.page.PageCount(len(vis)),
		Sorted:    c.sort.Active(),
	}
	if cur, ok := c.Editing(); ok {
		f.Editing = &cur
		f.Draft = c.editing.draft
		switch c.columns[cur.Column].Type {
		case Combobox:
			f.Draft = c.editing.query
			f.Options = c.Options()
			f.NothingFound = len(f.Options) == 0
		case Listbox:
			f.Options = c.Options()
		}
	}
	for _, idx := range vis[start:end] {
		f.Rows = append(f.Rows, c.frameRow(idx))
	}
	return f
}

func (c *Controller) frameRow(idx int) FrameRow {
	row := c.rows[idx]
	fr := FrameRow{
		ID:          row.ID,
		Index:       idx,
		Highlighted: c.highlight.RowID == row.ID,
		Cells:       make([]Cell, len(c.columns)),
	}
	switch {
	case row.synthetic:
		fr.Index = -1
		fr.Kind = TotalRow
	case row.Total:
		fr.Kind = TotalRow
	case row.Subtotal:
		fr.Kind = SubtotalRow
	}
	fr.Selectable = c.profile.SelectionEnabled && !row.Aggregate()
	fr.Selected = fr.Selectable && c.selection.Has(idx)
	for i, col := range c.columns {
		editing := c.editing != nil && c.editing.cursor.RowID == row.ID && c.editing.cursor.Column == i
		fr.Cells[i] = c.renderCell(row, fr, col, i, editing)
	}
	return fr
}

func (c *Controller) renderCell(row Row, fr FrameRow, col Column, i int, editing bool) Cell {
	v := row.Get(col.ID)
	text, align := FormatValue(col, v)
	if row.Aggregate() && (col.Type == Action || col.Type == Checkbox) {
		text = ""
	}
	if col.Render != nil {
		text = col.Render(CellContext{
			Row:      row.Clone(),
			Column:   col,
			Index:    fr.Index,
			Value:    v,
			Editing:  editing,
			Selected: fr.Selected,
		})
	}
	if editing {
		text = c.editing.draft
	}
	return Cell{Column: i, Text: text, Align: align, Editing: editing}
}
