package grid

import (
	"slices"
	"strings"
)

// NothingFound is shown by a combobox whose query matches no option.
const NothingFound = "Nothing found."

type Key int

const (
	KeyEscape Key = iota
	KeyTab
	KeyEnter
)

// Editing reports the cell in edit mode, if any.
func (c *Controller) Editing() (Cursor, bool) {
	if c.editing == nil {
		return Cursor{}, false
	}
	return c.editing.cursor, true
}

// Draft is the editor text of the cell in edit mode.
func (c *Controller) Draft() string {
	if c.editing == nil {
		return ""
	}
	return c.editing.draft
}

// Highlight is the last clicked cell. Column is -1 when nothing was clicked.
func (c *Controller) Highlight() Cursor {
	return c.highlight
}

// Pending reports whether a row added from the keyboard waits for focus.
func (c *Controller) Pending() bool {
	return c.pending != nil
}

// Tick runs the deferred half of a keyboard row add: the new row's first
// editable cell enters edit mode and its page is brought into view.
func (c *Controller) Tick() bool {
	if c.pending == nil {
		return false
	}
	p := *c.pending
	c.pending = nil
	idx := c.indexOf(p.RowID)
	if idx < 0 {
		return false
	}
	c.reveal(idx)
	c.highlight = p
	if p.Column < 0 {
		return true
	}
	return c.beginEdit(idx, p.Column)
}

func (c *Controller) firstTabbable() int {
	return slices.IndexFunc(c.columns, Column.Tabbable)
}

func (c *Controller) reveal(idx int) {
	vis := c.visible()
	if pos := c.positionOf(vis, idx); pos >= 0 {
		c.page.Page = c.page.PageOf(pos)
		c.afterViewChange()
	}
}

// Key handles the edit-mode keys. Outside edit mode all three are no-ops.
func (c *Controller) Key(k Key) bool {
	if c.editing == nil {
		return false
	}
	switch k {
	case KeyEscape:
		c.revert()
		return true
	case KeyTab, KeyEnter:
		return c.advance(k == KeyEnter)
	}
	return false
}

// advance moves the edit cursor to the next tabbable cell of the visible
// sequence, crossing rows and pages. Enter past the last cell of the last data
// row adds a row.
func (c *Controller) advance(enter bool) bool {
	cur := c.editing.cursor
	idx := c.indexOf(cur.RowID)
	if idx < 0 {
		c.editing = nil
		return false
	}
	vis := c.visible()
	pos := c.positionOf(vis, idx)
	if next, ok := c.nextTabbable(vis, pos, cur.Column); ok {
		c.commitEdit()
		c.reveal(c.indexOf(next.RowID))
		return c.beginEdit(c.indexOf(next.RowID), next.Column)
	}
	if !enter || pos != c.lastDataPosition(vis) {
		return false
	}
	c.commitEdit()
	c.editing = nil
	r := c.commitRow()
	c.scheduleFocus(r.ID)
	return true
}

func (c *Controller) nextTabbable(vis []int, pos, col int) (Cursor, bool) {
	for p := pos; p >= 0 && p < len(vis); p++ {
		r := c.rows[vis[p]]
		if r.Aggregate() {
			continue
		}
		start := 0
		if p == pos {
			start = col + 1
		}
		for i := start; i < len(c.columns); i++ {
			if c.columns[i].Tabbable() {
				return Cursor{RowID: r.ID, Column: i}, true
			}
		}
	}
	return Cursor{}, false
}

func (c *Controller) lastDataPosition(vis []int) int {
	for p := len(vis) - 1; p >= 0; p-- {
		if !c.rows[vis[p]].Aggregate() {
			return p
		}
	}
	return -1
}

// Click handles a pointer press on a body cell. Data cells of editable columns
// enter edit mode, checkboxes toggle, action cells fire OnAction. Every click
// moves the highlight; aggregate rows get nothing else.
func (c *Controller) Click(rowID string, col int) {
	idx := c.indexOf(rowID)
	if idx < 0 || col < 0 || col >= len(c.columns) {
		return
	}
	c.highlight = Cursor{RowID: rowID, Column: col}
	if cur, ok := c.Editing(); ok && cur == c.highlight {
		return
	}
	c.Commit()
	row := c.rows[idx]
	if row.Aggregate() {
		return
	}
	column := c.columns[col]
	switch {
	case column.Type == Action:
		if c.opts.OnAction != nil {
			c.opts.OnAction(row.Clone(), column)
		}
	case column.Type == Checkbox && !column.ReadOnly:
		if c.sort.Active() {
			return
		}
		c.rows[idx].set(column.ID, !truthy(row.Get(column.ID)))
		c.recompute()
		c.emitChange()
	case column.Editable():
		c.beginEdit(idx, col)
	}
}

// Focus moves the highlight from the keyboard. Nothing toggles or fires; an open
// edit elsewhere is committed.
func (c *Controller) Focus(rowID string, col int) bool {
	if c.indexOf(rowID) < 0 || col < 0 || col >= len(c.columns) {
		return false
	}
	cur := Cursor{RowID: rowID, Column: col}
	if editing, ok := c.Editing(); ok && editing != cur {
		c.Commit()
	}
	c.highlight = cur
	return true
}

// Edit puts a cell in edit mode without a click, as the keyboard host does.
func (c *Controller) Edit(rowID string, col int) bool {
	idx := c.indexOf(rowID)
	if idx < 0 {
		return false
	}
	if c.editing != nil {
		c.Commit()
	}
	c.highlight = Cursor{RowID: rowID, Column: col}
	return c.beginEdit(idx, col)
}

func (c *Controller) beginEdit(idx, col int) bool {
	if idx < 0 || col < 0 || col >= len(c.columns) || c.sort.Active() {
		return false
	}
	row := c.rows[idx]
	column := c.columns[col]
	if row.Aggregate() || !column.Editable() {
		return false
	}
	v := row.Get(column.ID)
	c.editing = &editSession{
		cursor:   Cursor{RowID: row.ID, Column: col},
		original: v,
		draft:    DraftText(column, v),
	}
	c.highlight = c.editing.cursor
	return true
}

func (c *Controller) editTarget() (int, Column, bool) {
	if c.editing == nil {
		return -1, Column{}, false
	}
	idx := c.indexOf(c.editing.cursor.RowID)
	if idx < 0 {
		c.editing = nil
		return -1, Column{}, false
	}
	return idx, c.columns[c.editing.cursor.Column], true
}

func (c *Controller) store(idx int, column Column, v any) bool {
	if valuesEqual(column.Type, c.rows[idx].Get(column.ID), v) {
		return false
	}
	c.rows[idx].set(column.ID, v)
	c.recompute()
	c.emitChange()
	return true
}

// Input replaces the editor text. The keystroke filter of the column type runs
// first and the filtered text is returned for the editor to show. A combobox
// takes the text as its search query instead of a value.
func (c *Controller) Input(text string) string {
	idx, column, ok := c.editTarget()
	if !ok {
		return text
	}
	switch column.Type {
	case Listbox:
		return c.editing.draft
	case Combobox:
		c.editing.query = text
		return text
	}
	draft := FilterInput(column.Type, text)
	c.editing.draft = draft
	c.store(idx, column, ParseValue(column.Type, draft))
	return draft
}

// Query is the combobox search text.
func (c *Controller) Query() string {
	if c.editing == nil {
		return ""
	}
	return c.editing.query
}

// Options lists the choices of the listbox or combobox in edit mode, narrowed by
// the combobox query.
func (c *Controller) Options() []string {
	_, column, ok := c.editTarget()
	if !ok {
		return nil
	}
	if column.Type == Combobox {
		return FilterOptions(column.Options, c.editing.query)
	}
	return slices.Clone(column.Options)
}

// FilterOptions keeps the options containing query, ignoring case.
func FilterOptions(options []string, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(options)
	}
	var out []string
	for _, o := range options {
		if strings.Contains(strings.ToLower(o), q) {
			out = append(out, o)
		}
	}
	return out
}

// Choose picks an option of the listbox or combobox in edit mode and leaves edit
// mode. Values outside the option list are refused.
func (c *Controller) Choose(option string) bool {
	idx, column, ok := c.editTarget()
	if !ok || (column.Type != Listbox && column.Type != Combobox) {
		return false
	}
	if !slices.Contains(column.Options, option) {
		return false
	}
	c.editing = nil
	c.store(idx, column, option)
	return true
}

// Commit leaves edit mode keeping the value, after the blur normalisation.
func (c *Controller) Commit() {
	c.commitEdit()
	c.editing = nil
}

func (c *Controller) commitEdit() {
	idx, column, ok := c.editTarget()
	if !ok {
		return
	}
	switch column.Type {
	case Listbox, Combobox:
		return
	}
	draft := NormalizeOnBlur(column.Type, c.editing.draft)
	c.editing.draft = draft
	c.store(idx, column, ParseValue(column.Type, draft))
}

func (c *Controller) revert() {
	idx, column, ok := c.editTarget()
	if !ok {
		return
	}
	original := c.editing.original
	c.editing = nil
	c.store(idx, column, original)
}

// valuesEqual reports whether storing b over a would change the cell. Numeric
// columns compare by value, so "12" and 12 are the same quantity.
func valuesEqual(t ColumnType, a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Equal(db) && (t.NumericLike() || sameKind(a, b))
		}
	}
	return toText(a) == toText(b) && sameKind(a, b)
}

func sameKind(a, b any) bool {
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	}
	return true
}
