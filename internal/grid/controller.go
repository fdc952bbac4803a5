package grid

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultColumnWidth is used for columns declared without a width.
const DefaultColumnWidth = 120

// Options configures a Controller.
type Options struct {
	TableKey string
	PageSize int // DefaultPageSize when zero, unpaginated when negative

	// OnChange receives the working copy in original order after every edit, add,
	// delete and revert. The grid-appended total row is never included.
	OnChange func(rows []Row)
	// OnSelectionChange receives the selection after every mutation. allSelected
	// covers every page.
	OnSelectionChange func(count int, allSelected bool, rows []Row)
	// OnAction fires when an action cell on a data row is clicked.
	OnAction func(row Row, col Column)
	// SetClearSelection receives a function that clears the selection, so the
	// hosting page can trigger it later.
	SetClearSelection func(clear func())

	RowTotal RowTotalFunc
}

// Cursor addresses one cell of one row.
type Cursor struct {
	RowID  string
	Column int
}

type editSession struct {
	cursor   Cursor
	original any
	draft    string
	query    string
}

// Controller owns the working rows and every piece of grid state. All methods are
// meant to be called from one goroutine, the host's UI loop.
type Controller struct {
	columns []Column
	rows    []Row
	profile Profile
	opts    Options

	sort  SortState
	order []string // row ids captured when the sort was applied
	page  Pagination

	selection Selection
	editing   *editSession
	highlight Cursor
	pending   *Cursor

	resizer *Resizer
	totals  Totals
}

// New builds a grid over columns and rows; rows are copied.
func New(columns []Column, rows []Row, opts Options) (*Controller, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	cols := slices.Clone(columns)
	for i := range cols {
		if cols[i].Width <= 0 {
			cols[i].Width = DefaultColumnWidth
		}
	}
	size := opts.PageSize
	if size == 0 {
		size = DefaultPageSize
	}
	c := &Controller{
		columns:   cols,
		profile:   ProfileFor(opts.TableKey),
		opts:      opts,
		sort:      SortState{Column: -1},
		page:      Pagination{Size: size},
		selection: newSelection(),
		highlight: Cursor{Column: -1},
	}
	c.resizer = NewResizer(func(col, width int) { c.SetColumnWidth(col, width) })
	if err := c.load(rows); err != nil {
		return nil, err
	}
	if opts.SetClearSelection != nil {
		opts.SetClearSelection(c.ClearSelection)
	}
	return c, nil
}

// SetRows replaces the working copy wholesale, as when the caller's data changes.
// Selection and edit state do not survive a replacement.
func (c *Controller) SetRows(rows []Row) error {
	hadSelection := c.selection.Len() > 0
	if err := c.load(rows); err != nil {
		return err
	}
	c.editing = nil
	c.pending = nil
	c.selection.Clear()
	if hadSelection {
		c.emitSelection()
	}
	return nil
}

func (c *Controller) load(rows []Row) error {
	working := cloneRows(rows)
	totalAt := -1
	for i := range working {
		if working[i].ID == "" {
			working[i].ID = newRowID()
		}
		if working[i].Total {
			if totalAt >= 0 {
				return fmt.Errorf("%w: rows %d and %d", ErrMultipleTotals, totalAt, i)
			}
			totalAt = i
		}
	}
	c.rows = working
	c.recompute()
	if c.sort.Active() {
		c.order = sortedOrder(c.rows, c.columns[c.sort.Column], c.sort.Direction)
	}
	c.afterViewChange()
	return nil
}

func (c *Controller) recompute() {
	c.rows, c.totals = recompute(c.rows, c.opts.RowTotal, c.profile.Totals)
}

func (c *Controller) afterViewChange() {
	c.page = c.page.clamp(len(c.visible()))
}

// visible returns indices into c.rows in display order across all pages.
func (c *Controller) visible() []int {
	if !c.sort.Active() {
		out := make([]int, len(c.rows))
		for i := range c.rows {
			out[i] = i
		}
		return out
	}
	byID := make(map[string]int, len(c.rows))
	for i, r := range c.rows {
		byID[r.ID] = i
	}
	out := make([]int, 0, len(c.rows))
	placed := make(map[int]struct{}, len(c.rows))
	for _, id := range c.order {
		i, ok := byID[id]
		if !ok || c.rows[i].Aggregate() {
			continue
		}
		out = append(out, i)
		placed[i] = struct{}{}
	}
	totalAt := -1
	for i, r := range c.rows {
		if r.Total {
			totalAt = i
			continue
		}
		if _, ok := placed[i]; ok || r.Subtotal {
			continue
		}
		// rows added after the sort was applied show at the end
		out = append(out, i)
	}
	if totalAt >= 0 {
		out = append(out, totalAt)
	}
	return out
}

func (c *Controller) indexOf(rowID string) int {
	for i, r := range c.rows {
		if r.ID == rowID {
			return i
		}
	}
	return -1
}

func (c *Controller) positionOf(visible []int, idx int) int {
	return slices.Index(visible, idx)
}

// selectableIndices returns the absolute indices a user can select: detail rows
// only, never a subtotal or total.
func (c *Controller) selectableIndices() []int {
	out := make([]int, 0, len(c.rows))
	for i, r := range c.rows {
		if !r.Aggregate() {
			out = append(out, i)
		}
	}
	return out
}

func (c *Controller) callerRows() []Row {
	out := make([]Row, 0, len(c.rows))
	for _, r := range c.rows {
		if r.synthetic {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

func (c *Controller) emitChange() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.callerRows())
	}
}

func (c *Controller) emitSelection() {
	if c.opts.OnSelectionChange == nil {
		return
	}
	indices := c.selection.Indices()
	rows := make([]Row, 0, len(indices))
	for _, i := range indices {
		if i < len(c.rows) {
			rows = append(rows, c.rows[i].Clone())
		}
	}
	c.opts.OnSelectionChange(len(indices), c.selection.AllOf(c.selectableIndices()), rows)
}

func (c *Controller) blankRow() Row {
	r := Row{ID: newRowID(), Values: make(map[string]any, len(c.columns))}
	for _, col := range c.columns {
		r.Values[col.ID] = ZeroValue(col.Type)
	}
	return r
}

func (c *Controller) insertAt() int {
	if n := len(c.rows); n > 0 && c.rows[n-1].Total {
		return n - 1
	}
	return len(c.rows)
}

// commitRow inserts a blank row before any trailing total row. It is the first
// phase of adding a row; focusing it is left to scheduleFocus.
func (c *Controller) commitRow() Row {
	r := c.blankRow()
	at := c.insertAt()
	c.rows = slices.Insert(c.rows, at, r)
	c.selection.shiftInsert(at)
	c.recompute()
	c.afterViewChange()
	c.emitChange()
	if c.selection.Len() > 0 {
		// a new unselected row can end an all-selected state
		c.emitSelection()
	}
	return r.Clone()
}

// scheduleFocus records that the new row's first editable cell should take the
// edit cursor on the next Tick, once the host has drawn the row.
func (c *Controller) scheduleFocus(rowID string) {
	c.pending = &Cursor{RowID: rowID, Column: c.firstTabbable()}
}

// AddRow appends a row of zero values before the total row, if any.
func (c *Controller) AddRow() Row {
	return c.commitRow()
}

// DeleteRow removes the row at an absolute index. The total row cannot be deleted
// and always ends up last again.
func (c *Controller) DeleteRow(index int) bool {
	if index < 0 || index >= len(c.rows) || c.rows[index].Total {
		return false
	}
	removed := c.rows[index]
	c.rows = slices.Delete(c.rows, index, index+1)
	hadSelection := c.selection.Len() > 0
	c.selection.shiftDelete(index)
	if c.editing != nil && c.editing.cursor.RowID == removed.ID {
		c.editing = nil
	}
	if c.pending != nil && c.pending.RowID == removed.ID {
		c.pending = nil
	}
	if c.highlight.RowID == removed.ID {
		c.highlight = Cursor{Column: -1}
	}
	c.recompute()
	c.afterViewChange()
	c.emitChange()
	if hadSelection {
		c.emitSelection()
	}
	return true
}

// DeleteRowByID is DeleteRow addressed by row id.
func (c *Controller) DeleteRowByID(rowID string) bool {
	return c.DeleteRow(c.indexOf(rowID))
}

// SetRounding sets the adjustable rounding on the total row.
func (c *Controller) SetRounding(v decimal.Decimal) bool {
	n := len(c.rows)
	if n == 0 || !c.rows[n-1].Total {
		return false
	}
	c.rows[n-1].set(FieldRounding, v.String())
	c.recompute()
	c.emitChange()
	return true
}

// SetColumnWidth resizes a column, never below MinColumnWidth.
func (c *Controller) SetColumnWidth(col, width int) {
	if col < 0 || col >= len(c.columns) {
		return
	}
	c.columns[col].Width = max(MinColumnWidth, width)
}

// Resizer is the drag gesture bound to SetColumnWidth.
func (c *Controller) Resizer() *Resizer {
	return c.resizer
}

func (c *Controller) Columns() []Column {
	return slices.Clone(c.columns)
}

// Rows returns the caller-owned rows in original order.
func (c *Controller) Rows() []Row {
	return c.callerRows()
}

func (c *Controller) Totals() Totals {
	return c.totals
}

func (c *Controller) Profile() Profile {
	return c.profile
}

func (c *Controller) Sort() SortState {
	return c.sort
}

// Row looks a row up by id.
func (c *Controller) Row(rowID string) (Row, bool) {
	i := c.indexOf(rowID)
	if i < 0 {
		return Row{}, false
	}
	return c.rows[i].Clone(), true
}

// VisibleRows returns every row in display order, ignoring pagination.
func (c *Controller) VisibleRows() []Row {
	vis := c.visible()
	out := make([]Row, len(vis))
	for i, idx := range vis {
		out[i] = c.rows[idx].Clone()
	}
	return out
}

// Pagination

func (c *Controller) Page() int {
	return c.page.Page
}

func (c *Controller) PageSize() int {
	return c.page.Size
}

func (c *Controller) PageCount() int {
	return c.page.PageCount(len(c.visible()))
}

// SetPage moves to page n, clamped. An edit in progress is committed first since
// its cell may leave the screen.
func (c *Controller) SetPage(n int) {
	if n == c.page.Page {
		return
	}
	c.Commit()
	c.page.Page = n
	c.afterViewChange()
}

func (c *Controller) NextPage() { c.SetPage(c.page.Page + 1) }
func (c *Controller) PrevPage() { c.SetPage(c.page.Page - 1) }

func (c *Controller) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	c.Commit()
	c.page = Pagination{Size: size}
	c.afterViewChange()
}

// pageIndices returns absolute indices of the selectable rows on the current page.
func (c *Controller) pageIndices() []int {
	vis := c.visible()
	start, end := c.page.Bounds(len(vis))
	out := make([]int, 0, end-start)
	for _, idx := range vis[start:end] {
		if !c.rows[idx].Aggregate() {
			out = append(out, idx)
		}
	}
	return out
}

// Selection

func (c *Controller) SelectionEnabled() bool {
	return c.profile.SelectionEnabled
}

// ToggleRow flips the selection of an absolute index. Subtotal and total rows
// cannot be selected.
func (c *Controller) ToggleRow(index int) {
	if !c.profile.SelectionEnabled || index < 0 || index >= len(c.rows) || c.rows[index].Aggregate() {
		return
	}
	c.selection.Toggle(index)
	c.emitSelection()
}

func (c *Controller) ToggleRowByID(rowID string) {
	c.ToggleRow(c.indexOf(rowID))
}

func (c *Controller) ClearSelection() {
	if c.selection.Len() == 0 {
		return
	}
	c.selection.Clear()
	c.emitSelection()
}

// Selected returns the selected absolute indices in ascending order.
func (c *Controller) Selected() []int {
	return c.selection.Indices()
}

func (c *Controller) IsSelected(index int) bool {
	return c.selection.Has(index)
}

func (c *Controller) IsAllSelected() bool {
	return c.selection.AllOf(c.selectableIndices())
}

func (c *Controller) IsIndeterminate() bool {
	return c.SelectAllState() == Indeterminate
}

// PageSelection is the tri-state of the rows on the current page only.
func (c *Controller) PageSelection() CheckState {
	return c.selection.StateOf(c.pageIndices())
}

// Handle is the view of the selection a hosting page may hold on to.
type Handle struct {
	c *Controller
}

func (c *Controller) Handle() Handle {
	return Handle{c: c}
}

func (h Handle) Selection() []int          { return h.c.Selected() }
func (h Handle) PageSelection() CheckState { return h.c.PageSelection() }
func (h Handle) ClearSelection()           { h.c.ClearSelection() }
