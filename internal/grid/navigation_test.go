package grid

import (
	"slices"
	"testing"
)

func TestEnterOnLastCellAddsRow(t *testing.T) {
	rec := &recorder{}
	opts := rec.options("")
	opts.PageSize = 2
	rows := numberedRows(3)
	c := newGrid(t, lineColumns(), rows, opts)
	c.SetPage(1)

	// tax is the last tabbable column; amount and total are computed
	if !c.Edit(rows[2].ID, 3) {
		t.Fatal("could not edit the last row")
	}
	before := len(rec.changes)
	if !c.Key(KeyEnter) {
		t.Fatal("Enter not handled")
	}
	got := c.Rows()
	if len(got) != 4 {
		t.Fatalf("rows = %d, want 4", len(got))
	}
	if len(rec.changes) != before+1 {
		t.Errorf("OnChange fired %d times for the add", len(rec.changes)-before)
	}
	newID := got[3].ID

	// first phase: the row exists but nothing has focus yet
	if _, ok := c.Editing(); ok {
		t.Errorf("edit cursor moved before Tick")
	}
	if !c.Pending() {
		t.Fatal("focus not scheduled")
	}

	if !c.Tick() {
		t.Fatal("Tick did not apply focus")
	}
	cur, ok := c.Editing()
	if !ok || cur.RowID != newID || cur.Column != 0 {
		t.Errorf("edit cursor = %+v, %v; want new row column 0", cur, ok)
	}
	if c.Page() != 1 {
		t.Errorf("page = %d, want 1", c.Page())
	}
	if c.Tick() {
		t.Errorf("second Tick should be a no-op")
	}
	if len(c.Rows()) != 4 {
		t.Errorf("Tick added rows")
	}
}

func TestEnterAddsBeforeTotal(t *testing.T) {
	rows := []Row{line(1, 1, 0), NewSubtotal(), line(1, 2, 0), NewTotal()}
	c := newGrid(t, lineColumns(), rows, Options{TableKey: "invoice-lines"})
	c.Edit(rows[2].ID, 3)
	if !c.Key(KeyEnter) {
		t.Fatal("Enter not handled")
	}
	got := c.Rows()
	if len(got) != 5 || !got[4].Total || got[3].Aggregate() {
		t.Errorf("unexpected rows after add: %+v", got)
	}
}

func TestTabMovesAcrossRowsAndPages(t *testing.T) {
	opts := Options{PageSize: 1}
	rows := []Row{line(1, 1, 0), NewSubtotal(), line(2, 2, 0)}
	c := newGrid(t, lineColumns(), rows, opts)

	c.Edit(rows[0].ID, 0)
	for _, want := range []int{1, 2, 3} {
		c.Key(KeyTab)
		cur, _ := c.Editing()
		if cur.RowID != rows[0].ID || cur.Column != want {
			t.Fatalf("cursor = %+v, want column %d", cur, want)
		}
	}
	// skips computed columns and the subtotal row
	c.Key(KeyTab)
	cur, _ := c.Editing()
	if cur.RowID != rows[2].ID || cur.Column != 0 {
		t.Errorf("cursor = %+v, want next data row column 0", cur)
	}
	if c.Page() != 2 {
		t.Errorf("page = %d, want 2", c.Page())
	}
}

func TestTabExhaustedIsNoop(t *testing.T) {
	rows := numberedRows(2)
	c := newGrid(t, lineColumns(), rows, Options{})
	c.Edit(rows[1].ID, 3)
	if c.Key(KeyTab) {
		t.Errorf("Tab past the last cell was handled")
	}
	cur, ok := c.Editing()
	if !ok || cur.Column != 3 {
		t.Errorf("cursor moved: %+v", cur)
	}
	if len(c.Rows()) != 2 {
		t.Errorf("Tab added a row")
	}
}

func TestEnterOnEarlierRowMoves(t *testing.T) {
	rows := numberedRows(2)
	c := newGrid(t, lineColumns(), rows, Options{})
	c.Edit(rows[0].ID, 3)
	c.Key(KeyEnter)
	cur, _ := c.Editing()
	if cur.RowID != rows[1].ID || cur.Column != 0 {
		t.Errorf("cursor = %+v", cur)
	}
	if len(c.Rows()) != 2 {
		t.Errorf("Enter on an inner row added a row")
	}
}

func TestKeysOutsideEditMode(t *testing.T) {
	c := newGrid(t, lineColumns(), numberedRows(1), Options{})
	for _, k := range []Key{KeyEscape, KeyTab, KeyEnter} {
		if c.Key(k) {
			t.Errorf("key %d handled outside edit mode", k)
		}
	}
	if len(c.Rows()) != 1 {
		t.Errorf("row added outside edit mode")
	}
}

func TestEscapeReverts(t *testing.T) {
	rec := &recorder{}
	rows := []Row{line(int64(3), 2, 0)}
	c := newGrid(t, lineColumns(), rows, rec.options(""))

	c.Click(rows[0].ID, 1)
	if got := c.Draft(); got != "3" {
		t.Errorf("draft = %q, want 3", got)
	}
	if got := c.Input("007"); got != "7" {
		t.Errorf("filtered = %q, want 7", got)
	}
	if got := rec.last()[0].Get(FieldTotal); got != "14.00" {
		t.Errorf("live total = %v, want 14.00", got)
	}
	c.Key(KeyEscape)
	if _, ok := c.Editing(); ok {
		t.Errorf("still editing after Escape")
	}
	r := c.Rows()[0]
	if r.Get(FieldQuantity) != int64(3) || r.Get(FieldTotal) != "6.00" {
		t.Errorf("not reverted: %v", r.Values)
	}
	if len(rec.changes) != 2 {
		t.Errorf("OnChange fired %d times, want 2", len(rec.changes))
	}
}

func TestCommitNormalizes(t *testing.T) {
	rec := &recorder{}
	cols := []Column{{ID: "rate", Type: Rate}}
	c := newGrid(t, cols, []Row{{ID: "r1", Values: map[string]any{"rate": 0.0}}}, rec.options(""))
	c.Click("r1", 0)
	c.Input("1.")
	if got := c.Draft(); got != "1." {
		t.Errorf("draft keeps trailing point while typing, got %q", got)
	}
	c.Commit()
	if got := c.Rows()[0].Get("rate"); got != float64(1) {
		t.Errorf("rate = %#v", got)
	}
	c.Click("r1", 0)
	c.Input("")
	c.Commit()
	if got := c.Rows()[0].Get("rate"); got != float64(0) {
		t.Errorf("empty rate = %#v", got)
	}
}

func TestCommitWithoutTypingKeepsRow(t *testing.T) {
	cols := []Column{
		{ID: "qty", Header: "Qty", Type: Number},
		{ID: "price", Header: "Price", Type: Float},
		{ID: "note", Header: "Note", Type: Text},
	}
	tests := []struct {
		name  string
		col   int
		value any
		input string // empty leaves the draft alone
		fires bool
	}{
		{"numeric string in a number column", 0, "12", "", false},
		{"numeric string in a float column", 1, "2.50", "", false},
		{"int in a float column", 1, int64(3), "", false},
		{"numeric string in a text column", 2, "12", "", false},
		{"typed a different number", 0, "12", "13", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			rows := []Row{{ID: "r1", Values: map[string]any{cols[tt.col].ID: tt.value}}}
			c := newGrid(t, cols, rows, rec.options(""))
			before := len(rec.changes)

			c.Click("r1", tt.col)
			if _, ok := c.Editing(); !ok {
				t.Fatal("click did not open an edit")
			}
			if tt.input != "" {
				c.Input(tt.input)
			}
			c.Commit()

			if fired := len(rec.changes) > before; fired != tt.fires {
				t.Errorf("OnChange fired = %v, want %v", fired, tt.fires)
			}
			if !tt.fires {
				if got := c.Rows()[0].Get(cols[tt.col].ID); got != tt.value {
					t.Errorf("value = %#v, want %#v untouched", got, tt.value)
				}
			}
		})
	}
}

func TestClickRules(t *testing.T) {
	rec := &recorder{}
	var actions []string
	cols := append(lineColumns(),
		Column{ID: "paid", Type: Checkbox},
		Column{ID: "delete", Type: Action},
	)
	rows := []Row{line(1, 1, 0), NewSubtotal()}
	opts := rec.options("")
	opts.OnAction = func(r Row, col Column) { actions = append(actions, r.ID+"/"+col.ID) }
	c := newGrid(t, cols, rows, opts)

	c.Click(rows[1].ID, 0)
	if _, ok := c.Editing(); ok {
		t.Errorf("aggregate row entered edit mode")
	}
	if c.Highlight().RowID != rows[1].ID {
		t.Errorf("highlight did not move to the subtotal row")
	}

	c.Click(rows[0].ID, 4)
	if _, ok := c.Editing(); ok {
		t.Errorf("amount column entered edit mode")
	}

	c.Click(rows[0].ID, 6)
	if got := rec.last()[0].Get("paid"); got != true {
		t.Errorf("checkbox = %#v, want true", got)
	}
	c.Click(rows[0].ID, 6)
	if got := rec.last()[0].Get("paid"); got != false {
		t.Errorf("checkbox = %#v, want false", got)
	}

	c.Click(rows[0].ID, 7)
	if !slices.Equal(actions, []string{rows[0].ID + "/delete"}) {
		t.Errorf("actions = %v", actions)
	}
	c.Click(rows[1].ID, 7)
	if len(actions) != 1 {
		t.Errorf("action fired on an aggregate row")
	}

	c.Click(rows[0].ID, 0)
	cur, ok := c.Editing()
	if !ok || cur.Column != 0 {
		t.Errorf("text cell not in edit mode")
	}
	c.Input("widget")
	c.Click(rows[0].ID, 1)
	if got := c.Rows()[0].Get("description"); got != "widget" {
		t.Errorf("click elsewhere lost the edit: %v", got)
	}
	if cur, _ := c.Editing(); cur.Column != 1 {
		t.Errorf("cursor = %+v", cur)
	}
}

func TestListboxAndCombobox(t *testing.T) {
	rec := &recorder{}
	cols := []Column{
		{ID: "unit", Type: Listbox, Options: []string{"pcs", "kg", "box"}},
		{ID: "client", Type: Combobox, Options: []string{"Acme Ltd", "Globex", "Initech"}},
	}
	rows := []Row{{ID: "r1", Values: map[string]any{"unit": "pcs", "client": ""}}}
	c := newGrid(t, cols, rows, rec.options(""))

	c.Click("r1", 0)
	if got := c.Options(); !slices.Equal(got, []string{"pcs", "kg", "box"}) {
		t.Errorf("listbox options = %v", got)
	}
	if c.Choose("litre") {
		t.Errorf("unknown option accepted")
	}
	if !c.Choose("kg") {
		t.Fatal("Choose refused a listed option")
	}
	if got := rec.last()[0].Get("unit"); got != "kg" {
		t.Errorf("unit = %v", got)
	}
	if _, ok := c.Editing(); ok {
		t.Errorf("listbox still editing after a choice")
	}

	c.Click("r1", 1)
	c.Input("GLO")
	if got := c.Options(); !slices.Equal(got, []string{"Globex"}) {
		t.Errorf("filtered = %v", got)
	}
	c.Input("zzz")
	f := c.Frame()
	if !f.NothingFound || len(f.Options) != 0 {
		t.Errorf("expected nothing found, got %v", f.Options)
	}
	c.Input("in")
	if got := c.Options(); !slices.Equal(got, []string{"Initech"}) {
		t.Errorf("filtered = %v", got)
	}
	c.Choose("Initech")
	if got := c.Rows()[0].Get("client"); got != "Initech" {
		t.Errorf("client = %v", got)
	}
}

func TestFilterOptions(t *testing.T) {
	opts := []string{"Alpha", "beta", "ALPHABET"}
	tests := []struct {
		query string
		want  []string
	}{
		{"", opts},
		{"alp", []string{"Alpha", "ALPHABET"}},
		{"BET", []string{"beta", "ALPHABET"}},
		{"  beta ", []string{"beta"}},
		{"gamma", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := FilterOptions(opts, tt.query); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTickSkipsDeletedRow(t *testing.T) {
	rows := numberedRows(1)
	c := newGrid(t, lineColumns(), rows, Options{})
	c.Edit(rows[0].ID, 3)
	c.Key(KeyEnter)
	added := c.Rows()[1].ID
	c.DeleteRowByID(added)
	if c.Pending() {
		t.Errorf("pending focus survived deletion of its row")
	}
	if c.Tick() {
		t.Errorf("Tick focused a deleted row")
	}
}

func TestFocusMovesHighlightOnly(t *testing.T) {
	rec := &recorder{}
	cols := append(lineColumns(), Column{ID: "paid", Type: Checkbox})
	rows := []Row{line(1, 1, 0), line(2, 1, 0)}
	c := newGrid(t, cols, rows, rec.options(""))

	if !c.Focus(rows[0].ID, 6) {
		t.Fatal("Focus refused a checkbox cell")
	}
	if len(rec.changes) != 0 {
		t.Errorf("Focus toggled a checkbox")
	}

	c.Edit(rows[0].ID, 0)
	c.Input("crate")
	c.Focus(rows[1].ID, 0)
	if _, ok := c.Editing(); ok {
		t.Errorf("edit survived a focus move")
	}
	if got := c.Rows()[0].Get("description"); got != "crate" {
		t.Errorf("focus move lost the edit: %v", got)
	}
	if h := c.Highlight(); h.RowID != rows[1].ID || h.Column != 0 {
		t.Errorf("highlight = %+v", h)
	}
	if c.Focus("missing", 0) || c.Focus(rows[0].ID, 99) {
		t.Errorf("Focus accepted a bad cursor")
	}
}
