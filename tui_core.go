package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"tally/internal/dblib"
	"tally/internal/grid"
)

const (
	pagePicker   = "picker"
	pageTable    = "table"
	pageEditor   = "editor"
	chromeHeight = 8 // table name, borders, header, pager, status bar, palette
)

// Editor is the terminal host of one grid: it loads a table through the store,
// mounts the grid view and forwards edits back on save.
type Editor struct {
	app   *tview.Application
	pages *tview.Pages
	table *GridView
	ctx   context.Context

	db       *sql.DB
	dbType   dblib.DatabaseType
	dbName   string
	config   AppConfig
	settings *Settings

	store     *dblib.Store
	tableName string
	tableKey  string
	schema    *dblib.Schema
	pageSize  int

	tablePicker    *FuzzySelector
	statusBar      *tview.TextView
	commandPalette *tview.InputField
	layout         *tview.Flex

	paletteMode PaletteMode
	quitArmed   bool

	// edit overlay
	editing    bool
	editCursor grid.Cursor
	editField  *tview.InputField
	choiceList *tview.List
}

// editorOptions is what the open command resolved before the screen starts.
type editorOptions struct {
	conn       Config
	app        AppConfig
	settings   *Settings
	table      string
	tableKey   string
	schemaPath string
}

// PaletteMode represents the current mode of the command palette
type PaletteMode int

const (
	PaletteModeDefault PaletteMode = iota
	PaletteModeCommand
	PaletteModeEdit
)

func (m PaletteMode) Glyph() string {
	switch m {
	case PaletteModeDefault:
		return "⌃ "
	case PaletteModeEdit:
		return "✎ "
	default:
		return "> "
	}
}

// mouseActionString converts tview.MouseAction to a human-readable string
func mouseActionString(action tview.MouseAction) string {
	switch action {
	case tview.MouseLeftDown:
		return "LeftDown"
	case tview.MouseLeftUp:
		return "LeftUp"
	case tview.MouseScrollUp:
		return "ScrollUp"
	case tview.MouseScrollDown:
		return "ScrollDown"
	case tview.MouseLeftClick:
		return "LeftClick"
	case tview.MouseRightClick:
		return "RightClick"
	case tview.MouseMiddleClick:
		return "MiddleClick"
	case tview.MouseMove:
		return "Move"
	case tview.MouseLeftDoubleClick:
		return "LeftDoubleClick"
	default:
		return fmt.Sprintf("Unknown(%d)", action)
	}
}

// pageSizeFor fits the configured page size to the terminal height.
func pageSizeFor(configured, terminalHeight int) int {
	if configured <= 0 {
		configured = grid.DefaultPageSize
	}
	if room := terminalHeight - chromeHeight; room > 0 {
		return min(configured, room)
	}
	return configured
}

func runEditor(ctx context.Context, opts editorOptions) error {
	tview.Styles.ContrastBackgroundColor = tcell.ColorBlack

	db, dbType, err := opts.conn.connect(ctx)
	if err != nil {
		CaptureError(err)
		return err
	}
	defer db.Close()

	tables, err := dblib.ListTables(ctx, db, dbType)
	if err != nil {
		CaptureError(err)
		return err
	}

	app := tview.NewApplication().SetTitle(fmt.Sprintf("tally %s %s",
		opts.conn.Database, databaseIcons[dbType])).EnableMouse(true)

	editor := &Editor{
		app:      app,
		pages:    tview.NewPages(),
		ctx:      ctx,
		db:       db,
		dbType:   dbType,
		dbName:   opts.conn.Database,
		config:   opts.app,
		settings: opts.settings,
		tableKey: opts.tableKey,
		pageSize: pageSizeFor(opts.app.PageSize, getTerminalHeight()),
	}

	if opts.schemaPath != "" {
		schema, err := dblib.LoadSchema(opts.schemaPath)
		if err != nil {
			return err
		}
		editor.schema = schema
		if editor.tableKey == "" {
			editor.tableKey = schema.TableKey
		}
		if schema.PageSize > 0 {
			editor.pageSize = schema.PageSize
		}
	}

	editor.tablePicker = NewFuzzySelector(tables, recentTablesFor(opts.settings, opts.conn.Database), editor.selectTableFromPicker, editor.closePicker)
	editor.tablePicker.SetPlaceholder("Search for tables...")

	// an empty grid until a table is opened
	empty, _ := grid.New(nil, nil, grid.Options{})
	editor.table = NewGridView(empty).
		SetChangeFunc(editor.onGridChange).
		SetTableNameClickFunc(editor.openPicker)

	editor.setupKeyBindings()
	editor.setupStatusBar()
	editor.setupCommandPalette()

	editor.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(editor.table, 0, 1, true).
		AddItem(editor.statusBar, 1, 0, false).
		AddItem(editor.commandPalette, 1, 0, false)
	editor.pages.AddPage(pageTable, editor.layout, true, true)

	pickerOverlay := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(editor.tablePicker, 8, 0, true).
		AddItem(nil, 0, 1, false)
	editor.pages.AddPage(pagePicker, pickerOverlay, true, false)

	if opts.table != "" {
		if err := editor.openTable(opts.table); err != nil {
			CaptureError(err)
			return err
		}
	} else {
		editor.openPicker()
	}

	defer editor.table.Unmount()
	if err := editor.app.SetRoot(editor.pages, true).Run(); err != nil {
		CaptureError(err)
		return err
	}
	return nil
}

// loadGrid builds a controller for a table: introspection, rows, schema overlay
// and option queries.
func loadGrid(ctx context.Context, db *sql.DB, dbType dblib.DatabaseType, table string, schema *dblib.Schema, opts grid.Options) (*dblib.Store, *grid.Controller, error) {
	store, err := dblib.Open(ctx, db, dbType, table)
	if err != nil {
		return nil, nil, err
	}
	rows, err := store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	columns, err := schema.Apply(store.Columns())
	if err != nil {
		return nil, nil, err
	}
	choices, err := store.LoadOptions(ctx, schema.OptionQueries())
	if err != nil {
		return nil, nil, err
	}
	for i := range columns {
		if options, ok := choices[columns[i].ID]; ok {
			columns[i].Options = options
		}
	}
	if opts.OnChange == nil {
		opts.OnChange = store.Stage
	} else {
		onChange := opts.OnChange
		opts.OnChange = func(rows []grid.Row) {
			store.Stage(rows)
			onChange(rows)
		}
	}
	g, err := grid.New(columns, rows, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("table %s: %w", table, err)
	}
	return store, g, nil
}

// openTable replaces the grid with the contents of another table.
func (e *Editor) openTable(name string) error {
	if e.store != nil && e.store.Dirty() {
		return fmt.Errorf("unsaved changes in %s: save with Ctrl+S or discard with reload", e.tableName)
	}
	schema := e.schema
	if e.tableName != "" && name != e.tableName {
		// a schema file describes the table it was opened with
		schema = nil
	}
	store, g, err := loadGrid(e.ctx, e.db, e.dbType, name, schema, e.gridOptions())
	if err != nil {
		return err
	}

	e.closeEditor()
	e.table.Unmount()
	e.store = store
	e.tableName = name
	e.schema = schema
	e.table.SetGrid(g).SetTableName(name)
	e.table.Mount(e.app, e.commitEdit)

	SetGridContext(e.dbType.String(), name, e.tableKey, g)
	if breadcrumbs != nil {
		breadcrumbs.RecordNavigation("open", name)
	}
	if e.settings != nil {
		e.settings.TouchRecent(e.dbName + "/" + name)
		if err := SaveSettings(e.settings); err != nil {
			debugLog("save settings: %v\n", err)
		}
	}
	e.app.SetFocus(e.table)
	e.updateStatus()
	return nil
}

func (e *Editor) gridOptions() grid.Options {
	return grid.Options{
		TableKey: e.tableKey,
		PageSize: e.pageSize,
		OnChange: func([]grid.Row) {
			recordGrid("change", e.tableName)
		},
		OnSelectionChange: func(count int, all bool, _ []grid.Row) {
			recordGrid("selection", fmt.Sprintf("%d all=%t", count, all))
		},
		OnAction: e.onAction,
	}
}

// onAction runs an action cell. The only action a table offers is row removal.
func (e *Editor) onAction(row grid.Row, col grid.Column) {
	// the controller is mid-click; defer the delete to the next turn
	go e.app.QueueUpdateDraw(func() {
		if e.grid().DeleteRowByID(row.ID) {
			recordGrid("action", col.ID)
			e.table.refresh()
			e.SetStatusMessage("Row removed · Ctrl+S to save")
		}
	})
}

func (e *Editor) grid() *grid.Controller {
	return e.table.Grid()
}

// onGridChange runs after every grid transition the view performed.
func (e *Editor) onGridChange() {
	e.syncEditor()
	e.scheduleTick()
	e.updateStatus()
}

// scheduleTick runs the deferred half of a keyboard row add on the next turn of
// the event loop.
func (e *Editor) scheduleTick() {
	if !e.grid().Pending() {
		return
	}
	go e.app.QueueUpdateDraw(func() {
		if e.grid().Tick() {
			e.table.refresh()
		}
	})
}

// save writes the staged rows and reloads, so database defaults and keys show.
func (e *Editor) save() {
	if e.store == nil {
		return
	}
	e.commitEdit()
	if !e.store.Dirty() {
		e.SetStatusMessage("Nothing to save")
		return
	}
	if breadcrumbs != nil {
		breadcrumbs.RecordDatabase("save " + e.tableName)
	}
	result, err := e.store.Save(e.ctx)
	if err != nil {
		e.SetStatusErrorWithSentry(err)
		return
	}
	if err := e.reload(); err != nil {
		e.SetStatusErrorWithSentry(err)
		return
	}
	e.SetStatusLog("Saved: " + result.String())
}

// reload replaces the grid rows with what the database holds now.
func (e *Editor) reload() error {
	rows, err := e.store.Load(e.ctx)
	if err != nil {
		return err
	}
	e.closeEditor()
	if err := e.grid().SetRows(rows); err != nil {
		return err
	}
	e.table.refresh()
	return nil
}

func (e *Editor) openPicker() {
	e.commitEdit()
	e.pages.ShowPage(pagePicker)
	e.app.SetFocus(e.tablePicker)
	e.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		screen.SetCursorStyle(tcell.CursorStyleBlinkingBar)
	})
}

func (e *Editor) closePicker() {
	e.pages.HidePage(pagePicker)
	e.app.SetFocus(e.table)
	e.app.SetAfterDrawFunc(nil)
}

func (e *Editor) selectTableFromPicker(name string) {
	e.closePicker()
	if name == e.tableName {
		return
	}
	if err := e.openTable(name); err != nil {
		e.SetStatusError(err.Error())
	}
}

func (e *Editor) setupStatusBar() {
	e.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWrap(false)

	e.statusBar.SetBackgroundColor(tcell.ColorLightGray)
	e.statusBar.SetTextColor(tcell.ColorBlack)
	e.statusBar.SetText("Ready")
}

func (e *Editor) setupCommandPalette() {
	e.commandPalette = tview.NewInputField().
		SetLabel("").
		SetFieldBackgroundColor(tcell.ColorBlack).
		SetFieldTextColor(tcell.ColorWhite)
	e.commandPalette.SetBackgroundColor(tcell.ColorBlack)

	e.setPaletteMode(PaletteModeDefault, false)

	e.commandPalette.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			if e.paletteMode == PaletteModeCommand {
				e.executeCommand(e.commandPalette.GetText())
			}
			e.setPaletteMode(PaletteModeDefault, false)
			e.app.SetFocus(e.table)
			return nil
		case tcell.KeyEscape:
			e.setPaletteMode(PaletteModeDefault, false)
			e.app.SetFocus(e.table)
			return nil
		case tcell.KeyCtrlQ:
			e.app.Stop()
			return nil
		}
		return event
	})
}

// setPaletteMode switches the palette between help text and command input.
func (e *Editor) setPaletteMode(mode PaletteMode, focus bool) {
	e.paletteMode = mode
	e.commandPalette.SetText("")
	e.commandPalette.SetLabel(mode.Glyph())
	switch mode {
	case PaletteModeCommand:
		e.commandPalette.SetPlaceholder("rounding <amount> · page <n> · pagesize <n> · export <file.xlsx> · sort clear · reload · quit")
	case PaletteModeEdit:
		e.commandPalette.SetPlaceholder("Enter next · Tab next · Esc revert")
	default:
		e.commandPalette.SetPlaceholder(keybindingHelp)
	}
	e.commandPalette.SetPlaceholderStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorGray))
	if focus {
		e.app.SetFocus(e.commandPalette)
	}
	if breadcrumbs != nil {
		breadcrumbs.RecordNavigation("palette", mode.Glyph())
	}
}
