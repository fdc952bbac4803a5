package dblib

import (
	"context"
	"database/sql"
	"os"
	"slices"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"tally/internal/grid"
)

func setupTestDB(t *testing.T) *sql.DB {
	// Create temporary SQLite database
	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	db, err := sql.Open("sqlite3", tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE invoice_lines (
			id INTEGER PRIMARY KEY,
			position INTEGER,
			description TEXT,
			quantity INTEGER,
			price NUMERIC,
			tax NUMERIC,
			amount TEXT,
			paid BOOLEAN,
			shipped DATE,
			issubtotal BOOLEAN NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	testData := []struct {
		position    int
		description string
		quantity    int
		price       float64
		subtotal    bool
	}{
		{1, "anvil", 1, 30, false},
		{2, "bolt", 2, 5, false},
		{3, "", 0, 0, true},
	}
	for i, row := range testData {
		_, err = db.Exec(`INSERT INTO invoice_lines (id, position, description, quantity, price, tax, paid, shipped, issubtotal)
			VALUES (?, ?, ?, ?, ?, 0, 0, '2024-01-31', ?)`,
			i+1, row.position, row.description, row.quantity, row.price, row.subtotal)
		if err != nil {
			t.Fatalf("Failed to insert test data: %v", err)
		}
	}
	return db
}

func openStore(t *testing.T, db *sql.DB) *Store {
	s, err := Open(context.Background(), db, SQLite, "invoice_lines")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestIntrospect(t *testing.T) {
	db := setupTestDB(t)
	table, err := Introspect(context.Background(), db, SQLite, "invoice_lines")
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	if !slices.Equal(table.Key, []string{"id"}) {
		t.Errorf("key = %v", table.Key)
	}
	if !table.HasAggregateFlags() {
		t.Errorf("issubtotal column not detected")
	}

	want := map[string]grid.ColumnType{
		"id":          grid.Number,
		"description": grid.Text,
		"quantity":    grid.Number,
		"price":       grid.Float,
		"tax":         grid.Rate,
		"amount":      grid.Amount,
		"paid":        grid.Checkbox,
		"shipped":     grid.Date,
	}
	cols := table.GridColumns()
	if len(cols) != len(want) {
		t.Fatalf("grid columns = %d, want %d", len(cols), len(want))
	}
	for _, col := range cols {
		if col.Type != want[col.ID] {
			t.Errorf("%s: type %v, want %v", col.ID, col.Type, want[col.ID])
		}
		if hidden(col.ID) {
			t.Errorf("structural column %s exposed", col.ID)
		}
	}
	if !cols[0].ReadOnly || cols[1].ReadOnly {
		t.Errorf("only the key column is read-only")
	}
	if cols[1].Header != "Description" {
		t.Errorf("header = %q", cols[1].Header)
	}
}

func TestIntrospectErrors(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Exec("CREATE TABLE notes (body TEXT)"); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := Introspect(ctx, db, SQLite, "notes"); err == nil {
		t.Errorf("table without a primary key accepted")
	}
	if _, err := Introspect(ctx, db, SQLite, "missing"); err == nil {
		t.Errorf("missing table accepted")
	}
}

func TestListTables(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Exec("CREATE TABLE clients (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatal(err)
	}
	tables, err := ListTables(context.Background(), db, SQLite)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if !slices.Equal(tables, []string{"clients", "invoice_lines"}) {
		t.Errorf("tables = %v", tables)
	}
}

func TestLoad(t *testing.T) {
	s := openStore(t, setupTestDB(t))
	rows, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].ID != "1" || rows[2].ID != "3" {
		t.Errorf("ids = %s, %s", rows[0].ID, rows[2].ID)
	}
	if !rows[2].Subtotal || rows[0].Subtotal {
		t.Errorf("subtotal flag not loaded")
	}
	if _, ok := rows[2].Values[SubtotalFlagColumn]; ok {
		t.Errorf("flag column leaked into values")
	}
	if got := rows[1].Get("quantity"); got != int64(2) {
		t.Errorf("quantity = %#v", got)
	}
	if got := rows[0].Get("price"); got != float64(30) {
		t.Errorf("price = %#v", got)
	}
	if got := rows[0].Get("paid"); got != false {
		t.Errorf("paid = %#v", got)
	}
	if got := rows[0].Get("shipped"); got != "2024-01-31" {
		t.Errorf("shipped = %#v", got)
	}
	if s.Dirty() {
		t.Errorf("fresh store is dirty")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	s := openStore(t, db)
	rows, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}

	rows[0].Values["description"] = "axe"
	staged := []grid.Row{rows[0], rows[2], {
		ID:     "new",
		Values: map[string]any{"description": "nail", "quantity": int64(4), "price": 0.5},
	}}
	s.Stage(staged)
	if !s.Dirty() {
		t.Fatal("Stage did not mark the store dirty")
	}

	res, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	// the subtotal moved from position 3 to 2
	want := SaveResult{Inserted: 1, Updated: 2, Deleted: 1}
	if res != want {
		t.Errorf("result = %v, want %v", res, want)
	}
	if s.Dirty() {
		t.Errorf("dirty after Save")
	}

	reloaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var descriptions []string
	for _, r := range reloaded {
		descriptions = append(descriptions, r.Get("description").(string))
	}
	if !slices.Equal(descriptions, []string{"axe", "", "nail"}) {
		t.Errorf("descriptions = %q", descriptions)
	}
	if !reloaded[1].Subtotal {
		t.Errorf("subtotal lost: %+v", reloaded[1])
	}
	if reloaded[2].ID == "new" || reloaded[2].ID == "" {
		t.Errorf("inserted row id = %q, want a generated key", reloaded[2].ID)
	}
}

func TestSaveTwiceWithoutReload(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	s := openStore(t, db)
	rows, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	added := grid.Row{ID: "new", Values: map[string]any{"description": "nail", "quantity": int64(4), "price": 0.5}}

	tests := []struct {
		name   string
		staged func() []grid.Row
		want   SaveResult
	}{
		{"first save inserts", func() []grid.Row {
			return []grid.Row{rows[0], rows[1], added}
		}, SaveResult{Inserted: 1, Deleted: 1}},
		{"unchanged stage writes nothing", func() []grid.Row {
			return []grid.Row{rows[0], rows[1], added}
		}, SaveResult{}},
		{"edit of the inserted row updates it", func() []grid.Row {
			edited := added.Clone()
			edited.Values["description"] = "nails"
			return []grid.Row{rows[0], rows[1], edited}
		}, SaveResult{Updated: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Stage(tt.staged())
			res, err := s.Save(ctx)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if res != tt.want {
				t.Errorf("result = %v, want %v", res, tt.want)
			}
		})
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM invoice_lines WHERE description LIKE 'nail%'").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("inserted row stored %d times, want once", count)
	}
	var description string
	if err := db.QueryRow("SELECT description FROM invoice_lines WHERE position = 3").Scan(&description); err != nil {
		t.Fatal(err)
	}
	if description != "nails" {
		t.Errorf("description = %q, want nails", description)
	}
}

func TestSaveWithoutChangesIsNoop(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, setupTestDB(t))
	rows, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	s.Stage(rows)
	res, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res != (SaveResult{}) {
		t.Errorf("unchanged rows wrote %v", res)
	}
}

func TestSaveFromGrid(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, setupTestDB(t))
	rows, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	c, err := grid.New(s.Columns(), rows, grid.Options{OnChange: s.Stage})
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	if !c.Edit(rows[1].ID, 1) {
		t.Fatal("description not editable")
	}
	c.Input("hex bolt")
	c.Commit()

	if _, err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded[1].Get("description"); got != "hex bolt" {
		t.Errorf("description = %v", got)
	}
	if got := reloaded[1].Get("amount"); got != "10.00" {
		t.Errorf("computed amount not stored: %#v", got)
	}
}

func TestLoadOptions(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Exec(`CREATE TABLE clients (id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO clients (name) VALUES ('Initech'), ('Acme Ltd'), (NULL)`); err != nil {
		t.Fatal(err)
	}
	s := openStore(t, db)
	ctx := context.Background()

	got, err := s.LoadOptions(ctx, map[string]string{
		"client": "SELECT name FROM clients ORDER BY name",
		"unit":   "SELECT 'kg' UNION ALL SELECT 'pcs'",
	})
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if !slices.Equal(got["client"], []string{"Acme Ltd", "Initech"}) {
		t.Errorf("client = %v", got["client"])
	}
	if !slices.Equal(got["unit"], []string{"kg", "pcs"}) {
		t.Errorf("unit = %v", got["unit"])
	}

	_, err = s.LoadOptions(ctx, map[string]string{"bad": "SELECT nope FROM nowhere"})
	if err == nil || !strings.Contains(err.Error(), "options for bad") {
		t.Errorf("err = %v", err)
	}
}

func TestParseEnumValues(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"enum('active','inactive','pending')", []string{"active", "inactive", "pending"}},
		{"enum('it''s','a\\,b')", []string{"it's", "a,b"}},
		{"varchar(20)", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseEnumValues(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryBuilders(t *testing.T) {
	pg := &PostgresHandler{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"select", selectQuery(&SQLiteHandler{}, "invoice_lines", []string{"id", "order"}, []string{"id"}),
			`SELECT id, "order" FROM invoice_lines ORDER BY id`},
		{"insert", insertQuery(pg, "sales.lines", []string{"a", "b"}),
			"INSERT INTO sales.lines (a, b) VALUES ($1, $2)"},
		{"insert defaults", insertQuery(pg, "lines", nil),
			"INSERT INTO lines DEFAULT VALUES"},
		{"update", updateQuery(pg, "lines", []string{"a", "b"}, []string{"id", "rev"}),
			"UPDATE lines SET a = $1, b = $2 WHERE id = $3 AND rev = $4"},
		{"delete", deleteQuery(&MySQLHandler{}, "Lines", []string{"id"}),
			"DELETE FROM `Lines` WHERE id = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseDatabaseType(t *testing.T) {
	for name, want := range map[string]DatabaseType{"sqlite3": SQLite, "PostgreSQL": PostgreSQL, "mariadb": MySQL} {
		got, err := ParseDatabaseType(name)
		if err != nil || got != want {
			t.Errorf("ParseDatabaseType(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseDatabaseType("duckdb"); err == nil {
		t.Errorf("unsupported type accepted")
	}
}
