package dblib

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"tally/internal/grid"
)

// Store loads a table into grid rows and writes staged grid edits back.
type Store struct {
	db      *sql.DB
	handler DatabaseHandler
	table   Table
	types   map[string]grid.ColumnType

	mu       sync.Mutex
	snapshot map[string]grid.Row // rows as last loaded, by row id
	keys     map[string][]any    // key values by row id
	staged   []grid.Row
	dirty    bool
	stale    bool // a Save inserted rows whose keys are unknown until Load
}

// ErrReloadRequired is returned by Save after an insert whose generated key the
// driver could not report. Load clears it.
var ErrReloadRequired = errors.New("rows were inserted; reload before saving again")

// SaveResult counts the statements a Save executed.
type SaveResult struct {
	Inserted, Updated, Deleted int
}

func (r SaveResult) String() string {
	return fmt.Sprintf("%d inserted, %d updated, %d deleted", r.Inserted, r.Updated, r.Deleted)
}

// Open introspects tableName and prepares a store over it.
func Open(ctx context.Context, db *sql.DB, dbType DatabaseType, tableName string) (*Store, error) {
	handler, err := NewDatabaseHandler(dbType)
	if err != nil {
		return nil, err
	}
	table, err := Introspect(ctx, db, dbType, tableName)
	if err != nil {
		return nil, err
	}
	s := &Store{
		db:      db,
		handler: handler,
		table:   table,
		types:   make(map[string]grid.ColumnType, len(table.Columns)),
	}
	for _, col := range table.Columns {
		s.types[col.Name] = columnType(col)
	}
	return s, nil
}

func (s *Store) Table() Table {
	return s.table
}

// Columns are the grid columns of the table, without structural columns.
func (s *Store) Columns() []grid.Column {
	return s.table.GridColumns()
}

func (s *Store) orderColumns() []string {
	if _, ok := s.table.Column(OrderColumn); ok {
		return append([]string{OrderColumn}, s.table.Key...)
	}
	return s.table.Key
}

func (s *Store) columnNames() []string {
	names := make([]string, len(s.table.Columns))
	for i, col := range s.table.Columns {
		names[i] = col.Name
	}
	return names
}

// Load reads every row. Row ids are the key values; rows flagged through the
// issubtotal and istotal columns load as aggregate rows.
func (s *Store) Load(ctx context.Context) ([]grid.Row, error) {
	names := s.columnNames()
	query := selectQuery(s.handler, s.table.Name, names, s.orderColumns())
	debugLog("load: %s\n", query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.table.Name, err)
	}
	defer rows.Close()

	var out []grid.Row
	snapshot := make(map[string]grid.Row)
	keys := make(map[string][]any)
	for rows.Next() {
		raw := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("loading %s: %w", s.table.Name, err)
		}

		row := grid.Row{Values: make(map[string]any, len(names))}
		key := make([]any, 0, len(s.table.Key))
		for i, name := range names {
			switch {
			case name == SubtotalFlagColumn:
				row.Subtotal = asBool(raw[i])
			case name == TotalFlagColumn:
				row.Total = asBool(raw[i])
			case name == OrderColumn:
				row.Values[name] = cellValue(grid.Number, raw[i])
			default:
				row.Values[name] = cellValue(s.types[name], raw[i])
			}
			if s.table.isKey(name) {
				key = append(key, raw[i])
			}
		}
		row.ID = rowID(key)
		snapshot[row.ID] = row.Clone()
		keys[row.ID] = key
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.table.Name, err)
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.keys = keys
	s.staged = nil
	s.dirty = false
	s.stale = false
	s.mu.Unlock()
	debugLog("load: %d rows\n", len(out))
	return out, nil
}

func rowID(key []any) string {
	parts := make([]string, len(key))
	for i, v := range key {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "/")
}

// Stage records the grid's working copy for the next Save. It is meant to be
// passed the OnChange payload as is.
func (s *Store) Stage(rows []grid.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = make([]grid.Row, len(rows))
	for i, r := range rows {
		s.staged[i] = r.Clone()
	}
	s.dirty = true
}

// Dirty reports whether rows were staged since the last Load or Save.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Save writes the staged rows in one transaction: rows missing from the stage are
// deleted, changed rows updated and rows with unknown ids inserted. After a
// commit the store tracks the staged rows as saved, so a second Save without a
// Load writes only what changed since. Callers reload to pick up generated keys
// as row ids.
func (s *Store) Save(ctx context.Context) (SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res SaveResult
	if !s.dirty {
		return res, nil
	}
	if s.stale {
		return res, fmt.Errorf("saving %s: %w", s.table.Name, ErrReloadRequired)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("saving %s: %w", s.table.Name, err)
	}
	defer tx.Rollback()

	kept := make(map[string]bool, len(s.staged))
	for _, r := range s.staged {
		kept[r.ID] = true
	}
	snapshot := make(map[string]grid.Row, len(s.staged))
	keys := make(map[string][]any, len(s.staged))
	stale := false
	for id, key := range s.keys {
		if kept[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, deleteQuery(s.handler, s.table.Name, s.table.Key), key...); err != nil {
			return SaveResult{}, fmt.Errorf("deleting %s: %w", id, err)
		}
		res.Deleted++
	}

	for i, r := range s.staged {
		if r.Aggregate() && !s.table.HasAggregateFlags() {
			continue
		}
		values := s.rowValues(r, i+1)
		saved := r.Clone()
		saved.Values[OrderColumn] = int64(i + 1)
		if old, ok := s.snapshot[r.ID]; ok {
			snapshot[r.ID] = saved
			keys[r.ID] = s.keys[r.ID]
			cols, args := s.changed(s.rowValues(old, positionOf(old)), values)
			if len(cols) == 0 {
				continue
			}
			args = append(args, s.keys[r.ID]...)
			if _, err := tx.ExecContext(ctx, updateQuery(s.handler, s.table.Name, cols, s.table.Key), args...); err != nil {
				return SaveResult{}, fmt.Errorf("updating %s: %w", r.ID, err)
			}
			res.Updated++
			continue
		}
		cols, args := s.insertable(values)
		result, err := tx.ExecContext(ctx, insertQuery(s.handler, s.table.Name, cols), args...)
		if err != nil {
			return SaveResult{}, fmt.Errorf("inserting row %d: %w", i+1, err)
		}
		res.Inserted++
		if key, ok := s.insertedKey(values, result); ok {
			snapshot[r.ID] = saved
			keys[r.ID] = key
		} else {
			stale = true
		}
	}

	if err := tx.Commit(); err != nil {
		return SaveResult{}, fmt.Errorf("saving %s: %w", s.table.Name, err)
	}
	s.snapshot = snapshot
	s.keys = keys
	s.stale = stale
	s.dirty = false
	debugLog("save: %s\n", res)
	return res, nil
}

// insertedKey returns the key of a freshly inserted row: the values written when
// every key column was given, else the driver's last insert id for a single
// generated key.
func (s *Store) insertedKey(values map[string]any, result sql.Result) ([]any, bool) {
	key := make([]any, 0, len(s.table.Key))
	complete := true
	for _, name := range s.table.Key {
		v := values[name]
		if v == nil || v == "" || v == int64(0) {
			complete = false
			break
		}
		key = append(key, v)
	}
	if complete {
		return key, true
	}
	if len(s.table.Key) != 1 {
		return nil, false
	}
	id, err := result.LastInsertId()
	if err != nil {
		debugLog("save: no insert id: %v\n", err)
		return nil, false
	}
	return []any{id}, true
}

func positionOf(r grid.Row) int {
	if n, ok := r.Get(OrderColumn).(int64); ok {
		return int(n)
	}
	return 0
}

// rowValues returns the driver value of every table column for r.
func (s *Store) rowValues(r grid.Row, position int) map[string]any {
	out := make(map[string]any, len(s.table.Columns))
	for _, col := range s.table.Columns {
		switch col.Name {
		case SubtotalFlagColumn:
			out[col.Name] = r.Subtotal
		case TotalFlagColumn:
			out[col.Name] = r.Total
		case OrderColumn:
			out[col.Name] = int64(position)
		default:
			out[col.Name] = storedValue(s.types[col.Name], r.Get(col.Name))
		}
	}
	return out
}

// changed lists the non-key columns whose values differ, in table order.
func (s *Store) changed(old, cur map[string]any) ([]string, []any) {
	var cols []string
	var args []any
	for _, col := range s.table.Columns {
		if col.PrimaryKey {
			continue
		}
		if fmt.Sprint(old[col.Name]) != fmt.Sprint(cur[col.Name]) {
			cols = append(cols, col.Name)
			args = append(args, cur[col.Name])
		}
	}
	return cols, args
}

// insertable drops empty key columns so the database can generate them.
func (s *Store) insertable(values map[string]any) ([]string, []any) {
	var cols []string
	var args []any
	for _, col := range s.table.Columns {
		v := values[col.Name]
		if col.PrimaryKey && (v == nil || v == "" || v == int64(0)) {
			continue
		}
		cols = append(cols, col.Name)
		args = append(args, v)
	}
	return cols, args
}

// LoadOptions runs each column's choice query concurrently and returns the first
// column of every result row.
func (s *Store) LoadOptions(ctx context.Context, queries map[string]string) (map[string][]string, error) {
	ids := make([]string, 0, len(queries))
	for id := range queries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	results := make([][]string, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			options, err := s.queryOptions(ctx, queries[id])
			if err != nil {
				return fmt.Errorf("options for %s: %w", id, err)
			}
			results[i] = options
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

func (s *Store) queryOptions(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []string
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		if len(raw) == 0 || raw[0] == nil {
			continue
		}
		if b, ok := raw[0].([]byte); ok {
			out = append(out, string(b))
		} else {
			out = append(out, fmt.Sprint(raw[0]))
		}
	}
	return out, rows.Err()
}

// ListTables returns the base tables of the connected database.
func ListTables(ctx context.Context, db *sql.DB, dbType DatabaseType) ([]string, error) {
	handler, err := NewDatabaseHandler(dbType)
	if err != nil {
		return nil, err
	}
	return handler.ListTables(ctx, db)
}
