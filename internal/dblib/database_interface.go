package dblib

import (
	"context"
	"database/sql"
	"fmt"
)

// DatabaseHandler defines database-specific operations for a particular database type.
// Each backend provides schema introspection and the SQL dialect details the store
// needs to write rows back.
type DatabaseHandler interface {
	// ListTables returns the base tables visible to the connection, sorted by name.
	ListTables(ctx context.Context, db *sql.DB) ([]string, error)

	// LoadColumns loads column metadata for a table in definition order, with
	// PrimaryKey and EnumValues populated.
	LoadColumns(ctx context.Context, db *sql.DB, tableName string) ([]Column, error)

	// QuoteIdent returns a properly quoted identifier for this database.
	QuoteIdent(ident string) string

	// Placeholder returns the parameter placeholder for the given 1-based position.
	Placeholder(position int) string
}

// NewDatabaseHandler creates the appropriate DatabaseHandler for the given database type.
//
//	handler, err := NewDatabaseHandler(dbType)
//	if err != nil {
//	    return fmt.Errorf("unsupported database: %w", err)
//	}
//	tables, err := handler.ListTables(ctx, db)
func NewDatabaseHandler(dbType DatabaseType) (DatabaseHandler, error) {
	switch dbType {
	case MySQL:
		return &MySQLHandler{}, nil
	case PostgreSQL:
		return &PostgresHandler{}, nil
	case SQLite:
		return &SQLiteHandler{}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %v", dbType)
	}
}

// Introspect loads the named table through the handler for dbType.
func Introspect(ctx context.Context, db *sql.DB, dbType DatabaseType, tableName string) (Table, error) {
	handler, err := NewDatabaseHandler(dbType)
	if err != nil {
		return Table{}, err
	}
	columns, err := handler.LoadColumns(ctx, db, tableName)
	if err != nil {
		return Table{}, fmt.Errorf("loading columns of %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return Table{}, fmt.Errorf("table %s not found", tableName)
	}
	table := newTable(tableName, columns)
	if len(table.Key) == 0 {
		return Table{}, fmt.Errorf("table %s has no primary key", tableName)
	}
	debugLog("introspected %s: %d columns, key %v\n", tableName, len(columns), table.Key)
	return table, nil
}
