package dblib

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type SQLiteHandler struct{}

func (h *SQLiteHandler) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func (h *SQLiteHandler) LoadColumns(ctx context.Context, db *sql.DB, tableName string) ([]Column, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", h.QuoteIdent(tableName))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var cid, notNull, pk int
		var dfltValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		col.Nullable = notNull == 0
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (h *SQLiteHandler) QuoteIdent(ident string) string {
	if isSafeUnquotedIdent(ident) {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Placeholder returns the parameter placeholder for SQLite (always "?").
func (h *SQLiteHandler) Placeholder(position int) string {
	return "?"
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
