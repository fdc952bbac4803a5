package dblib

import (
	"context"
	"database/sql"
	"strings"
)

type MySQLHandler struct{}

func (h *MySQLHandler) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func (h *MySQLHandler) LoadColumns(ctx context.Context, db *sql.DB, tableName string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, `SELECT column_name, data_type, column_type, is_nullable, column_key
		FROM information_schema.columns
		WHERE table_name = ? AND table_schema = DATABASE()
		ORDER BY ordinal_position`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var columnType, nullable, key string
		if err := rows.Scan(&col.Name, &col.Type, &columnType, &nullable, &key); err != nil {
			return nil, err
		}
		col.Nullable = strings.ToLower(nullable) == "yes"
		col.PrimaryKey = key == "PRI"
		if col.Type == "enum" {
			col.EnumValues = parseEnumValues(columnType)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// parseEnumValues extracts enum values from MySQL's column_type string
// Example input: "enum('active','inactive','pending')"
// Returns: ["active", "inactive", "pending"]
func parseEnumValues(colType string) []string {
	if !strings.HasPrefix(colType, "enum(") || !strings.HasSuffix(colType, ")") {
		return nil
	}
	inner := colType[5 : len(colType)-1]

	var values []string
	var current strings.Builder
	inQuote := false
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		switch {
		case ch == '\\' && i+1 < len(inner):
			i++
			current.WriteByte(inner[i])
		case ch == '\'' && inQuote && i+1 < len(inner) && inner[i+1] == '\'':
			// doubled quote inside a value
			i++
			current.WriteByte('\'')
		case ch == '\'':
			if inQuote {
				values = append(values, current.String())
				current.Reset()
			}
			inQuote = !inQuote
		case inQuote:
			current.WriteByte(ch)
		}
	}
	return values
}

func (h *MySQLHandler) QuoteIdent(ident string) string {
	if isSafeUnquotedIdent(ident) {
		return ident
	}
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// Placeholder returns the parameter placeholder for MySQL (always "?").
func (h *MySQLHandler) Placeholder(position int) string {
	return "?"
}
