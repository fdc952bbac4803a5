package dblib

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type PostgresHandler struct{}

// splitSchema extracts schema and relation name; the schema defaults to public.
func splitSchema(tableName string) (schema, rel string) {
	schema = "public"
	rel = tableName
	if dot := strings.IndexByte(rel, '.'); dot != -1 {
		schema = rel[:dot]
		rel = rel[dot+1:]
	}
	return schema, rel
}

func (h *PostgresHandler) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT CASE WHEN table_schema = 'public' THEN table_name
			ELSE table_schema || '.' || table_name END
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func (h *PostgresHandler) LoadColumns(ctx context.Context, db *sql.DB, tableName string) ([]Column, error) {
	schema, rel := splitSchema(tableName)

	query := `SELECT c.column_name, c.data_type, c.udt_name, c.is_nullable,
			EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage k
				ON k.constraint_name = tc.constraint_name AND k.table_schema = tc.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = c.table_schema AND tc.table_name = c.table_name
				AND k.column_name = c.column_name
			)
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`
	rows, err := db.QueryContext(ctx, query, schema, rel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	udts := make(map[int]string)
	for rows.Next() {
		var col Column
		var udtName, nullable string
		if err := rows.Scan(&col.Name, &col.Type, &udtName, &nullable, &col.PrimaryKey); err != nil {
			return nil, err
		}
		col.Nullable = strings.ToLower(nullable) == "yes"
		if col.Type == "USER-DEFINED" {
			udts[len(columns)] = udtName
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i, udtName := range udts {
		values, err := loadEnumLabels(ctx, db, udtName)
		if err != nil {
			return nil, fmt.Errorf("enum %s: %w", udtName, err)
		}
		columns[i].EnumValues = values
		if len(values) > 0 {
			columns[i].Type = "enum"
		}
	}
	return columns, nil
}

func loadEnumLabels(ctx context.Context, db *sql.DB, udtName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		WHERE t.typname = $1
		ORDER BY e.enumsortorder`, udtName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func (h *PostgresHandler) QuoteIdent(ident string) string {
	if isSafeUnquotedIdent(ident) {
		return ident
	}
	escaped := strings.ReplaceAll(ident, "\"", "\"\"")
	return "\"" + escaped + "\""
}

// Placeholder returns the parameter placeholder for PostgreSQL (positional: $1, $2, etc.).
func (h *PostgresHandler) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}
