package dblib

import (
	"strings"
)

// quoteQualified splits on '.' and quotes each identifier part independently.
func quoteQualified(h DatabaseHandler, qualified string) string {
	parts := strings.Split(qualified, ".")
	for i, p := range parts {
		parts[i] = h.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}

func quoteList(h DatabaseHandler, names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = h.QuoteIdent(name)
	}
	return strings.Join(quoted, ", ")
}

// `SELECT col, ... FROM tbl ORDER BY key, ...`
func selectQuery(h DatabaseHandler, tableName string, columns, keyCols []string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(quoteList(h, columns))
	b.WriteString(" FROM ")
	b.WriteString(quoteQualified(h, tableName))
	b.WriteString(" ORDER BY ")
	b.WriteString(quoteList(h, keyCols))
	return b.String()
}

// `INSERT INTO tbl (col, ...) VALUES (?, ...)`
func insertQuery(h DatabaseHandler, tableName string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteQualified(h, tableName))
	if len(columns) == 0 {
		b.WriteString(" DEFAULT VALUES")
		return b.String()
	}
	b.WriteString(" (")
	b.WriteString(quoteList(h, columns))
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(h.Placeholder(i + 1))
	}
	b.WriteString(")")
	return b.String()
}

// `UPDATE tbl SET col = ?, ... WHERE key = ? AND ...`; set parameters come first.
func updateQuery(h DatabaseHandler, tableName string, columns, keyCols []string) string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(quoteQualified(h, tableName))
	b.WriteString(" SET ")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(h.QuoteIdent(col))
		b.WriteString(" = ")
		b.WriteString(h.Placeholder(i + 1))
	}
	writeKeyPredicate(&b, h, keyCols, len(columns)+1)
	return b.String()
}

// `DELETE FROM tbl WHERE key = ? AND ...`
func deleteQuery(h DatabaseHandler, tableName string, keyCols []string) string {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(quoteQualified(h, tableName))
	writeKeyPredicate(&b, h, keyCols, 1)
	return b.String()
}

func writeKeyPredicate(b *strings.Builder, h DatabaseHandler, keyCols []string, first int) {
	b.WriteString(" WHERE ")
	for i, col := range keyCols {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(h.QuoteIdent(col))
		b.WriteString(" = ")
		b.WriteString(h.Placeholder(first + i))
	}
}

// isSafeUnquotedIdent returns true if ident can be used without quotes in a
// portable way across supported databases (lowercase [a-z_][a-z0-9_]* and not a
// common reserved keyword).
func isSafeUnquotedIdent(ident string) bool {
	if ident == "" {
		return false
	}
	c0 := ident[0]
	if !((c0 >= 'a' && c0 <= 'z') || c0 == '_') {
		return false
	}
	for i := 1; i < len(ident); i++ {
		c := ident[i]
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	if _, ok := commonReservedIdents[ident]; ok {
		return false
	}
	return true
}

// Small, conservative set of common SQL reserved keywords to avoid unquoted.
var commonReservedIdents = map[string]struct{}{
	// DML/DDL
	"select": {}, "insert": {}, "update": {}, "delete": {}, "into": {}, "values": {},
	"create": {}, "alter": {}, "drop": {}, "table": {}, "index": {}, "view": {},
	// Clauses
	"from": {}, "where": {}, "group": {}, "order": {}, "by": {}, "having": {},
	"limit": {}, "offset": {}, "join": {}, "inner": {}, "left": {}, "right": {}, "full": {}, "outer": {},
	// Operators/Predicates
	"and": {}, "or": {}, "not": {}, "in": {}, "is": {}, "like": {}, "between": {}, "exists": {},
	// Literals
	"null": {}, "true": {}, "false": {},
	// Misc
	"as": {}, "on": {},
}
