package dblib

import (
	"fmt"
	"slices"
	"strings"
)

type DatabaseType int

const (
	SQLite DatabaseType = iota
	PostgreSQL
	MySQL
)

type databaseFeature struct {
	driver                string
	embedded              bool
	positionalPlaceholder bool
}

var databaseFeatures = map[DatabaseType]databaseFeature{
	SQLite: {
		driver:                "sqlite3",
		embedded:              true,
		positionalPlaceholder: false,
	},
	PostgreSQL: {
		driver:                "postgres",
		embedded:              false,
		positionalPlaceholder: true,
	},
	MySQL: {
		driver:                "mysql",
		embedded:              false,
		positionalPlaceholder: false,
	},
}

func (t DatabaseType) String() string {
	switch t {
	case SQLite:
		return "sqlite"
	case PostgreSQL:
		return "postgres"
	case MySQL:
		return "mysql"
	default:
		return fmt.Sprintf("DatabaseType(%d)", int(t))
	}
}

// Driver is the database/sql driver name registered for t.
func (t DatabaseType) Driver() string {
	return databaseFeatures[t].driver
}

// Embedded reports whether the database lives in a local file.
func (t DatabaseType) Embedded() bool {
	return databaseFeatures[t].embedded
}

// ParseDatabaseType accepts the names used in config files and flags.
func ParseDatabaseType(name string) (DatabaseType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return PostgreSQL, nil
	case "mysql", "mariadb":
		return MySQL, nil
	}
	return 0, fmt.Errorf("unsupported database type %q", name)
}

// Flag columns mark stored rows as subtotal or total rows.
const (
	SubtotalFlagColumn = "issubtotal"
	TotalFlagColumn    = "istotal"
)

// Column is one column of a base table as reported by the database.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	EnumValues []string // for ENUM types, stores allowed values
}

// Table is an introspected base table.
type Table struct {
	Name    string
	Columns []Column
	Key     []string // primary key column names, in key order

	columnIndex map[string]int
}

func newTable(name string, columns []Column) Table {
	t := Table{Name: name, Columns: columns, columnIndex: make(map[string]int, len(columns))}
	for i, col := range columns {
		t.columnIndex[col.Name] = i
		if col.PrimaryKey {
			t.Key = append(t.Key, col.Name)
		}
	}
	return t
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	i, ok := t.columnIndex[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// HasAggregateFlags reports whether rows of t can be stored as subtotals or totals.
func (t Table) HasAggregateFlags() bool {
	_, sub := t.columnIndex[SubtotalFlagColumn]
	_, tot := t.columnIndex[TotalFlagColumn]
	return sub || tot
}

func (t Table) isKey(name string) bool {
	return slices.Contains(t.Key, name)
}

func isFlagColumn(name string) bool {
	return name == SubtotalFlagColumn || name == TotalFlagColumn
}
