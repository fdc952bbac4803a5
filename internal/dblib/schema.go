package dblib

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tally/internal/grid"
)

// Schema is a column descriptor file laid over an introspected table.
type Schema struct {
	TableKey string         `yaml:"table_key"`
	PageSize int            `yaml:"page_size"`
	Columns  []SchemaColumn `yaml:"columns"`
}

type SchemaColumn struct {
	ID           string   `yaml:"id"`
	Header       string   `yaml:"header"`
	Type         string   `yaml:"type"`
	Width        int      `yaml:"width"`
	Options      []string `yaml:"options"`
	OptionsQuery string   `yaml:"options_query"`
	ReadOnly     bool     `yaml:"readonly"`
}

// LoadSchema reads a schema file from disk.
func LoadSchema(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return ParseSchema(b)
}

func ParseSchema(b []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, col := range s.Columns {
		if col.ID == "" {
			return nil, errors.New("schema: column without id")
		}
		if seen[col.ID] {
			return nil, fmt.Errorf("schema: %w: %q", grid.ErrDuplicateColumn, col.ID)
		}
		seen[col.ID] = true
		if _, err := grid.ParseColumnType(col.Type); err != nil {
			return nil, fmt.Errorf("schema: column %q: %w", col.ID, err)
		}
	}
	return &s, nil
}

// Apply orders and overrides base columns by the schema. Columns the table lacks are
// only allowed for action cells. A nil or empty schema returns base unchanged.
func (s *Schema) Apply(base []grid.Column) ([]grid.Column, error) {
	if s == nil || len(s.Columns) == 0 {
		return base, nil
	}
	byID := make(map[string]grid.Column, len(base))
	for _, col := range base {
		byID[col.ID] = col
	}

	out := make([]grid.Column, 0, len(s.Columns))
	for _, sc := range s.Columns {
		col, ok := byID[sc.ID]
		if sc.Type != "" {
			// validated by ParseSchema
			col.Type, _ = grid.ParseColumnType(sc.Type)
		}
		if !ok {
			if col.Type != grid.Action {
				return nil, fmt.Errorf("schema: column %q is not in the table", sc.ID)
			}
			col.ID = sc.ID
		}
		if sc.Header != "" {
			col.Header = sc.Header
		}
		if sc.Width > 0 {
			col.Width = sc.Width
		}
		if len(sc.Options) > 0 {
			col.Options = sc.Options
		}
		col.ReadOnly = col.ReadOnly || sc.ReadOnly
		out = append(out, col)
	}
	return out, nil
}

// OptionQueries maps column ids to the SQL that lists their choices.
func (s *Schema) OptionQueries() map[string]string {
	if s == nil {
		return nil
	}
	out := make(map[string]string)
	for _, col := range s.Columns {
		if col.OptionsQuery != "" {
			out[col.ID] = col.OptionsQuery
		}
	}
	return out
}
