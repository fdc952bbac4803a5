// Package export writes grid contents to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"tally/internal/grid"
)

// pixels per spreadsheet width unit
const widthUnit = 7.0

// Sheet describes one exported worksheet.
type Sheet struct {
	Name    string
	Columns []grid.Column
	Rows    []grid.Row
}

// WriteXLSX writes a workbook with a header row followed by every row in order.
// Aggregate rows are bold and action columns are left out.
func WriteXLSX(w io.Writer, sheet Sheet) error {
	name := sheet.Name
	if name == "" {
		name = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	columns := make([]grid.Column, 0, len(sheet.Columns))
	for _, col := range sheet.Columns {
		if col.Type != grid.Action {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return fmt.Errorf("export: no columns")
	}

	headers := make([]any, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
		if headers[i] == "" {
			headers[i] = col.ID
		}
		letter, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		width := col.Width
		if width <= 0 {
			width = grid.DefaultColumnWidth
		}
		if err := f.SetColWidth(name, letter, letter, float64(width)/widthUnit); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(name, "A1", last, header); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	for i, row := range sheet.Rows {
		line := i + 2
		values := make([]any, len(columns))
		for j, col := range columns {
			values[j] = cellValue(col, row)
		}
		start, _ := excelize.CoordinatesToCellName(1, line)
		if err := f.SetSheetRow(name, start, &values); err != nil {
			return fmt.Errorf("export: row %d: %w", i+1, err)
		}
		if row.Aggregate() {
			end, _ := excelize.CoordinatesToCellName(len(columns), line)
			if err := f.SetCellStyle(name, start, end, bold); err != nil {
				return fmt.Errorf("export: row %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// cellValue keeps numbers numeric and checkboxes boolean so the sheet can compute with them.
func cellValue(col grid.Column, row grid.Row) any {
	v := row.Get(col.ID)
	switch {
	case col.Type == grid.Checkbox:
		if row.Aggregate() {
			return nil
		}
		b, _ := grid.ParseValue(grid.Checkbox, grid.DraftText(col, v)).(bool)
		return b
	case col.Type.NumericLike():
		text, _ := grid.FormatValue(col, v)
		if d, err := decimal.NewFromString(text); err == nil {
			return d.InexactFloat64()
		}
		return text
	default:
		text, _ := grid.FormatValue(col, v)
		return text
	}
}
