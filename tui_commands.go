package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tally/internal/export"
	"tally/internal/grid"
)

const commandHelp = "Commands: rounding <amount>, page <n>, pagesize <n>, export <file.xlsx>, sort clear, select clear, reload, quit"

// Command execution
func (e *Editor) executeCommand(command string) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return
	}

	cmd := parts[0]
	args := parts[1:]
	if breadcrumbs != nil {
		breadcrumbs.RecordNavigation("command", cmd)
	}
	g := e.grid()

	switch cmd {
	case "quit", "q":
		e.quit()
	case "help", "h":
		e.SetStatusMessage(commandHelp)
	case "rounding":
		if len(args) != 1 {
			e.SetStatusMessage("Usage: rounding <amount>")
			return
		}
		v, err := decimal.NewFromString(args[0])
		if err != nil {
			e.SetStatusError(fmt.Sprintf("invalid amount %q", args[0]))
			return
		}
		e.commitEdit()
		if !g.SetRounding(v) {
			e.SetStatusError(e.tableName + " has no total row")
			return
		}
		e.table.refresh()
	case "page":
		n, err := positiveArg(args)
		if err != nil {
			e.SetStatusMessage("Usage: page <n>")
			return
		}
		g.SetPage(n - 1)
		e.table.refresh()
	case "pagesize":
		n, err := positiveArg(args)
		if err != nil {
			e.SetStatusMessage("Usage: pagesize <n>")
			return
		}
		g.SetPageSize(n)
		e.table.refresh()
	case "export":
		if len(args) != 1 {
			e.SetStatusMessage("Usage: export <file.xlsx>")
			return
		}
		e.commitEdit()
		if err := exportGrid(args[0], e.tableName, g); err != nil {
			e.SetStatusErrorWithSentry(err)
			return
		}
		e.SetStatusLog(fmt.Sprintf("Exported %d rows to %s", len(g.VisibleRows()), args[0]))
	case "sort":
		if len(args) != 1 || args[0] != "clear" {
			e.SetStatusMessage("Usage: sort clear")
			return
		}
		g.ClearSort()
		e.table.refresh()
	case "select":
		if len(args) != 1 || args[0] != "clear" {
			e.SetStatusMessage("Usage: select clear")
			return
		}
		g.Handle().ClearSelection()
		e.table.refresh()
	case "reload":
		if e.store == nil {
			e.SetStatusError("No table open")
			return
		}
		if err := e.reload(); err != nil {
			e.SetStatusErrorWithSentry(err)
			return
		}
		e.SetStatusLog("Reloaded " + e.tableName)
	default:
		e.SetStatusError("Unknown command: " + cmd)
	}
}

var errUsage = errors.New("usage")

// positiveArg parses the single 1-based number a paging command takes.
func positiveArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, errUsage
	}
	return n, nil
}

// exportGrid writes the rows a table shows, in display order, to an xlsx file.
func exportGrid(path, name string, g *grid.Controller) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	sheet := export.Sheet{Name: name, Columns: g.Columns(), Rows: g.VisibleRows()}
	if err := export.WriteXLSX(f, sheet); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return f.Close()
}
