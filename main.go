package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"tally/internal/dblib"
	"tally/internal/grid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "tally is a grid editor for business records",
	Long: `tally edits invoice lines, payroll items and other record tables in a
spreadsheet-like grid with running subtotals and totals.

Examples:
  tally open shop.db invoice_lines --key invoice-lines
  tally open shop stock -h db.internal -U clerk
  tally export shop.db invoice_lines lines.xlsx`,
	SilenceUsage: true,
}

var (
	connFlags  Config
	tableKey   string
	schemaPath string
)

var openCmd = &cobra.Command{
	Use:   "open <database> [table]",
	Short: "Open a table in the grid editor",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runOpen,
}

var exportCmd = &cobra.Command{
	Use:   "export <database> <table> <out.xlsx>",
	Short: "Write a table to an xlsx workbook",
	Args:  cobra.ExactArgs(3),
	RunE:  runExport,
}

var tablesCmd = &cobra.Command{
	Use:   "tables <database>",
	Short: "List the tables a database offers",
	Args:  cobra.ExactArgs(1),
	RunE:  runTables,
}

var telemetryCmd = &cobra.Command{
	Use:       "telemetry <on|off>",
	Short:     "Turn anonymous error reports on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runTelemetry,
}

func init() {
	// -h is the host flag, so help only has the long form
	rootCmd.PersistentFlags().BoolP("help", "", false, "help for tally")
	rootCmd.PersistentFlags().StringVarP(&connFlags.Database, "database", "d", "", "Database name")
	rootCmd.PersistentFlags().StringVarP(&connFlags.Host, "host", "h", "", "Database host")
	rootCmd.PersistentFlags().StringVarP(&connFlags.Port, "port", "p", "", "Database port")
	rootCmd.PersistentFlags().StringVarP(&connFlags.Username, "username", "U", "", "Database username")
	rootCmd.PersistentFlags().StringVarP(&connFlags.Password, "password", "W", "", "Database password")
	rootCmd.PersistentFlags().Int("page-size", defaultPageSize, "Rows per page")

	for _, cmd := range []*cobra.Command{openCmd, exportCmd} {
		cmd.Flags().StringVar(&tableKey, "key", "", "Table key selecting sorting, selection and totals behaviour")
		cmd.Flags().StringVar(&schemaPath, "schema", "", "Schema file overriding column types, headers and options")
	}
	rootCmd.AddCommand(openCmd, exportCmd, tablesCmd, telemetryCmd)
}

// setup reads config and resolves the database argument into a connection.
func setup(cmd *cobra.Command, name string) (AppConfig, Config, error) {
	appConfig, err := loadAppConfig(cmd.Flags())
	if err != nil {
		return AppConfig{}, Config{}, err
	}
	conn, err := appConfig.resolve(name, connFlags)
	if err != nil {
		return AppConfig{}, Config{}, err
	}
	return appConfig, conn, nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	appConfig, conn, err := setup(cmd, args[0])
	if err != nil {
		return err
	}

	settings, err := LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; using defaults\n", err)
		settings = &Settings{}
	}
	if !settings.FirstRunComplete {
		fmt.Fprintln(os.Stderr, "Error reports are off. Run `tally telemetry on` to send them.")
		settings.FirstRunComplete = true
		if err := SaveSettings(settings); err != nil {
			debugLog("save settings: %v\n", err)
		}
	}

	InitBreadcrumbs(100)
	if settings.TelemetryEnabled && appConfig.SentryDSN != "" {
		if err := InitSentry(appConfig.SentryDSN); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			defer FlushAndShutdown()
		}
	}

	opts := editorOptions{
		conn:       conn,
		app:        appConfig,
		settings:   settings,
		tableKey:   tableKey,
		schemaPath: schemaPath,
	}
	if len(args) == 2 {
		opts.table = args[1]
	}
	return runEditor(cmd.Context(), opts)
}

func runExport(cmd *cobra.Command, args []string) error {
	appConfig, conn, err := setup(cmd, args[0])
	if err != nil {
		return err
	}
	table, out := args[1], args[2]

	ctx := cmd.Context()
	db, dbType, err := conn.connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var schema *dblib.Schema
	key := tableKey
	if schemaPath != "" {
		if schema, err = dblib.LoadSchema(schemaPath); err != nil {
			return err
		}
		if key == "" {
			key = schema.TableKey
		}
	}

	_, g, err := loadGrid(ctx, db, dbType, table, schema, grid.Options{TableKey: key, PageSize: appConfig.PageSize})
	if err != nil {
		return err
	}
	if err := exportGrid(out, table, g); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(g.VisibleRows()), out)
	return nil
}

func runTables(cmd *cobra.Command, args []string) error {
	_, conn, err := setup(cmd, args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	db, dbType, err := conn.connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tables, err := dblib.ListTables(ctx, db, dbType)
	if err != nil {
		return err
	}
	for _, name := range tables {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	settings, err := LoadSettings()
	if err != nil {
		return err
	}
	switch args[0] {
	case "on":
		settings.TelemetryEnabled = true
	case "off":
		settings.TelemetryEnabled = false
	default:
		return fmt.Errorf("telemetry: want on or off, got %q", args[0])
	}
	settings.FirstRunComplete = true
	if err := SaveSettings(settings); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Error reports %s\n", args[0])
	return nil
}
