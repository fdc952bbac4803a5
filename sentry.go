package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"tally/internal/grid"
)

// InitSentry starts error reporting. Events carry the build version and an
// install id that does not reveal the user's home directory.
func InitSentry(dsn string) error {
	version := buildVersion()
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          "tally@" + version,
		Environment:      getEnvironment(os.Getenv("TALLY_ENV"), version),
		TracesSampleRate: 0.1,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	if dir, err := os.UserCacheDir(); err == nil {
		sentry.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetUser(sentry.User{ID: installID(dir)})
		})
	}
	return nil
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// getEnvironment prefers TALLY_ENV; builds from a checkout report development.
func getEnvironment(env, version string) string {
	switch {
	case env == "dev":
		return "development"
	case env != "":
		return env
	case version == "(devel)":
		return "development"
	}
	return "production"
}

func installID(cacheDir string) string {
	sum := sha256.Sum256([]byte("tally:" + cacheDir))
	return hex.EncodeToString(sum[:8])
}

// gridTags describes the open table: where it lives and how its profile
// shapes editing.
func gridTags(dbType, table, tableKey string, g *grid.Controller) map[string]string {
	tags := map[string]string{
		"database": dbType,
		"table":    table,
	}
	if tableKey != "" {
		tags["table_key"] = tableKey
	}
	if g == nil {
		return tags
	}
	p := g.Profile()
	tags["page_size"] = strconv.Itoa(g.PageSize())
	tags["sorting"] = strconv.FormatBool(!p.SortingDisabled)
	tags["selection"] = strconv.FormatBool(p.SelectionEnabled)
	tags["totals"] = strconv.FormatBool(p.Totals)
	return tags
}

// SetGridContext tags later events with the table being edited.
func SetGridContext(dbType, table, tableKey string, g *grid.Controller) {
	tags := gridTags(dbType, table, tableKey, g)
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
}

// FlushAndShutdown flushes pending Sentry events and closes the client
func FlushAndShutdown() {
	if breadcrumbs != nil {
		breadcrumbs.Flush()
	}
	sentry.Flush(5 * time.Second)
}

// CaptureError sends an error to Sentry along with any pending breadcrumbs
func CaptureError(err error) {
	if err == nil {
		return
	}
	if breadcrumbs != nil {
		breadcrumbs.Flush()
	}
	sentry.CaptureException(err)
}

// CaptureMessage sends a message to Sentry with optional breadcrumbs
func CaptureMessage(message string) {
	if breadcrumbs != nil {
		breadcrumbs.Flush()
	}
	sentry.CaptureMessage(message)
}
