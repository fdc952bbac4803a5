//go:build !debug

package dblib

func debugLog(format string, args ...any) {}
