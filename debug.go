//go:build debug

package main

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	debugOut  io.Writer = os.Stderr
	debugOnce sync.Once
)

// debugLog writes debug messages when built with -tags debug. The screen belongs
// to the terminal UI, so TALLY_DEBUG_LOG may name a file to write to instead of stderr.
func debugLog(format string, args ...any) {
	debugOnce.Do(func() {
		if path := os.Getenv("TALLY_DEBUG_LOG"); path != "" {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
				debugOut = f
			}
		}
	})
	fmt.Fprintf(debugOut, "[DEBUG] "+format, args...)
}
