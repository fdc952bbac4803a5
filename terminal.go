package main

import (
	"os"

	"golang.org/x/term"
)

// fallbackTerminalHeight is used when stdout is not a terminal.
const fallbackTerminalHeight = 24

// getTerminalHeight returns the height of the terminal in rows
func getTerminalHeight() int {
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return fallbackTerminalHeight
	}
	return height
}
