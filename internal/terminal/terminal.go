// Package terminal holds small terminal helpers shared by the line-mode
// display and the CLI: colours, prompts, size detection and a spinner.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Color codes
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// IsTerminal checks if f is attached to a terminal
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Size returns the terminal dimensions of f, or 80x24 when f is not a terminal
func Size(f *os.File) (int, int) {
	if !IsTerminal(f) {
		return defaultWidth, defaultHeight
	}
	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return defaultWidth, defaultHeight
	}
	return width, height
}

// ClearLine returns the ANSI escape code to clear the current line
func ClearLine() string {
	return "\033[2K"
}
