// File: internal/ui/term.go
// Brief: Internal ui package implementation for 'terminal helpers'.

package ui

import (
	"io"

	"github.com/fatih/color"
	"golang.org/x/term"
)

type fdProvider interface {
	Fd() uintptr
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	v, ok := w.(fdProvider)
	return ok && term.IsTerminal(int(v.Fd()))
}

// ApplyColorMode sets the global color switch for mode ("auto", "always" or
// "never"). In auto mode color follows whether out is a terminal.
func ApplyColorMode(mode string, out io.Writer) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		color.NoColor = !IsTerminal(out)
	}
}
