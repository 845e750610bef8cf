// Package console holds terminal helpers for the status commands.
package console

import (
	"io"
	"math"
	"strings"

	"golang.org/x/term"
)

// DefaultWidth is used when w is not a terminal or its size is unknown.
const DefaultWidth = 80

type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether w is an *os.File (or anything with Fd) attached
// to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of the terminal behind w.
func Width(w io.Writer) int {
	f, ok := w.(fder)
	if !ok {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

// Bar renders frac (clamped to [0,1]) as "[####.....]" with width inner cells.
func Bar(frac float64, width int) string {
	if width < 1 {
		width = 1
	}
	if math.IsNaN(frac) || frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(math.Floor(frac * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// BarWidth picks an inner bar width that leaves room for a label of n
// columns on a line of the given width.
func BarWidth(lineWidth, n int) int {
	w := lineWidth - n - 3
	if w > 50 {
		w = 50
	}
	if w < 10 {
		w = 10
	}
	return w
}
