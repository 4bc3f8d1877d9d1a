// Package color decides whether sdn-pulse output may carry ANSI colour.
//
// It follows the NO_COLOR convention (https://no-color.org/) and disables
// colour when the output is not a terminal. When colour is off, lipgloss is
// switched to the Ascii profile and rendered frames are flattened to text.
package color

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Disabled reports whether colour should be suppressed for output written
// to out. lookupEnv is os.LookupEnv outside tests.
func Disabled(out *os.File, lookupEnv func(string) (string, bool)) bool {
	if _, ok := lookupEnv("NO_COLOR"); ok {
		return true
	}
	if out == nil {
		return true
	}
	fd := out.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// Apply configures the global lipgloss renderer for out and returns true if
// colour stays enabled.
func Apply(out *os.File) bool {
	if Disabled(out, os.LookupEnv) {
		ForceDisable()
		return false
	}
	return true
}

// ForceDisable sets the lipgloss colour profile to Ascii.
func ForceDisable() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// halfBlock is the glyph the chart encoder paints pixel pairs with. Without
// its colours it carries no information.
const halfBlock = "▀"

// Plain removes escape sequences from a rendered frame and blanks the chart's
// half-block cells, leaving the text panels readable in a pipe.
func Plain(s string) string {
	return strings.ReplaceAll(ansi.Strip(s), halfBlock, " ")
}
