// Package style provides consistent terminal styling for the tpsa CLI
// using Lipgloss.
package style

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	ColorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorLink = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	// Success style for positive outcomes (green)
	Success = lipgloss.NewStyle().Foreground(ColorPass).Bold(true)

	// Error style for failures (red)
	Error = lipgloss.NewStyle().Foreground(ColorFail).Bold(true)

	// Info style for headers and labels (blue)
	Info = lipgloss.NewStyle().Foreground(ColorLink)

	// Dim style for secondary information (gray)
	Dim = lipgloss.NewStyle().Foreground(ColorMute)

	Bold = lipgloss.NewStyle().Bold(true)
)

// Configure selects the color profile: "always", "never" or "auto"
// (color only when stdout is a terminal and NO_COLOR is unset).
func Configure(mode string) {
	if UseColor(mode) {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

func UseColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Row is one label/value line of a Table.
type Row struct {
	Label string
	Value string
}

// Table renders rows with labels padded to a common width.
func Table(w io.Writer, title string, rows []Row) {
	width := 0
	for _, r := range rows {
		if n := lipgloss.Width(r.Label); n > width {
			width = n
		}
	}
	if title != "" {
		fmt.Fprintln(w, Bold.Render(title))
	}
	for _, r := range rows {
		pad := strings.Repeat(" ", width-lipgloss.Width(r.Label))
		fmt.Fprintf(w, "  %s%s  %s\n", Info.Render(r.Label), pad, r.Value)
	}
}

// PrintError writes a styled error line.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", Error.Render("✗ Error:"), err)
}
