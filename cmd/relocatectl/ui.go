package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// UI prints status lines for the operator.
type UI struct {
	out io.Writer
}

// NewUI creates a UI writing to out. noColor disables ANSI colors globally.
func NewUI(out io.Writer, noColor bool) *UI {
	if noColor {
		color.NoColor = true
	}
	return &UI{out: out}
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(ui.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(ui.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints a plain message.
func (ui *UI) Info(format string, args ...any) {
	fmt.Fprintf(ui.out, "  %s\n", fmt.Sprintf(format, args...))
}

// Header prints a bold section title.
func (ui *UI) Header(format string, args ...any) {
	color.New(color.Bold).Fprintf(ui.out, "%s\n", fmt.Sprintf(format, args...))
}
