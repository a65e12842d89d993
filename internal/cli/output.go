// Package cli provides colored terminal output for the sss-token command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// Printer writes results to Out and failures to Err.
type Printer struct {
	Out      io.Writer
	Err      io.Writer
	Colorize bool
}

// NewPrinter writes to stdout and stderr, colorizing when stdout is a terminal.
func NewPrinter() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr, Colorize: isTerminal(os.Stdout)}
}

// Color returns text wrapped in color when colors are enabled.
func (p *Printer) Color(text, color string) string {
	if !p.Colorize {
		return text
	}
	return color + text + ColorReset
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintf(p.Out, "%s %s\n", p.Color("✓", ColorGreen), fmt.Sprintf(format, args...))
}

// Error prints an error message in red to Err.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.Err, p.Color("Error: "+err.Error(), ColorRed))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	fmt.Fprintf(p.Out, "%s %s\n", p.Color("⚠", ColorYellow), fmt.Sprintf(format, args...))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintf(p.Out, "%s %s\n", p.Color("ℹ", ColorBlue), fmt.Sprintf(format, args...))
}

// Field prints an indented "label: value" line.
func (p *Printer) Field(label string, value interface{}) {
	fmt.Fprintf(p.Out, "  %s %v\n", p.Color(label+":", ColorBold), value)
}

// Table prints rows aligned under headers.
func (p *Printer) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, p.Color(strings.Join(headers, "\t"), ColorCyan))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// JSON prints v indented.
func (p *Printer) JSON(v interface{}) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
