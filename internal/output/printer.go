// Package output formats CLI output for the terminal.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// ColorMode selects when colors are used.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses auto, always or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors decides whether to color output. Auto honours NO_COLOR and
// dumb terminals.
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// Printer writes user-facing messages.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer on stdout and stderr.
func NewPrinter(useColors bool) *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, useColors)
}

// NewPrinterWithWriters creates a printer on custom writers.
func NewPrinterWithWriters(out, err io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: err, useColors: useColors}
}

// Out returns the writer for regular output.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Info prints an informational message.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.out, color.FgCyan, "", format, args...)
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.out, color.FgGreen, "[OK] ", format, args...)
}

// Warning prints a warning to stderr.
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.err, color.FgYellow, "[WARN] ", format, args...)
}

// Error prints an error to stderr.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.err, color.FgRed, "[ERROR] ", format, args...)
}

// Print prints a plain line.
func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Header prints a section title with an underline.
func (p *Printer) Header(title string) {
	underline := make([]rune, len([]rune(title)))
	for i := range underline {
		underline[i] = '-'
	}
	if p.useColors {
		color.New(color.Bold).Fprintf(p.out, "\n%s\n", title)
		fmt.Fprintf(p.out, "%s\n", string(underline))
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, string(underline))
}

// Dim returns faint text.
func (p *Printer) Dim(text string) string {
	if p.useColors {
		return color.New(color.Faint).Sprint(text)
	}
	return text
}

func (p *Printer) line(w io.Writer, attr color.Attribute, plainPrefix, format string, args ...any) {
	if p.useColors {
		color.New(attr).Fprintf(w, format+"\n", args...)
		return
	}
	fmt.Fprintf(w, plainPrefix+format+"\n", args...)
}
