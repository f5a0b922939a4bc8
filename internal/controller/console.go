// Package controller renders diagnostics and listings on the terminal.
package controller

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"ccmock.dev/pkg/ccmock/internal/domain"
)

// ColorMode selects when diagnostics are colored.
type ColorMode string

// Color modes.
const (
	ColorAuto   ColorMode = "auto"
	ColorNever  ColorMode = "never"
	ColorAlways ColorMode = "always"
)

// ParseColorMode resolves a general.use_color value.
func ParseColorMode(value string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorNever, ColorAlways:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, never or always)", value)
	}
}

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	Quiet bool
	Color ColorMode
}

// Console prints diagnostics with a styled severity marker, one per line.
// It is safe for concurrent use.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	quiet bool

	info lipgloss.Style
	warn lipgloss.Style
	fail lipgloss.Style
}

var _ domain.Diagnostics = (*Console)(nil)

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer, opts ConsoleOptions) *Console {
	renderer := lipgloss.NewRenderer(w)

	if useColor(w, opts.Color) {
		renderer.SetColorProfile(termenv.ANSI)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}

	bold := renderer.NewStyle().Bold(true)

	return &Console{
		w:     w,
		quiet: opts.Quiet,
		info:  bold.Foreground(lipgloss.Color("2")),
		warn:  bold.Foreground(lipgloss.Color("5")),
		fail:  bold.Foreground(lipgloss.Color("1")),
	}
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return IsTTY(w)
	}
}

// Infof prints an informational message unless the console is quiet.
func (c *Console) Infof(format string, args ...any) {
	if c.quiet {
		return
	}

	c.print(c.info.Render("info:"), format, args...)
}

// Warnf prints a warning unless the console is quiet.
func (c *Console) Warnf(format string, args ...any) {
	if c.quiet {
		return
	}

	c.print(c.warn.Render("warning:"), format, args...)
}

// Errorf prints an error. Errors are never suppressed.
func (c *Console) Errorf(format string, args ...any) {
	c.print(c.fail.Render("error:"), format, args...)
}

func (c *Console) print(marker, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintf(c.w, "%s %s\n", marker, fmt.Sprintf(format, args...))
}
