// Package logger provides verbose logging for authkit.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to trace the authorization flow and credential
// refreshes. Errors are always printed. Token values are never logged.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	mu       sync.RWMutex
	verbose  bool
	output   io.Writer = os.Stderr
	renderer           = lipgloss.NewRenderer(os.Stderr)
)

// Level tag colours. The renderer drops them when output is not a terminal.
const (
	colourDebug = lipgloss.Color("#7B8088")
	colourInfo  = lipgloss.Color("#4A90D9")
	colourWarn  = lipgloss.Color("#E5A50A")
	colourError = lipgloss.Color("#D64545")
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	renderer = lipgloss.NewRenderer(w)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(false, "DEBUG", colourDebug, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(false, "INFO", colourInfo, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(false, "WARN", colourWarn, format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	logf(true, "ERROR", colourError, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func logf(always bool, level string, colour lipgloss.Color, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !always && !verbose {
		return
	}
	tag := renderer.NewStyle().Foreground(colour).Render("[" + level + "]")
	fmt.Fprintf(output, tag+" "+format+"\n", args...)
}
