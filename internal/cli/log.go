package cli

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/dgallion1/docsink/internal/diag"
)

// newLogger creates a logger with timestamp formatting that writes to w and
// filters messages at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// echoReporter prints formatted diagnostics as they are recorded.
func echoReporter(l *log.Logger) diag.Reporter {
	return diag.ReporterFunc(func(msg string) { l.Print(msg) })
}

// errorReporter prints the diagnostics that trip the fail policy.
func errorReporter(l *log.Logger) diag.Reporter {
	return diag.ReporterFunc(func(msg string) { l.Error(msg) })
}
