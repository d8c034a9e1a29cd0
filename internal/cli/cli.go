// Package cli implements the docsink command-line interface.
//
// The convert command parses source documents, renders them to HTML or to
// the JSON event stream and applies the fail policy to the diagnostics of
// each file. Console logging uses charmbracelet/log; the same logger is the
// slog handler passed to the conversion core.
package cli

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version is reported by --version.
var Version = "dev"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// structured returns a structured logger backed by the console logger.
func (c *CLI) structured() *slog.Logger {
	return slog.New(c.Logger)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "docsink",
		Short:         "docsink renders structured documents through an output sink",
		Long:          `docsink converts Markdown, HTML, DOCX, PDF, CSV and text documents to HTML or to a JSON stream of sink events, reporting parse and render diagnostics along the way.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.convertCommand())
	return root
}
