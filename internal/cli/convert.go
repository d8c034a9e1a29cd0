package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsink/internal/config"
	"github.com/dgallion1/docsink/internal/convert"
	"github.com/dgallion1/docsink/internal/diag"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	format       string // html or events
	out          string // output directory (stdout if empty)
	failSeverity string // overrides the profile's fail_if.severity
	failText     string // overrides the profile's fail_if.contains_text
	sourceDir    string // diagnostics paths are printed relative to it
	profile      string // TOML conversion profile
	quiet        bool   // no diagnostic echo
}

func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert [files...]",
		Short: "Convert documents to HTML or sink events",
		Long: `Convert parses each file, renders it and prints the diagnostics
recorded along the way. When a fail policy is set (--fail-severity,
--fail-text or the profile's [log.fail_if] table) and a file's diagnostics
match it, the output is still written and the command exits with status 1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passOpts, err := opts.passOptions(cmd, c)
			if err != nil {
				return err
			}
			return c.runConvert(cmd.OutOrStdout(), args, opts.out, passOpts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: html or events")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (default: stdout)")
	cmd.Flags().StringVar(&opts.failSeverity, "fail-severity", "", "fail when a diagnostic has at least this severity")
	cmd.Flags().StringVar(&opts.failText, "fail-text", "", "fail when a diagnostic message contains this text")
	cmd.Flags().StringVar(&opts.sourceDir, "source-dir", "", "print diagnostic paths relative to this directory")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "TOML conversion profile")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not echo diagnostics")

	return cmd
}

// passOptions loads the profile and applies the flags set on the command
// line. Configuration errors surface before any file is read.
func (o *convertOpts) passOptions(cmd *cobra.Command, c *CLI) (convert.Options, error) {
	profile, err := config.LoadProfile(o.profile)
	if err != nil {
		return convert.Options{}, err
	}
	opts, err := profile.ConvertOptions()
	if err != nil {
		return convert.Options{}, err
	}

	if cmd.Flags().Changed("format") {
		if opts.Format, err = convert.ParseFormat(o.format); err != nil {
			return convert.Options{}, err
		}
	}
	if cmd.Flags().Changed("fail-severity") {
		sev, err := diag.ParseSeverity(o.failSeverity)
		if err != nil {
			return convert.Options{}, fmt.Errorf("--fail-severity: %w", err)
		}
		opts.Policy.Severity = sev
	}
	if cmd.Flags().Changed("fail-text") {
		opts.Policy.ContainsText = o.failText
	}

	opts.Formatter = diag.Formatter{SourceDir: o.sourceDir}
	if !o.quiet && profile.Log.Console() {
		opts.Echo = echoReporter(c.Logger)
	}
	opts.Errors = errorReporter(c.Logger)
	return opts, nil
}

// runConvert converts every file in order. Policy failures and conversion
// errors are counted and reported together once all files are done.
func (c *CLI) runConvert(stdout io.Writer, files []string, outDir string, opts convert.Options) error {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	logger := c.structured()
	failed := 0
	for _, path := range files {
		res, err := convertFile(path, opts, logger)
		if res != nil {
			if werr := writeOutput(stdout, outDir, path, res); werr != nil {
				return werr
			}
		}
		if err == nil {
			continue
		}
		failed++
		if fe, ok := diag.AsFailure(err); ok {
			c.Logger.Error("Conversion failed policy", "file", path, "issues", fe.Count, "policy", fe.Policy.String())
		} else {
			c.Logger.Error("Conversion error", "file", path, "err", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(files))
	}
	return nil
}

func convertFile(path string, opts convert.Options, logger *slog.Logger) (*convert.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return convert.File(f, path, opts, logger)
}

// writeOutput writes the result to <outDir>/<stem><ext>, or to stdout when
// no directory is set.
func writeOutput(stdout io.Writer, outDir, path string, res *convert.Result) error {
	if outDir == "" {
		_, err := stdout.Write(res.Output)
		return err
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	target := filepath.Join(outDir, stem+res.Format.Ext())
	if err := os.WriteFile(target, res.Output, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
