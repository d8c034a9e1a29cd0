// Package convert runs conversion passes: parse a source document, render
// it to a sink and evaluate the collected diagnostics against a fail
// policy. Every pass owns its aggregator, registry and sink.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/parser"
	"github.com/dgallion1/docsink/internal/render"
	"github.com/dgallion1/docsink/internal/sink"
)

// Format selects the output written by File.
type Format string

const (
	FormatHTML   Format = "html"
	FormatEvents Format = "events"
)

// ParseFormat validates an output format name. An empty name means HTML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatEvents:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// ContentType is the MIME type of the format's output.
func (f Format) ContentType() string {
	if f == FormatEvents {
		return "application/json"
	}
	return "text/html; charset=utf-8"
}

// Ext is the file extension for the format's output.
func (f Format) Ext() string {
	if f == FormatEvents {
		return ".json"
	}
	return ".html"
}

// Options configure a conversion pass.
type Options struct {
	Format    Format
	Render    render.Options
	Policy    diag.Policy
	Formatter diag.Formatter
	// Echo receives every diagnostic as it is recorded. Nil disables echo.
	Echo diag.Reporter
	// Errors receives the diagnostics that trip the fail policy.
	Errors diag.Reporter
}

// Pass is one conversion of one document.
type Pass struct {
	opts Options
	agg  *diag.Aggregator
	log  *slog.Logger
}

// NewPass returns a pass with an empty diagnostics buffer.
func NewPass(opts Options, logger *slog.Logger) *Pass {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	aggOpts := []diag.Option{diag.WithPolicy(opts.Policy), diag.WithFormatter(opts.Formatter)}
	if opts.Echo != nil {
		aggOpts = append(aggOpts, diag.WithEcho(opts.Echo))
	}
	if opts.Errors != nil {
		aggOpts = append(aggOpts, diag.WithErrorReporter(opts.Errors))
	}
	return &Pass{opts: opts, agg: diag.NewAggregator(aggOpts...), log: logger}
}

// Diagnostics is the pass's diagnostic buffer. Parsers record into it.
func (p *Pass) Diagnostics() *diag.Aggregator { return p.agg }

// Render writes the document head and body of tree to s.
func (p *Pass) Render(tree *doctree.Node, s sink.Sink) {
	render.WriteHead(s, render.HeaderFrom(tree))
	render.New(s, p.agg, p.log, p.opts.Render).Render(tree)
}

// Evaluate applies the fail policy to the diagnostics of the pass. It
// returns a *diag.FailureError when the policy trips.
func (p *Pass) Evaluate() error { return p.agg.Evaluate() }

// Result is the outcome of converting one file.
type Result struct {
	File     string        `json:"file"`
	Format   Format        `json:"format"`
	Output   []byte        `json:"-"`
	Records  []diag.Record `json:"records"`
	Failure  string        `json:"failure,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	failure *diag.FailureError
}

// Failed reports whether the fail policy tripped.
func (r *Result) Failed() bool { return r.failure != nil }

// FailureError returns the policy failure, or nil.
func (r *Result) FailureError() *diag.FailureError { return r.failure }

// File parses r as filename, renders it in the requested format and
// evaluates the fail policy. Rendering always completes before the policy
// is evaluated: when the policy trips, the returned Result carries the full
// output and the returned error is its *diag.FailureError. Any other error
// means no output was produced.
func File(r io.Reader, filename string, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pass := NewPass(opts, logger.With("file", filename))
	pass.agg.SetCurrentFile(filename)

	tree, err := p.Parse(r, filename, pass.agg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	var out bytes.Buffer
	switch format {
	case FormatEvents:
		rec := sink.NewRecorder()
		pass.Render(tree, rec)
		if err := rec.WriteJSON(&out); err != nil {
			return nil, fmt.Errorf("write events: %w", err)
		}
	default:
		h := sink.NewHTML()
		pass.Render(tree, h)
		if err := h.Render(&out); err != nil {
			return nil, fmt.Errorf("write html: %w", err)
		}
	}

	res := &Result{
		File:    filename,
		Format:  format,
		Output:  out.Bytes(),
		Records: pass.agg.Records(),
	}
	evalErr := pass.Evaluate()
	res.Duration = time.Since(start)

	var failure *diag.FailureError
	if errors.As(evalErr, &failure) {
		res.failure = failure
		res.Failure = failure.Error()
		logger.Warn("conversion failed policy", "file", filename, "policy", opts.Policy.String(), "issues", failure.Count)
		return res, failure
	}
	logger.Info("conversion finished",
		"file", filename,
		"format", string(format),
		"diagnostics", len(res.Records),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, evalErr
}
