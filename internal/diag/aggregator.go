package diag

import "strings"

// Aggregator buffers the records of a single conversion pass and evaluates
// the fail policy once the pass is complete.
//
// An Aggregator belongs to one pass and is not safe for concurrent use.
type Aggregator struct {
	records     []Record
	policy      Policy
	format      Formatter
	echo        Reporter
	errs        Reporter
	currentFile string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithPolicy sets the fail policy evaluated by Evaluate.
func WithPolicy(p Policy) Option {
	return func(a *Aggregator) { a.policy = p }
}

// WithFormatter sets the record formatter.
func WithFormatter(f Formatter) Option {
	return func(a *Aggregator) { a.format = f }
}

// WithEcho forwards a formatted copy of every record to r as it is recorded.
func WithEcho(r Reporter) Option {
	return func(a *Aggregator) { a.echo = r }
}

// WithErrorReporter sets where matching records are reported before
// Evaluate returns a failure.
func WithErrorReporter(r Reporter) Option {
	return func(a *Aggregator) { a.errs = r }
}

// NewAggregator returns an empty aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetCurrentFile sets the file attributed to records recorded without a
// cursor.
func (a *Aggregator) SetCurrentFile(path string) {
	a.currentFile = path
}

// Record appends r to the buffer and echoes it when echo is enabled.
func (a *Aggregator) Record(r Record) {
	if r.Cursor == nil && a.currentFile != "" {
		r.Cursor = &Cursor{File: a.currentFile}
	}
	a.records = append(a.records, r)
	if a.echo != nil {
		a.echo.Accept(a.format.Format(r))
	}
}

// Records returns a copy of the buffer in insertion order.
func (a *Aggregator) Records() []Record {
	out := make([]Record, len(a.records))
	copy(out, a.records)
	return out
}

// Len returns the number of buffered records.
func (a *Aggregator) Len() int { return len(a.records) }

// IsEmpty reports whether nothing has been recorded.
func (a *Aggregator) IsEmpty() bool { return len(a.records) == 0 }

// Clear empties the buffer between independent runs.
func (a *Aggregator) Clear() {
	a.records = a.records[:0]
}

// Formatter returns the formatter used for echo and fail reports.
func (a *Aggregator) Formatter() Formatter { return a.format }

// ProcessAll forwards every buffered record to the echo reporter. It is a
// no-op when no echo reporter is configured.
func (a *Aggregator) ProcessAll() {
	if a.echo == nil {
		return
	}
	for _, r := range a.records {
		a.echo.Accept(a.format.Format(r))
	}
}

// Filter returns, in insertion order, the records at or above threshold
// whose message contains text. SeverityNone and blank text disable their
// condition; with both disabled nothing matches.
func (a *Aggregator) Filter(threshold Severity, text string) []Record {
	bySeverity := threshold != SeverityNone
	byText := strings.TrimSpace(text) != ""
	if !bySeverity && !byText {
		return nil
	}
	var out []Record
	for _, r := range a.records {
		if bySeverity && !r.Severity.AtLeast(threshold) {
			continue
		}
		if byText && !strings.Contains(r.Message, text) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Evaluate applies the configured policy. When records match, each is sent
// to the error reporter and a *FailureError is returned.
func (a *Aggregator) Evaluate() error {
	if !a.policy.Enabled() {
		return nil
	}
	matches := a.Filter(a.policy.Severity, a.policy.ContainsText)
	if len(matches) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(matches))
	for _, r := range matches {
		line := a.format.Format(r)
		msgs = append(msgs, line)
		if a.errs != nil {
			a.errs.Accept(line)
		}
	}
	return &FailureError{Count: len(matches), Policy: a.policy, Messages: msgs}
}
