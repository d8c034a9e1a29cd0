package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Policy is the fail-if configuration. Either condition may be set alone;
// when both are set a record must satisfy both. With neither set, a run can
// never fail from diagnostics.
type Policy struct {
	Severity     Severity // SeverityNone disables the severity condition
	ContainsText string   // blank disables the text condition
}

func (p Policy) severitySet() bool { return p.Severity != SeverityNone }

func (p Policy) textSet() bool { return strings.TrimSpace(p.ContainsText) != "" }

// Enabled reports whether at least one condition is configured.
func (p Policy) Enabled() bool {
	return p.severitySet() || p.textSet()
}

// Message formats the fail report for n matching records.
func (p Policy) Message(n int) string {
	switch {
	case p.severitySet() && p.textSet():
		return fmt.Sprintf("Found %d issue(s) matching severity %s or higher and text '%s'", n, p.Severity, p.ContainsText)
	case p.severitySet():
		return fmt.Sprintf("Found %d issue(s) of severity %s or higher during conversion", n, p.Severity)
	default:
		return fmt.Sprintf("Found %d issue(s) containing '%s'", n, p.ContainsText)
	}
}

// String describes the policy for log lines.
func (p Policy) String() string {
	switch {
	case p.severitySet() && p.textSet():
		return fmt.Sprintf("severity>=%s and text %q", p.Severity, p.ContainsText)
	case p.severitySet():
		return fmt.Sprintf("severity>=%s", p.Severity)
	case p.textSet():
		return fmt.Sprintf("text %q", p.ContainsText)
	default:
		return "disabled"
	}
}

// FailureError is the aggregate failure returned by Aggregator.Evaluate.
// Messages holds the formatted records already delivered to the error
// reporter.
type FailureError struct {
	Count    int
	Policy   Policy
	Messages []string
}

func (e *FailureError) Error() string {
	return e.Policy.Message(e.Count)
}

// AsFailure extracts a *FailureError from err's chain.
func AsFailure(err error) (*FailureError, bool) {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
