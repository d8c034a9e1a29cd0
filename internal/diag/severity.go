// Package diag collects conversion diagnostics and decides whether a
// conversion run should be reported as failed.
//
// Severities are totally ordered from least to most severe:
// DEBUG < INFO < WARN < ERROR < FATAL < UNKNOWN.
// Threshold comparisons always use that order ("at or above"), never
// equality.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSeverity is returned when a severity name cannot be parsed.
var ErrInvalidSeverity = errors.New("invalid severity")

// Severity is the level of a diagnostic record.
type Severity int

const (
	// SeverityNone is the zero value. As a threshold it disables the
	// severity condition; records are never created with it.
	SeverityNone Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityFatal
	SeverityUnknown
)

var severityNames = [...]string{
	SeverityNone:    "NONE",
	SeverityDebug:   "DEBUG",
	SeverityInfo:    "INFO",
	SeverityWarn:    "WARN",
	SeverityError:   "ERROR",
	SeverityFatal:   "FATAL",
	SeverityUnknown: "UNKNOWN",
}

// String returns the upper-case severity name used in formatted log lines.
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// AtLeast reports whether s is at or above threshold. Every severity is at
// least SeverityNone.
func (s Severity) AtLeast(threshold Severity) bool {
	return s >= threshold
}

// ParseSeverity parses a severity name case-insensitively. "WARNING" is
// accepted for WARN. An empty name yields SeverityNone.
func ParseSeverity(name string) (Severity, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	switch n {
	case "":
		return SeverityNone, nil
	case "WARNING":
		return SeverityWarn, nil
	}
	for i := SeverityDebug; i <= SeverityUnknown; i++ {
		if severityNames[i] == n {
			return i, nil
		}
	}
	return SeverityNone, fmt.Errorf("%w: %q", ErrInvalidSeverity, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so that configuration
// decoders reject unknown severities while loading.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
