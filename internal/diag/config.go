package diag

import "fmt"

// Config is the user-facing log handler configuration.
type Config struct {
	// OutputToConsole echoes records as they are recorded. Defaults to true.
	OutputToConsole *bool   `toml:"output_to_console" json:"output_to_console,omitempty"`
	FailIf          *FailIf `toml:"fail_if" json:"fail_if,omitempty"`
}

// FailIf holds the raw fail-if conditions as written in configuration.
type FailIf struct {
	Severity     string `toml:"severity" json:"severity,omitempty"`
	ContainsText string `toml:"contains_text" json:"contains_text,omitempty"`
}

// Console reports whether records should be echoed.
func (c Config) Console() bool {
	return c.OutputToConsole == nil || *c.OutputToConsole
}

// Policy validates the fail-if section and returns the policy. An unknown
// severity name is an error so that bad configuration fails before any
// conversion starts.
func (c Config) Policy() (Policy, error) {
	if c.FailIf == nil {
		return Policy{}, nil
	}
	sev, err := ParseSeverity(c.FailIf.Severity)
	if err != nil {
		return Policy{}, fmt.Errorf("fail_if.severity: %w", err)
	}
	return Policy{Severity: sev, ContainsText: c.FailIf.ContainsText}, nil
}
