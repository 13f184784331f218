package domain

import "fmt"

// ConfigurationError reports a required column that is missing from the
// input. It is fatal: no cleaned table is produced.
type ConfigurationError struct {
	Column string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Column == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: column %q %s", e.Column, e.Reason)
}

// DiagnosticKind classifies a recoverable condition.
type DiagnosticKind string

const (
	// AssumptionApplied marks a fallback taken during normalization.
	AssumptionApplied DiagnosticKind = "assumption_applied"
	// UnresolvableField marks a requested column absent from the cleaned table.
	UnresolvableField DiagnosticKind = "unresolvable_field"
)

// Diagnostic is a recoverable note recorded while processing continues.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Column  string         `json:"column,omitempty"`
	Count   int            `json:"count,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Column == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Kind, d.Column, d.Message)
}
