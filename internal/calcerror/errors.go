// Package calcerror defines the typed errors raised by the forecasting and
// debt analysis engines. Callers can distinguish failure classes with
// errors.As instead of matching message strings.
package calcerror

import (
	"fmt"
	"strings"
)

// ValidationError represents a structural validation failure. It carries every
// issue found so callers can report them all at once instead of fixing one
// field per attempt.
type ValidationError struct {
	Subject string
	Issues  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s",
		e.Subject, strings.Join(e.Issues, "; "))
}

// ConvergenceError represents an iterative solver exhausting its iteration
// budget. LastEstimate is the final iterate, reported for diagnostics only --
// it must never be used as the answer.
type ConvergenceError struct {
	Solver       string
	Iterations   int
	LastEstimate float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: did not converge after %d iterations (last estimate %.8f)",
		e.Solver, e.Iterations, e.LastEstimate)
}

// UnknownModelError represents an unrecognized model or scenario variant tag.
// An unknown tag is a hard error; it must never be treated as a zero-value
// contribution.
type UnknownModelError struct {
	Kind string
	Tag  string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown %s type: '%s'", e.Kind, e.Tag)
}

// ScheduleError represents a failure to build an amortization or debt service
// schedule from an instrument.
type ScheduleError struct {
	Instrument string
	Reason     string
	Err        error
}

func (e *ScheduleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot build schedule for %s: %s: %v", e.Instrument, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot build schedule for %s: %s", e.Instrument, e.Reason)
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}

// RowError represents a failure to parse one row of an input file. Row is
// 1-based and counts data rows, not the header.
type RowError struct {
	File  string
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: failed to parse %s='%s': %v",
		e.File, e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// FormulaError represents a malformed or unevaluable custom formula
// expression.
type FormulaError struct {
	Expression string
	Position   int
	Reason     string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("invalid formula '%s' at position %d: %s",
		e.Expression, e.Position, e.Reason)
}
