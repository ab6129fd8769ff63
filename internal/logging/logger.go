// Package logging provides the structured logging abstraction shared by the
// forecast engine, the debt scenario analyzer and the CLI. Engine packages
// accept a Logger so calculation code stays testable; the commands wire in
// the logrus-backed adapter.
package logging

// Logger is the structured logging interface used throughout the
// application. Messages carry context through Field pairs; the keys for
// fiscal entities (fund, scenario, instrument) live in constants.go.
type Logger interface {
	// Debug logs a debug-level message with optional fields
	Debug(msg string, fields ...Field)
	
	// Info logs an info-level message with optional fields
	Info(msg string, fields ...Field)
	
	// Warn logs a warning-level message with optional fields
	Warn(msg string, fields ...Field)
	
	// Error logs an error-level message with optional fields
	Error(msg string, fields ...Field)
	
	// WithError returns a new logger with an error field attached
	WithError(err error) Logger
	
	// WithField returns a new logger with a single field attached
	WithField(key string, value interface{}) Logger
	
	// WithFields returns a new logger with multiple fields attached
	WithFields(fields ...Field) Logger
	
	// Fatal logs a fatal-level message and exits the program
	Fatal(msg string, fields ...Field)
	
	// Fatalf logs a fatal-level message with formatting and exits the program
	Fatalf(msg string, args ...interface{})
}

// Field is a key-value pair attached to a log message, e.g. the fund or
// scenario an operation is running against.
type Field struct {
	Key   string
	Value interface{}
}
