package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a processing failure so the orchestration layer can
// decide whether to skip a unit of work or abort the run.
type Kind string

const (
	// KindConfig marks bad configuration values. Fatal to the run.
	KindConfig Kind = "config"
	// KindDataLoad marks a missing file, missing required column, or an
	// unparsable table. Skips the affected location.
	KindDataLoad Kind = "data_load"
	// KindValidation marks a structural contract violation inside a unit
	// of work, such as a year outside the location's declared range.
	KindValidation Kind = "validation"
)

// ProcessingError is a classified error carrying enough context
// (location, year, sensor, file) to reproduce the failure from logs.
type ProcessingError struct {
	Kind     Kind
	Message  string
	Location string
	Year     int
	Sensor   string
	File     string
	Err      error
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Location != "" {
		msg += fmt.Sprintf(" (location %s", e.Location)
		if e.Year != 0 {
			msg += fmt.Sprintf(", year %d", e.Year)
		}
		if e.Sensor != "" {
			msg += fmt.Sprintf(", sensor %s", e.Sensor)
		}
		msg += ")"
	}
	if e.File != "" {
		msg += fmt.Sprintf(" [%s]", e.File)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *ProcessingError) Unwrap() error { return e.Err }

// New creates a ProcessingError with the given kind and message.
func New(kind Kind, message string) *ProcessingError {
	return &ProcessingError{Kind: kind, Message: message}
}

// Wrap creates a ProcessingError wrapping an underlying cause.
func Wrap(kind Kind, message string, err error) *ProcessingError {
	return &ProcessingError{Kind: kind, Message: message, Err: err}
}

// WithLocation returns a copy annotated with the location identifier.
func (e *ProcessingError) WithLocation(location string) *ProcessingError {
	clone := *e
	clone.Location = location
	return &clone
}

// WithUnit returns a copy annotated with the full unit-of-work identity.
func (e *ProcessingError) WithUnit(location string, year int, sensor string) *ProcessingError {
	clone := *e
	clone.Location = location
	clone.Year = year
	clone.Sensor = sensor
	return &clone
}

// WithFile returns a copy annotated with the offending file path.
func (e *ProcessingError) WithFile(file string) *ProcessingError {
	clone := *e
	clone.File = file
	return &clone
}

// IsKind reports whether err is a ProcessingError of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or an empty Kind for foreign errors.
func KindOf(err error) Kind {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
