package wellobs

import (
	"errors"
	"fmt"
)

// Kind classifies a construction failure.
type Kind string

// Construction failure kinds.
const (
	// KindConfigMismatch: the observed variable is not registered for the well.
	KindConfigMismatch Kind = "config_mismatch"
	// KindMalformedSpecLine: wrong field count or a field that does not parse.
	KindMalformedSpecLine Kind = "malformed_spec_line"
	// KindInvalidActiveFlag: the active field is an integer other than 0 or 1.
	KindInvalidActiveFlag Kind = "invalid_active_flag"
	// KindInvalidErrorMode: the error mode code is outside the known set.
	KindInvalidErrorMode Kind = "invalid_error_mode"
	// KindSourceUnreadable: the spec source could not be opened or read.
	KindSourceUnreadable Kind = "source_unreadable"
)

var (
	// ErrConstruction matches every *ConstructionError via errors.Is.
	ErrConstruction = errors.New("wellobs: construction failed")
	// ErrStaleStep is returned by Measure when the step token was not produced
	// by the most recent GetObservations call on the same set.
	ErrStaleStep = errors.New("wellobs: stale step token")
	// ErrStepMismatch is returned by Measure when the ensemble state reports a
	// different report step than the token.
	ErrStepMismatch = errors.New("wellobs: state report step does not match observations")
	// ErrClosed is returned for operations on a closed set.
	ErrClosed = errors.New("wellobs: set closed")
)

// ConstructionError describes why a well observation set could not be built.
// Line is 1-based and zero for the list constructor.
type ConstructionError struct {
	Kind     Kind
	Well     string
	Line     int
	Variable string
	Text     string
	Err      error
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("well %s: %s", e.Well, e.Kind)
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	switch e.Kind {
	case KindConfigMismatch:
		msg += fmt.Sprintf(": variable %s is not in the well's state vector", e.Variable)
	case KindMalformedSpecLine:
		msg += fmt.Sprintf(": %q", e.Text)
	case KindInvalidActiveFlag:
		msg += fmt.Sprintf(": active must be 0 or 1, got %q", e.Text)
	default:
		if e.Variable != "" {
			msg += ": " + e.Variable
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *ConstructionError) Unwrap() error { return e.Err }

// Is makes every ConstructionError match ErrConstruction.
func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

// KindOf returns the construction failure kind of err, or "" when err is not
// a construction error.
func KindOf(err error) Kind {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
