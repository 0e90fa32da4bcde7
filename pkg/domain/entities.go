// Package domain defines the record types and collaborator contracts shared by
// the well observation layer and its storage backends. It has no dependencies
// on internal packages.
package domain

import "fmt"

// ErrorMode selects the uncertainty model attached to an observed well variable.
type ErrorMode int

// Known error modes. The numeric values are the codes used in well observation
// spec files.
const (
	// ErrorModeAbs uses the absolute standard deviation as-is.
	ErrorModeAbs ErrorMode = 0
	// ErrorModeRel scales the relative standard deviation by the observed value.
	ErrorModeRel ErrorMode = 1
	// ErrorModeRelMinAbs uses the relative deviation with the absolute one as a floor.
	ErrorModeRelMinAbs ErrorMode = 2
)

// ErrUnknownErrorMode is returned by ParseErrorMode for codes outside the known set.
type ErrUnknownErrorMode struct {
	Code int
}

func (e ErrUnknownErrorMode) Error() string {
	return fmt.Sprintf("unknown error mode %d", e.Code)
}

// ParseErrorMode validates a numeric error mode code.
func ParseErrorMode(code int) (ErrorMode, error) {
	switch ErrorMode(code) {
	case ErrorModeAbs, ErrorModeRel, ErrorModeRelMinAbs:
		return ErrorMode(code), nil
	default:
		return 0, ErrUnknownErrorMode{Code: code}
	}
}

func (m ErrorMode) String() string {
	switch m {
	case ErrorModeAbs:
		return "abs"
	case ErrorModeRel:
		return "rel"
	case ErrorModeRelMinAbs:
		return "rel_min_abs"
	default:
		return fmt.Sprintf("ErrorMode(%d)", int(m))
	}
}

// HistoryRecord is one historical well value at a report step. IsDefault marks
// slots where the history carries no real observation.
type HistoryRecord struct {
	ReportStep int     `json:"report_step"`
	Well       string  `json:"well"`
	Variable   string  `json:"variable"`
	Value      float64 `json:"value"`
	IsDefault  bool    `json:"is_default"`
}
