package wellobs

import (
	"math"
	"unicode/utf8"

	"wellobs/pkg/domain"
)

const (
	// KeyWidth bounds the length of an observation key.
	KeyWidth = 16
	// AssumedStd is the standard deviation attached to observations unless
	// WithDerivedStd is set.
	AssumedStd = 1.0
)

// Spec is one observed variable of a well.
type Spec struct {
	Variable  string
	Active    bool
	ErrorMode domain.ErrorMode
	AbsStd    float64
	RelStd    float64
}

// Std derives the observation standard deviation for value from the spec's
// error model.
func (s Spec) Std(value float64) float64 {
	switch s.ErrorMode {
	case domain.ErrorModeRel:
		return s.RelStd * math.Abs(value)
	case domain.ErrorModeRelMinAbs:
		return math.Max(s.RelStd*math.Abs(value), s.AbsStd)
	default:
		return s.AbsStd
	}
}

// ObsKey builds the observation key "well/variable" within KeyWidth bytes.
// The well name takes priority; the variable gets what is left. Names are
// cut on UTF-8 character boundaries.
func ObsKey(well, variable string) string {
	well = truncate(well, KeyWidth-1)
	return well + "/" + truncate(variable, KeyWidth-1-len(well))
}

// truncate shortens s to at most n bytes without splitting a character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
