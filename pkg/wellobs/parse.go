package wellobs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"wellobs/pkg/domain"
)

// Option customises a Set at construction.
type Option func(*Set)

// WithDerivedStd attaches the spec-derived standard deviation (see Spec.Std)
// to observations instead of AssumedStd.
func WithDerivedStd() Option {
	return func(s *Set) { s.deriveStd = true }
}

// ParseFile builds a Set from a well observation spec file.
func ParseFile(path string, reg domain.VarRegistry, hist domain.HistoryStore, opts ...Option) (*Set, error) {
	f, err := os.Open(path) // #nosec G304 -- spec paths come from operator configuration
	if err != nil {
		return nil, &ConstructionError{Kind: KindSourceUnreadable, Well: reg.WellName(), Text: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return Parse(f, reg, hist, opts...)
}

// Parse builds a Set from spec lines of the form
//
//	<variable> <active:0|1> <error-mode:int> <abs-std:float> <rel-std:float>
//
// Blank lines are skipped. Rows keep their input order.
func Parse(r io.Reader, reg domain.VarRegistry, hist domain.HistoryStore, opts ...Option) (*Set, error) {
	well := reg.WellName()
	var specs []Spec
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		spec, err := parseLine(reg, line)
		if err != nil {
			err.Well = well
			err.Line = lineNo
			return nil, err
		}
		specs = append(specs, spec)
	}
	if err := sc.Err(); err != nil {
		return nil, &ConstructionError{Kind: KindSourceUnreadable, Well: well, Line: lineNo, Err: err}
	}
	return newSet(reg, hist, specs, opts), nil
}

// NewFromVars builds a Set observing vars, all active, with AssumedStd as the
// absolute standard deviation.
func NewFromVars(reg domain.VarRegistry, vars []string, hist domain.HistoryStore, opts ...Option) (*Set, error) {
	specs := make([]Spec, 0, len(vars))
	for _, v := range vars {
		if !reg.HasVar(v) {
			return nil, &ConstructionError{Kind: KindConfigMismatch, Well: reg.WellName(), Variable: v}
		}
		specs = append(specs, Spec{
			Variable:  v,
			Active:    true,
			ErrorMode: domain.ErrorModeAbs,
			AbsStd:    AssumedStd,
		})
	}
	return newSet(reg, hist, specs, opts), nil
}

// parseLine validates one non-blank row. Registry membership is checked
// first so an unregistered variable is always reported as a mismatch.
func parseLine(reg domain.VarRegistry, line string) (Spec, *ConstructionError) {
	fields := strings.Fields(line)
	name := fields[0]
	if !reg.HasVar(name) {
		return Spec{}, &ConstructionError{Kind: KindConfigMismatch, Variable: name, Text: line}
	}
	malformed := func(err error) (Spec, *ConstructionError) {
		return Spec{}, &ConstructionError{Kind: KindMalformedSpecLine, Variable: name, Text: line, Err: err}
	}
	if len(fields) != 5 {
		return malformed(fmt.Errorf("expected 5 fields, got %d", len(fields)))
	}
	if flag := fields[1]; flag != "0" && flag != "1" {
		if _, err := strconv.Atoi(flag); err != nil {
			return malformed(fmt.Errorf("active: %w", err))
		}
		return Spec{}, &ConstructionError{Kind: KindInvalidActiveFlag, Variable: name, Text: flag}
	}
	code, err := strconv.Atoi(fields[2])
	if err != nil {
		return malformed(fmt.Errorf("error mode: %w", err))
	}
	mode, err := domain.ParseErrorMode(code)
	if err != nil {
		return Spec{}, &ConstructionError{Kind: KindInvalidErrorMode, Variable: name, Text: fields[2], Err: err}
	}
	absStd, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return malformed(fmt.Errorf("abs std: %w", err))
	}
	relStd, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return malformed(fmt.Errorf("rel std: %w", err))
	}
	return Spec{
		Variable:  name,
		Active:    fields[1] == "1",
		ErrorMode: mode,
		AbsStd:    absStd,
		RelStd:    relStd,
	}, nil
}
