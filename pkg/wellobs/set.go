// Package wellobs turns a well's observation spec into per-report-step
// observation rows and the matching simulated measurements.
//
// A Set is driven as a pair per report step: GetObservations decides which
// variables carry a real historical value and returns a Step; Measure takes
// that Step and emits simulated values for exactly the same indices in the
// same order. A Set must not be used from more than one goroutine at a time.
package wellobs

import (
	"fmt"

	"github.com/google/uuid"

	"wellobs/pkg/domain"
)

// Set holds the observed variables of one well. The registry and history
// handles are borrowed and never released by the Set.
type Set struct {
	id        uuid.UUID
	well      string
	registry  domain.VarRegistry
	history   domain.HistoryStore
	specs     []Spec
	keys      []string
	baseline  []bool
	current   []bool
	deriveStd bool

	collisions []KeyCollision

	generation uint64
	closed     bool
}

// Step identifies the active index set produced by one GetObservations call.
type Step struct {
	setID      uuid.UUID
	generation uint64
	reportStep int
	active     []int
}

// ReportStep returns the report step the observations were taken at.
func (st Step) ReportStep() int { return st.reportStep }

// Len returns the number of observation rows emitted for this step.
func (st Step) Len() int { return len(st.active) }

// Active returns the emitted spec indices in ascending order.
func (st Step) Active() []int {
	out := make([]int, len(st.active))
	copy(out, st.active)
	return out
}

// KeyCollision lists spec indices that share one truncated observation key.
// The rows stay distinct in the set; only their keys coincide.
type KeyCollision struct {
	Key     string
	Indices []int
}

func newSet(reg domain.VarRegistry, hist domain.HistoryStore, specs []Spec, opts []Option) *Set {
	well := reg.WellName()
	s := &Set{
		id:       uuid.New(),
		well:     well,
		registry: reg,
		history:  hist,
		specs:    specs,
		keys:     make([]string, len(specs)),
		baseline: make([]bool, len(specs)),
		current:  make([]bool, len(specs)),
	}
	first := make(map[string]int, len(specs))
	shared := make(map[string]int)
	for i, spec := range specs {
		key := ObsKey(well, spec.Variable)
		s.keys[i] = key
		s.baseline[i] = spec.Active
		j, seen := first[key]
		if !seen {
			first[key] = i
			continue
		}
		if p, ok := shared[key]; ok {
			s.collisions[p].Indices = append(s.collisions[p].Indices, i)
			continue
		}
		shared[key] = len(s.collisions)
		s.collisions = append(s.collisions, KeyCollision{Key: key, Indices: []int{j, i}})
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collisions reports observation keys shared by more than one spec row,
// in the order they were detected.
func (s *Set) Collisions() []KeyCollision {
	out := make([]KeyCollision, len(s.collisions))
	for i, c := range s.collisions {
		out[i] = KeyCollision{Key: c.Key, Indices: append([]int(nil), c.Indices...)}
	}
	return out
}

// Well returns the well name taken from the registry.
func (s *Set) Well() string { return s.well }

// Len returns the number of observed variables.
func (s *Set) Len() int { return len(s.specs) }

// Spec returns the i'th observed variable.
func (s *Set) Spec(i int) Spec { return s.specs[i] }

// Specs returns a copy of all observed variables in order.
func (s *Set) Specs() []Spec {
	out := make([]Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Keys returns the observation keys in spec order.
func (s *Set) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Baseline returns the configured active flags.
func (s *Set) Baseline() []bool { return cloneMask(s.baseline) }

// CurrentActive returns the mask computed by the last GetObservations call.
func (s *Set) CurrentActive() []bool { return cloneMask(s.current) }

// GetObservations recomputes the active mask for reportStep and appends one
// row per variable with a real historical value to sink. Variables whose
// history slot is a default value are deactivated for this step only.
func (s *Set) GetObservations(reportStep int, sink domain.ObsSink) Step {
	s.generation++
	step := Step{setID: s.id, generation: s.generation, reportStep: reportStep}
	if s.closed {
		return step
	}
	copy(s.current, s.baseline)
	for i, spec := range s.specs {
		if !s.current[i] {
			continue
		}
		value, isDefault := s.history.Lookup(reportStep, s.well, spec.Variable)
		if isDefault {
			s.current[i] = false
			continue
		}
		std := AssumedStd
		if s.deriveStd {
			std = spec.Std(value)
		}
		sink.Add(value, std, s.keys[i])
		step.active = append(step.active, i)
	}
	return step
}

// Measure appends the simulated value of every variable active in step to
// sink, in the same order GetObservations emitted them. It fails without
// appending anything if step is not the latest one issued by this Set, or if
// state reports a different report step.
func (s *Set) Measure(step Step, state domain.WellState, sink domain.MeasSink) error {
	if s.closed {
		return ErrClosed
	}
	if step.setID != s.id || step.generation != s.generation {
		return fmt.Errorf("%w: well %s", ErrStaleStep, s.well)
	}
	if sr, ok := state.(domain.StepReporter); ok && sr.ReportStep() != step.reportStep {
		return fmt.Errorf("%w: well %s: observations at %d, state at %d", ErrStepMismatch, s.well, step.reportStep, sr.ReportStep())
	}
	for _, i := range step.active {
		sink.Add(state.Get(s.specs[i].Variable))
	}
	return nil
}

// MeasureCurrent emits simulated values using the mask left by the last
// GetObservations call. The caller must pass a state for that same report
// step; prefer Measure, which checks this.
func (s *Set) MeasureCurrent(state domain.WellState, sink domain.MeasSink) {
	for i, active := range s.current {
		if active {
			sink.Add(state.Get(s.specs[i].Variable))
		}
	}
}

// Close releases the observed variables. The registry and history handles are
// left untouched. Closing twice returns ErrClosed.
func (s *Set) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.specs = nil
	s.keys = nil
	s.collisions = nil
	s.baseline = nil
	s.current = nil
	s.registry = nil
	s.history = nil
	return nil
}

func cloneMask(in []bool) []bool {
	out := make([]bool, len(in))
	copy(out, in)
	return out
}
