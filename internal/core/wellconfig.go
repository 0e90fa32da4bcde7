package core

import (
	"encoding/json"
	"fmt"
	"io"

	"wellobs/pkg/domain"
)

var (
	_ domain.VarRegistry  = (*WellConfig)(nil)
	_ domain.WellState    = wellState{}
	_ domain.StepReporter = wellState{}
)

// WellConfig is the variable registry of one well: the variables the
// ensemble state vector carries for it.
type WellConfig struct {
	name string
	vars []string
	set  map[string]struct{}
}

// NewWellConfig registers vars for well. Duplicates are ignored.
func NewWellConfig(well string, vars []string) *WellConfig {
	wc := &WellConfig{name: well, set: make(map[string]struct{}, len(vars))}
	for _, v := range vars {
		if _, ok := wc.set[v]; ok {
			continue
		}
		wc.set[v] = struct{}{}
		wc.vars = append(wc.vars, v)
	}
	return wc
}

// HasVar reports whether name is registered.
func (w *WellConfig) HasVar(name string) bool {
	_, ok := w.set[name]
	return ok
}

// WellName returns the well name.
func (w *WellConfig) WellName() string { return w.name }

// Vars returns the registered variables in registration order.
func (w *WellConfig) Vars() []string { return append([]string(nil), w.vars...) }

// MemberState is one ensemble member's simulated well values at a report step.
type MemberState struct {
	ReportStep int                           `json:"report_step"`
	Wells      map[string]map[string]float64 `json:"wells"`
}

// NewMemberState returns an empty member state for reportStep.
func NewMemberState(reportStep int) *MemberState {
	return &MemberState{ReportStep: reportStep, Wells: make(map[string]map[string]float64)}
}

// Set records a simulated value.
func (m *MemberState) Set(well, variable string, value float64) {
	if m.Wells == nil {
		m.Wells = make(map[string]map[string]float64)
	}
	if m.Wells[well] == nil {
		m.Wells[well] = make(map[string]float64)
	}
	m.Wells[well][variable] = value
}

// Well returns the state of one well, tagged with the member's report step.
func (m *MemberState) Well(name string) (domain.WellState, bool) {
	values, ok := m.Wells[name]
	if !ok {
		return nil, false
	}
	return wellState{step: m.ReportStep, values: values}, true
}

// Has reports whether a simulated value is recorded for variable of well.
func (m *MemberState) Has(well, variable string) bool {
	_, ok := m.Wells[well][variable]
	return ok
}

// DecodeMemberState reads a JSON member state document.
func DecodeMemberState(r io.Reader) (*MemberState, error) {
	var m MemberState
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode member state: %w", err)
	}
	if m.Wells == nil {
		m.Wells = make(map[string]map[string]float64)
	}
	return &m, nil
}

type wellState struct {
	step   int
	values map[string]float64
}

func (w wellState) Get(variable string) float64 { return w.values[variable] }
func (w wellState) ReportStep() int             { return w.step }
