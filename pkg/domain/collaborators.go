package domain

// VarRegistry describes the variables a single well tracks in the ensemble state.
type VarRegistry interface {
	HasVar(name string) bool
	WellName() string
}

// HistoryStore answers historical lookups. Lookup is total: slots without a
// real observation report isDefault=true.
type HistoryStore interface {
	Lookup(reportStep int, well, variable string) (value float64, isDefault bool)
}

// WellState is one ensemble member's simulated state for a single well.
type WellState interface {
	Get(variable string) float64
}

// StepReporter is implemented by states that know which report step they
// were produced for. Measurement uses it to reject mismatched states.
type StepReporter interface {
	ReportStep() int
}

// ObsSink collects real observation rows across wells for one update step.
type ObsSink interface {
	Add(value, std float64, key string)
}

// MeasSink collects simulated values in the same order as the ObsSink rows.
type MeasSink interface {
	Add(value float64)
}
