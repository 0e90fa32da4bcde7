package wellobs

type fakeRegistry struct {
	well string
	vars map[string]bool
}

func newRegistry(well string, vars ...string) *fakeRegistry {
	r := &fakeRegistry{well: well, vars: make(map[string]bool, len(vars))}
	for _, v := range vars {
		r.vars[v] = true
	}
	return r
}

func (r *fakeRegistry) HasVar(name string) bool { return r.vars[name] }
func (r *fakeRegistry) WellName() string        { return r.well }

type histEntry struct {
	value     float64
	isDefault bool
}

type fakeHistory struct {
	entries map[int]map[string]histEntry
	lookups int
}

func newHistory() *fakeHistory {
	return &fakeHistory{entries: make(map[int]map[string]histEntry)}
}

func (h *fakeHistory) set(step int, variable string, value float64, isDefault bool) {
	if h.entries[step] == nil {
		h.entries[step] = make(map[string]histEntry)
	}
	h.entries[step][variable] = histEntry{value: value, isDefault: isDefault}
}

func (h *fakeHistory) Lookup(step int, _ string, variable string) (float64, bool) {
	h.lookups++
	e, ok := h.entries[step][variable]
	if !ok {
		return 0, true
	}
	return e.value, e.isDefault
}

type obsRow struct {
	value float64
	std   float64
	key   string
}

type obsSink struct{ rows []obsRow }

func (s *obsSink) Add(value, std float64, key string) {
	s.rows = append(s.rows, obsRow{value: value, std: std, key: key})
}

type measSink struct{ values []float64 }

func (s *measSink) Add(value float64) { s.values = append(s.values, value) }

type mapState map[string]float64

func (m mapState) Get(variable string) float64 { return m[variable] }

type steppedState struct {
	mapState
	step int
}

func (s steppedState) ReportStep() int { return s.step }
