// Package memory implements the in-memory history store. The SQL backends
// embed it and hydrate it from their tables on open.
package memory

import (
	"sort"
	"sync"

	"wellobs/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.HistoryStore = (*Store)(nil)

type slot struct {
	step     int
	well     string
	variable string
}

// Store keeps history records keyed by report step, well and variable.
type Store struct {
	mu      sync.RWMutex
	records map[slot]domain.HistoryRecord
}

// NewStore returns an empty history store.
func NewStore() *Store {
	return &Store{records: make(map[slot]domain.HistoryRecord)}
}

// Put inserts or replaces records.
func (s *Store) Put(records ...domain.HistoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[slot{step: r.ReportStep, well: r.Well, variable: r.Variable}] = r
	}
}

// Lookup returns the recorded value. Slots never recorded are reported as
// default values.
func (s *Store) Lookup(reportStep int, well, variable string) (float64, bool) {
	s.mu.RLock()
	r, ok := s.records[slot{step: reportStep, well: well, variable: variable}]
	s.mu.RUnlock()
	if !ok {
		return 0, true
	}
	return r.Value, r.IsDefault
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns all records ordered by report step, well and variable.
func (s *Store) Records() []domain.HistoryRecord {
	s.mu.RLock()
	out := make([]domain.HistoryRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ReportStep != b.ReportStep {
			return a.ReportStep < b.ReportStep
		}
		if a.Well != b.Well {
			return a.Well < b.Well
		}
		return a.Variable < b.Variable
	})
	return out
}

// ReportSteps returns the distinct report steps present, ascending.
func (s *Store) ReportSteps() []int {
	s.mu.RLock()
	seen := make(map[int]struct{})
	for k := range s.records {
		seen[k.step] = struct{}{}
	}
	s.mu.RUnlock()
	out := make([]int, 0, len(seen))
	for step := range seen {
		out = append(out, step)
	}
	sort.Ints(out)
	return out
}
