package memory

import (
	"testing"

	"wellobs/pkg/domain"
)

func TestLookupMissingSlotIsDefault(t *testing.T) {
	s := NewStore()
	if v, isDefault := s.Lookup(1, "OP_1", "WOPR"); !isDefault || v != 0 {
		t.Fatalf("expected default for missing slot, got %v %v", v, isDefault)
	}
}

func TestPutReplacesAndOrdersRecords(t *testing.T) {
	s := NewStore()
	s.Put(
		domain.HistoryRecord{ReportStep: 2, Well: "OP_1", Variable: "WOPR", Value: 5},
		domain.HistoryRecord{ReportStep: 1, Well: "OP_2", Variable: "WWCT", Value: 0.1},
		domain.HistoryRecord{ReportStep: 1, Well: "OP_1", Variable: "WOPR", Value: 4},
		domain.HistoryRecord{ReportStep: 1, Well: "OP_1", Variable: "WBHP", IsDefault: true},
	)
	s.Put(domain.HistoryRecord{ReportStep: 2, Well: "OP_1", Variable: "WOPR", Value: 6})

	if s.Len() != 4 {
		t.Fatalf("expected 4 records, got %d", s.Len())
	}
	if v, isDefault := s.Lookup(2, "OP_1", "WOPR"); isDefault || v != 6 {
		t.Fatalf("expected replaced value 6, got %v %v", v, isDefault)
	}
	if _, isDefault := s.Lookup(1, "OP_1", "WBHP"); !isDefault {
		t.Fatalf("expected explicit default record to report default")
	}
	recs := s.Records()
	if recs[0].Variable != "WBHP" || recs[1].Variable != "WOPR" || recs[2].Well != "OP_2" || recs[3].ReportStep != 2 {
		t.Fatalf("unexpected order %+v", recs)
	}
	steps := s.ReportSteps()
	if len(steps) != 2 || steps[0] != 1 || steps[1] != 2 {
		t.Fatalf("unexpected steps %v", steps)
	}
}
