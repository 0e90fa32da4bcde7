package core

import (
	"strings"
	"testing"

	"wellobs/pkg/domain"
)

func TestWellConfigRegistry(t *testing.T) {
	wc := NewWellConfig("OP_1", []string{"WOPR", "WWCT", "WOPR"})
	if wc.WellName() != "OP_1" {
		t.Fatalf("unexpected name %q", wc.WellName())
	}
	if !wc.HasVar("WWCT") || wc.HasVar("WGOR") {
		t.Fatalf("unexpected registry membership")
	}
	if got := wc.Vars(); len(got) != 2 || got[0] != "WOPR" || got[1] != "WWCT" {
		t.Fatalf("expected deduplicated vars in order, got %v", got)
	}
}

func TestMemberStateWell(t *testing.T) {
	m := NewMemberState(4)
	m.Set("OP_1", "WOPR", 118.3)
	if !m.Has("OP_1", "WOPR") || m.Has("OP_1", "WWCT") || m.Has("OP_2", "WOPR") {
		t.Fatalf("unexpected Has results")
	}

	state, ok := m.Well("OP_1")
	if !ok {
		t.Fatalf("expected OP_1 state")
	}
	if state.Get("WOPR") != 118.3 {
		t.Fatalf("unexpected WOPR %v", state.Get("WOPR"))
	}
	sr, ok := state.(domain.StepReporter)
	if !ok || sr.ReportStep() != 4 {
		t.Fatalf("expected well state to report step 4")
	}
	if _, ok := m.Well("OP_2"); ok {
		t.Fatalf("expected OP_2 to be absent")
	}

	var zero MemberState
	zero.Set("OP_3", "WOPR", 1)
	if _, ok := zero.Well("OP_3"); !ok {
		t.Fatalf("Set must initialise the well map")
	}
}

func TestDecodeMemberState(t *testing.T) {
	m, err := DecodeMemberState(strings.NewReader(`{"report_step":3,"wells":{"OP_1":{"WOPR":10.5}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ReportStep != 3 || m.Wells["OP_1"]["WOPR"] != 10.5 {
		t.Fatalf("unexpected member %+v", m)
	}

	empty, err := DecodeMemberState(strings.NewReader(`{"report_step":1}`))
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if empty.Wells == nil {
		t.Fatalf("expected non-nil wells map")
	}

	if _, err := DecodeMemberState(strings.NewReader(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
