package gate

import (
	"errors"
	"testing"
)

func twoCriteria(metA, metB bool) []Criterion {
	return []Criterion{
		{ID: "c1", Description: "Budget signed off", IsMet: metA},
		{ID: "c2", Description: "Risk register reviewed", IsMet: metB},
	}
}

func TestStageGate_Evaluate_NotReady(t *testing.T) {
	g := NewStageGate("g1", "proj-1", "planning", "execution", twoCriteria(true, false), false)
	if got := g.Evaluate(nil); got != StatusNotReady {
		t.Errorf("expected not_ready, got %s", got)
	}
	if unmet := g.UnmetCriteria(); len(unmet) != 1 || unmet[0].ID != "c2" {
		t.Errorf("expected c2 outstanding, got %v", unmet)
	}
}

func TestStageGate_Evaluate_PassesWithoutApproval(t *testing.T) {
	g := NewStageGate("g1", "proj-1", "planning", "execution", twoCriteria(true, true), false)
	if got := g.Evaluate(nil); got != StatusPassed {
		t.Errorf("expected passed, got %s", got)
	}
	if g.PassedAt.IsZero() {
		t.Error("expected PassedAt to be set")
	}
}

func TestStageGate_Evaluate_ReadyAwaitingSignOff(t *testing.T) {
	g := NewStageGate("g1", "proj-1", "planning", "execution", twoCriteria(true, true), true)
	if got := g.Evaluate(nil); got != StatusReady {
		t.Errorf("expected ready with no decision, got %s", got)
	}
	d := NewDecision("d1", "g1")
	if got := g.Evaluate(d); got != StatusReady {
		t.Errorf("expected ready with pending decision, got %s", got)
	}
}

func TestStageGate_Evaluate_PassesWithApprovedDecision(t *testing.T) {
	g := NewStageGate("g1", "proj-1", "planning", "execution", twoCriteria(true, true), true)
	d := NewDecision("d1", "g1")
	if err := d.Approve("alex"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := g.Evaluate(d); got != StatusPassed {
		t.Errorf("expected passed, got %s", got)
	}
	if g.DecisionID != "d1" {
		t.Errorf("expected decision recorded on gate, got %q", g.DecisionID)
	}
}

func TestStageGate_Evaluate_FailsOnRejectedDecision(t *testing.T) {
	g := NewStageGate("g1", "proj-1", "planning", "execution", twoCriteria(true, true), true)
	d := NewDecision("d1", "g1")
	if err := d.Reject("alex", "scope unclear"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := g.Evaluate(d); got != StatusFailed {
		t.Errorf("expected failed, got %s", got)
	}
}

func TestStageGate_PassedIsTerminal(t *testing.T) {
	g := NewStageGate("g1", "proj-1", "planning", "execution", twoCriteria(true, true), false)
	g.Evaluate(nil)

	// Unsetting a criterion after passing must not demote the gate.
	if err := g.MarkCriterion("c1", false, ""); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if got := g.Evaluate(nil); got != StatusPassed {
		t.Errorf("passed is terminal, got %s", got)
	}
}

func TestDecision_TerminalTransitions(t *testing.T) {
	d := NewDecision("d1", "g1")
	if err := d.Approve("alex"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := d.Reject("alex", "changed my mind"); err == nil {
		t.Error("expected error: approved decision cannot be rejected")
	}
}

func TestProject_AdvancePhase(t *testing.T) {
	p := &Project{ID: "proj-1", CurrentPhase: "planning"}
	g := NewStageGate("g1", "proj-1", "planning", "execution", twoCriteria(true, true), false)

	if err := p.AdvancePhase(g); !errors.Is(err, ErrGateNotPassed) {
		t.Errorf("expected ErrGateNotPassed, got %v", err)
	}

	g.Evaluate(nil)
	if err := p.AdvancePhase(g); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if p.CurrentPhase != "execution" {
		t.Errorf("expected execution, got %s", p.CurrentPhase)
	}
}

func TestProject_AdvancePhase_PhaseMismatch(t *testing.T) {
	p := &Project{ID: "proj-1", CurrentPhase: "initiation"}
	g := NewStageGate("g1", "proj-1", "planning", "execution", twoCriteria(true, true), false)
	g.Evaluate(nil)
	if err := p.AdvancePhase(g); !errors.Is(err, ErrPhaseMismatch) {
		t.Errorf("expected ErrPhaseMismatch, got %v", err)
	}
}

func TestProject_RollbackPhase(t *testing.T) {
	g := NewStageGate("g1", "proj-1", "planning", "execution", twoCriteria(true, true), false)
	g.Evaluate(nil)

	p := &Project{ID: "proj-1", CurrentPhase: "execution"}
	if err := p.RollbackPhase(g); !errors.Is(err, ErrRollbackNotAllowed) {
		t.Errorf("expected ErrRollbackNotAllowed, got %v", err)
	}

	p.Governance.AllowPhaseRollback = true
	if err := p.RollbackPhase(g); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if p.CurrentPhase != "planning" {
		t.Errorf("expected planning, got %s", p.CurrentPhase)
	}
	if g.Status != StatusReady {
		t.Errorf("prior gate should be reopened to ready, got %s", g.Status)
	}
}
