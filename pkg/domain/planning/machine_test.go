package planning

import (
	"errors"
	"testing"
)

func TestStatusMachine_ReflexiveIsFalse(t *testing.T) {
	m := NewStatusMachine()
	for _, s := range AllInitiativeStatuses() {
		if m.CanTransition(KindInitiative, string(s), string(s)) {
			t.Errorf("initiative %s -> %s should be denied", s, s)
		}
	}
	for _, s := range AllTaskStatuses() {
		if m.CanTransition(KindTask, string(s), string(s)) {
			t.Errorf("task %s -> %s should be denied", s, s)
		}
	}
}

func TestStatusMachine_DenyByDefault(t *testing.T) {
	m := NewStatusMachine()
	if m.CanTransition(KindTask, "todo", "done") {
		t.Error("todo -> done is not in the table and must be denied")
	}
	if m.CanTransition(KindInitiative, "draft", "in_execution") {
		t.Error("draft -> in_execution is not in the table and must be denied")
	}
	if m.CanTransition(KindTask, "nonsense", "todo") {
		t.Error("unknown source status must be denied")
	}
}

func TestStatusMachine_ValidateTransition_BlockContext(t *testing.T) {
	m := NewStatusMachine()

	// Task todo -> blocked with no reason is rejected.
	err := m.ValidateTransition(KindTask, "todo", "blocked", TransitionContext{})
	if err == nil {
		t.Fatal("expected missing context error")
	}
	if !errors.Is(err, ErrMissingContext) {
		t.Errorf("expected ErrMissingContext, got %v", err)
	}
	var mc *MissingContextError
	if !errors.As(err, &mc) || mc.Field != "blocked_reason" {
		t.Errorf("expected blocked_reason field, got %+v", mc)
	}

	// Reason present but no blocker type: still rejected for tasks.
	err = m.ValidateTransition(KindTask, "todo", "blocked", TransitionContext{BlockedReason: "waiting on vendor"})
	if !errors.As(err, &mc) || mc.Field != "blocker_type" {
		t.Errorf("expected blocker_type field, got %v", err)
	}

	// Full context accepted.
	err = m.ValidateTransition(KindTask, "todo", "blocked", TransitionContext{
		BlockedReason: "waiting on vendor",
		BlockerType:   BlockerDependency,
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Initiatives need a reason but no blocker type.
	err = m.ValidateTransition(KindInitiative, "in_execution", "blocked", TransitionContext{
		BlockedReason: "budget freeze",
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStatusMachine_ValidateTransition_Invalid(t *testing.T) {
	m := NewStatusMachine()
	err := m.ValidateTransition(KindTask, "done", "todo", TransitionContext{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	var it *InvalidTransitionError
	if !errors.As(err, &it) || it.From != "done" || it.To != "todo" {
		t.Errorf("expected structured transition error, got %v", err)
	}
}

func TestStatusMachine_WithTable(t *testing.T) {
	m := NewStatusMachine()
	_, err := m.WithTable(KindTask, TransitionTable{
		"todo": {"in_progress"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.CanTransition(KindTask, "todo", "in_progress") {
		t.Error("override should allow todo -> in_progress")
	}
	if m.CanTransition(KindTask, "todo", "blocked") {
		t.Error("override should drop todo -> blocked")
	}
}

func TestStatusMachine_WithTable_RejectsUnknownStatus(t *testing.T) {
	m := NewStatusMachine()
	if _, err := m.WithTable(KindTask, TransitionTable{"todo": {"archived"}}); err == nil {
		t.Error("expected error for unknown target status")
	}
}

func TestStatusMachine_WithTable_RejectsTerminalExit(t *testing.T) {
	m := NewStatusMachine()
	if _, err := m.WithTable(KindTask, TransitionTable{"done": {"todo"}}); err == nil {
		t.Error("expected error: terminal statuses cannot gain outgoing transitions")
	}
}
