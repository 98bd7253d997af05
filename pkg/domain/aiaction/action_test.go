package aiaction

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/harborview/governor/pkg/domain/aipolicy"
)

func newPending(t *testing.T) *Action {
	t.Helper()
	payload := json.RawMessage(`{"task_id":"t1","progress":60}`)
	a, err := NewAction("act-1", "proj-1", "update_task_progress", "agent-1", payload)
	if err != nil {
		t.Fatalf("NewAction: %v", err)
	}
	return a
}

func TestNewAction_ResolvesRequiredLevel(t *testing.T) {
	a := newPending(t)
	if a.Status != StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
	if a.RequiredPolicyLevel != aipolicy.LevelAssisted {
		t.Errorf("expected assisted, got %s", a.RequiredPolicyLevel)
	}
}

func TestNewAction_UnknownType(t *testing.T) {
	if _, err := NewAction("act-1", "proj-1", "drop_database", "agent-1", nil); err == nil {
		t.Error("expected error for unknown action type")
	}
}

func TestAction_ApproveThenExecute(t *testing.T) {
	a := newPending(t)
	if err := a.Approve("alex"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := a.MarkExecuted(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if a.Status != StatusExecuted {
		t.Errorf("expected executed, got %s", a.Status)
	}
}

func TestAction_ExecuteRequiresApproval(t *testing.T) {
	a := newPending(t)
	if err := a.MarkExecuted(); err == nil {
		t.Error("pending action must not execute without approval")
	}
}

func TestAction_DecisionsOnlyWhilePending(t *testing.T) {
	a := newPending(t)
	if err := a.Reject("alex", "too risky"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := a.Approve("alex"); !errors.Is(err, ErrActionNotPending) {
		t.Errorf("expected ErrActionNotPending, got %v", err)
	}
	if err := a.Reject("alex", "again"); !errors.Is(err, ErrActionNotPending) {
		t.Errorf("expected ErrActionNotPending, got %v", err)
	}
}

func TestStatus_TransitionTable(t *testing.T) {
	tests := []struct {
		from  Status
		to    Status
		canDo bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusExecuted, false},
		{StatusApproved, StatusExecuted, true},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusExecuted, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.canDo {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.canDo)
			}
		})
	}
}

func TestStatus_PendingIsOnlyNonTerminal(t *testing.T) {
	for _, s := range AllStatuses() {
		if s.IsPending() {
			if s.IsTerminal() {
				t.Errorf("%s cannot be both pending and terminal", s)
			}
			continue
		}
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
