package planning

import "testing"

func TestInitiativeStatus_IsValid(t *testing.T) {
	for _, s := range AllInitiativeStatuses() {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if InitiativeStatus("archived").IsValid() {
		t.Error("'archived' should not be valid")
	}
}

func TestInitiativeStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  InitiativeStatus
		to    InitiativeStatus
		canDo bool
	}{
		{InitiativeDraft, InitiativePlanned, true},
		{InitiativeDraft, InitiativeCancelled, true},
		{InitiativeDraft, InitiativeApproved, false},
		{InitiativeDraft, InitiativeInExecution, false},

		{InitiativePlanned, InitiativeApproved, true},
		{InitiativePlanned, InitiativeDraft, true},
		{InitiativePlanned, InitiativeCancelled, true},
		{InitiativePlanned, InitiativeInExecution, false},

		{InitiativeApproved, InitiativeInExecution, true},
		{InitiativeApproved, InitiativeCancelled, true},
		{InitiativeApproved, InitiativeCompleted, false},

		{InitiativeInExecution, InitiativeBlocked, true},
		{InitiativeInExecution, InitiativeCompleted, true},
		{InitiativeInExecution, InitiativeCancelled, true},
		{InitiativeInExecution, InitiativeDraft, false},

		{InitiativeBlocked, InitiativeInExecution, true},
		{InitiativeBlocked, InitiativeCancelled, true},
		{InitiativeBlocked, InitiativeCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.canDo {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.canDo)
			}
		})
	}
}

func TestInitiativeStatus_TerminalHasNoExits(t *testing.T) {
	for _, terminal := range []InitiativeStatus{InitiativeCompleted, InitiativeCancelled} {
		if !terminal.IsTerminal() {
			t.Errorf("%s should be terminal", terminal)
		}
		for _, target := range AllInitiativeStatuses() {
			if terminal.CanTransitionTo(target) {
				t.Errorf("%s should not transition to %s", terminal, target)
			}
		}
	}
}

func TestInitiativeStatus_TransitionWith(t *testing.T) {
	got, err := InitiativeBlocked.TransitionWith("unblock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != InitiativeInExecution {
		t.Errorf("expected in_execution, got %s", got)
	}

	if _, err := InitiativeCompleted.TransitionWith("cancel"); err == nil {
		t.Error("expected error for any event from completed")
	}
}

func TestParseInitiativeStatus(t *testing.T) {
	if _, err := ParseInitiativeStatus("in_execution"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseInitiativeStatus("running"); err == nil {
		t.Error("expected error for unknown status")
	}
}
