package planning

import "testing"

func TestTaskStateMachine_HappyPath(t *testing.T) {
	sm, err := NewTaskStateMachine(StateTodo, "t1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sm.Transition("start"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if sm.Current() != StateInProgress {
		t.Errorf("expected in_progress, got %s", sm.Current())
	}

	if err := sm.Transition("complete"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !sm.IsTerminal() {
		t.Error("done should be terminal")
	}
	if err := sm.Transition("start"); err == nil {
		t.Error("expected error: no events leave done")
	}
}

func TestTaskStateMachine_GuardBlocksStart(t *testing.T) {
	denied := func(taskID, event string) bool { return false }
	sm, err := NewTaskStateMachine(StateTodo, "t1", denied)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sm.Transition("start"); err == nil {
		t.Error("guard should deny start")
	}
	if sm.Current() != StateTodo {
		t.Errorf("state should be unchanged, got %s", sm.Current())
	}
	// Block is not guarded.
	if err := sm.Transition("block"); err != nil {
		t.Errorf("block should pass: %v", err)
	}
}

func TestTaskStateMachine_BlockAndResume(t *testing.T) {
	sm, err := NewTaskStateMachine(StateInProgress, "t1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sm.Transition("block"); err != nil {
		t.Fatalf("block: %v", err)
	}
	if err := sm.Transition("resume"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if sm.CurrentStatus() != TaskInProgress {
		t.Errorf("expected in_progress, got %s", sm.Current())
	}
}
