package planning

import (
	"encoding/json"
	"testing"
)

func TestTaskStatus_IsValid(t *testing.T) {
	tests := []struct {
		status TaskStatus
		valid  bool
	}{
		{TaskTodo, true},
		{TaskInProgress, true},
		{TaskBlocked, true},
		{TaskDone, true},
		{TaskStatus("invalid"), false},
		{TaskStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestTaskStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  TaskStatus
		to    TaskStatus
		canDo bool
	}{
		// From Todo
		{TaskTodo, TaskInProgress, true},
		{TaskTodo, TaskBlocked, true},
		{TaskTodo, TaskDone, false},

		// From InProgress
		{TaskInProgress, TaskDone, true},
		{TaskInProgress, TaskBlocked, true},
		{TaskInProgress, TaskTodo, true},

		// From Blocked
		{TaskBlocked, TaskTodo, true},
		{TaskBlocked, TaskInProgress, true},
		{TaskBlocked, TaskDone, false},

		// Done is terminal
		{TaskDone, TaskTodo, false},
		{TaskDone, TaskInProgress, false},
		{TaskDone, TaskBlocked, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.canDo {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.canDo)
			}
		})
	}
}

func TestTaskStatus_TerminalHasNoExits(t *testing.T) {
	for _, target := range AllTaskStatuses() {
		if TaskDone.CanTransitionTo(target) {
			t.Errorf("done should not transition to %s", target)
		}
	}
	if events := TaskDone.ValidEvents(); len(events) != 0 {
		t.Errorf("done should have no valid events, got %v", events)
	}
}

func TestTaskStatus_TransitionWith(t *testing.T) {
	got, err := TaskTodo.TransitionWith("start")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != TaskInProgress {
		t.Errorf("expected in_progress, got %s", got)
	}

	if _, err := TaskTodo.TransitionWith("complete"); err == nil {
		t.Error("expected error for 'complete' from todo")
	}
	if _, err := TaskDone.TransitionWith("start"); err == nil {
		t.Error("expected error for any event from done")
	}
}

func TestTaskStatus_EventTo(t *testing.T) {
	tests := []struct {
		from  TaskStatus
		to    TaskStatus
		event string
		ok    bool
	}{
		{TaskTodo, TaskInProgress, "start", true},
		{TaskTodo, TaskBlocked, "block", true},
		{TaskInProgress, TaskDone, "complete", true},
		{TaskInProgress, TaskTodo, "stop", true},
		{TaskBlocked, TaskTodo, "unblock", true},
		{TaskBlocked, TaskInProgress, "resume", true},
		{TaskTodo, TaskDone, "", false},
		{TaskDone, TaskTodo, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			event, ok := tt.from.EventTo(tt.to)
			if ok != tt.ok || event != tt.event {
				t.Errorf("EventTo() = %q, %v, want %q, %v", event, ok, tt.event, tt.ok)
			}
		})
	}
}

func TestTaskStatus_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(TaskBlocked)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var s TaskStatus
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != TaskBlocked {
		t.Errorf("expected blocked, got %s", s)
	}

	var empty TaskStatus
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if empty != TaskTodo {
		t.Errorf("empty status should default to todo, got %s", empty)
	}

	var bad TaskStatus
	if err := json.Unmarshal([]byte(`"bogus"`), &bad); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestTask_SetProgressPinnedWhenDone(t *testing.T) {
	task := NewTask("t1", "init-1", "Ship it", PriorityHigh)
	task.Status = TaskDone
	task.Progress = 100

	task.SetProgress(40)
	if task.Progress != 100 {
		t.Errorf("progress on a done task must stay 100, got %d", task.Progress)
	}
}

func TestTask_SetProgressClamps(t *testing.T) {
	task := NewTask("t1", "init-1", "Ship it", PriorityLow)
	task.SetProgress(250)
	if task.Progress != 100 {
		t.Errorf("expected clamp to 100, got %d", task.Progress)
	}
	task.SetProgress(-5)
	if task.Progress != 0 {
		t.Errorf("expected clamp to 0, got %d", task.Progress)
	}
}
