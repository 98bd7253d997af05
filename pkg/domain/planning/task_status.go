package planning

import (
	"encoding/json"
	"fmt"
)

// validTaskTransitions defines the allowed state transitions and their events.
// Map: currentStatus -> event -> targetStatus. Anything absent is denied.
var validTaskTransitions = map[TaskStatus]map[string]TaskStatus{
	TaskTodo: {
		"start": TaskInProgress,
		"block": TaskBlocked,
	},
	TaskInProgress: {
		"complete": TaskDone,
		"block":    TaskBlocked,
		"stop":     TaskTodo,
	},
	TaskBlocked: {
		"unblock": TaskTodo,
		"resume":  TaskInProgress,
	},
	// done is terminal: no outgoing transitions.
}

// AllTaskStatuses returns all valid task statuses.
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{TaskTodo, TaskInProgress, TaskBlocked, TaskDone}
}

// IsValid returns true if the status is a valid task status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskBlocked, TaskDone:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no outgoing transition exists from this status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskDone
}

// IsBlocked returns true if the task is blocked.
func (s TaskStatus) IsBlocked() bool {
	return s == TaskBlocked
}

// IsComplete returns true if the task is done.
func (s TaskStatus) IsComplete() bool {
	return s == TaskDone
}

// CanTransitionTo returns true if a transition from the current status to the target is allowed.
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	transitions, ok := validTaskTransitions[s]
	if !ok {
		return false
	}
	for _, t := range transitions {
		if t == target {
			return true
		}
	}
	return false
}

// CanTransitionWith returns true if the given event can trigger a transition from this status.
func (s TaskStatus) CanTransitionWith(event string) bool {
	transitions, ok := validTaskTransitions[s]
	if !ok {
		return false
	}
	_, ok = transitions[event]
	return ok
}

// TransitionWith returns the target status for a given event, or an error if not allowed.
func (s TaskStatus) TransitionWith(event string) (TaskStatus, error) {
	transitions, ok := validTaskTransitions[s]
	if !ok {
		return s, fmt.Errorf("no transitions defined for status: %s", s)
	}
	target, ok := transitions[event]
	if !ok {
		return s, fmt.Errorf("event '%s' not allowed from status '%s'", event, s)
	}
	return target, nil
}

// EventTo returns the event that moves this status to the target, if one
// exists in the default lifecycle.
func (s TaskStatus) EventTo(target TaskStatus) (string, bool) {
	for event, to := range validTaskTransitions[s] {
		if to == target {
			return event, true
		}
	}
	return "", false
}

// ValidTransitions returns all valid target statuses reachable from this status.
func (s TaskStatus) ValidTransitions() []TaskStatus {
	transitions, ok := validTaskTransitions[s]
	if !ok {
		return nil
	}
	var targets []TaskStatus
	for _, t := range transitions {
		targets = append(targets, t)
	}
	return targets
}

// ValidEvents returns all valid events that can be triggered from this status.
func (s TaskStatus) ValidEvents() []string {
	transitions, ok := validTaskTransitions[s]
	if !ok {
		return nil
	}
	var events []string
	for event := range transitions {
		events = append(events, event)
	}
	return events
}

// DisplayName returns a human-readable display name for the status.
func (s TaskStatus) DisplayName() string {
	switch s {
	case TaskTodo:
		return "To Do"
	case TaskInProgress:
		return "In Progress"
	case TaskBlocked:
		return "Blocked"
	case TaskDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParseTaskStatus parses a string into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid task status: %s", s)
	}
	return status, nil
}

// MarshalJSON implements json.Marshaler interface.
func (s TaskStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	// Accept empty string as todo for backward compatibility
	if str == "" {
		*s = TaskTodo
		return nil
	}

	status := TaskStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid task status: %s", str)
	}
	*s = status
	return nil
}
