package planning

import (
	"encoding/json"
	"fmt"
)

// validInitiativeTransitions defines the allowed state transitions and their events.
// Map: currentStatus -> event -> targetStatus. Anything absent is denied.
var validInitiativeTransitions = map[InitiativeStatus]map[string]InitiativeStatus{
	InitiativeDraft: {
		"plan":   InitiativePlanned,
		"cancel": InitiativeCancelled,
	},
	InitiativePlanned: {
		"approve": InitiativeApproved,
		"revise":  InitiativeDraft,
		"cancel":  InitiativeCancelled,
	},
	InitiativeApproved: {
		"execute": InitiativeInExecution,
		"cancel":  InitiativeCancelled,
	},
	InitiativeInExecution: {
		"block":    InitiativeBlocked,
		"complete": InitiativeCompleted,
		"cancel":   InitiativeCancelled,
	},
	InitiativeBlocked: {
		"unblock": InitiativeInExecution,
		"cancel":  InitiativeCancelled,
	},
	// completed and cancelled are terminal: no outgoing transitions.
}

// AllInitiativeStatuses returns all valid initiative statuses.
func AllInitiativeStatuses() []InitiativeStatus {
	return []InitiativeStatus{
		InitiativeDraft,
		InitiativePlanned,
		InitiativeApproved,
		InitiativeInExecution,
		InitiativeBlocked,
		InitiativeCompleted,
		InitiativeCancelled,
	}
}

// IsValid returns true if the status is a valid initiative status.
func (s InitiativeStatus) IsValid() bool {
	switch s {
	case InitiativeDraft, InitiativePlanned, InitiativeApproved,
		InitiativeInExecution, InitiativeBlocked, InitiativeCompleted, InitiativeCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s InitiativeStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no outgoing transition exists from this status.
func (s InitiativeStatus) IsTerminal() bool {
	return s == InitiativeCompleted || s == InitiativeCancelled
}

// IsBlocked returns true if the initiative is blocked.
func (s InitiativeStatus) IsBlocked() bool {
	return s == InitiativeBlocked
}

// CanTransitionTo returns true if a transition from the current status to the target is allowed.
func (s InitiativeStatus) CanTransitionTo(target InitiativeStatus) bool {
	transitions, ok := validInitiativeTransitions[s]
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
func (s InitiativeStatus) CanTransitionWith(event string) bool {
	transitions, ok := validInitiativeTransitions[s]
	if !ok {
		return false
	}
	_, ok = transitions[event]
	return ok
}

// TransitionWith returns the target status for a given event, or an error if not allowed.
func (s InitiativeStatus) TransitionWith(event string) (InitiativeStatus, error) {
	transitions, ok := validInitiativeTransitions[s]
	if !ok {
		return s, fmt.Errorf("no transitions defined for status: %s", s)
	}
	target, ok := transitions[event]
	if !ok {
		return s, fmt.Errorf("event '%s' not allowed from status '%s'", event, s)
	}
	return target, nil
}

// ValidTransitions returns all valid target statuses reachable from this status.
func (s InitiativeStatus) ValidTransitions() []InitiativeStatus {
	transitions, ok := validInitiativeTransitions[s]
	if !ok {
		return nil
	}
	var targets []InitiativeStatus
	for _, t := range transitions {
		targets = append(targets, t)
	}
	return targets
}

// ValidEvents returns all valid events that can be triggered from this status.
func (s InitiativeStatus) ValidEvents() []string {
	transitions, ok := validInitiativeTransitions[s]
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
func (s InitiativeStatus) DisplayName() string {
	switch s {
	case InitiativeDraft:
		return "Draft"
	case InitiativePlanned:
		return "Planned"
	case InitiativeApproved:
		return "Approved"
	case InitiativeInExecution:
		return "In Execution"
	case InitiativeBlocked:
		return "Blocked"
	case InitiativeCompleted:
		return "Completed"
	case InitiativeCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// ParseInitiativeStatus parses a string into an InitiativeStatus.
func ParseInitiativeStatus(s string) (InitiativeStatus, error) {
	status := InitiativeStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid initiative status: %s", s)
	}
	return status, nil
}

// MarshalJSON implements json.Marshaler interface.
func (s InitiativeStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (s *InitiativeStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := InitiativeStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid initiative status: %s", str)
	}
	*s = status
	return nil
}
