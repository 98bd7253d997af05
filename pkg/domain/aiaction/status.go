// Package aiaction models AI-proposed mutations and their
// draft -> approval -> execution lifecycle.
package aiaction

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a proposed action. Pending is the only
// non-terminal state; re-proposing a decided action requires a new action.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExecuted Status = "executed"
)

// validActionTransitions defines the allowed state transitions and their events.
var validActionTransitions = map[Status]map[string]Status{
	StatusPending: {
		"approve": StatusApproved,
		"reject":  StatusRejected,
	},
	StatusApproved: {
		"execute": StatusExecuted,
	},
	// rejected and executed are terminal.
}

// AllStatuses returns all valid action statuses.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusExecuted}
}

// IsValid returns true if the status is a valid action status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExecuted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsPending returns true while the action awaits a decision.
func (s Status) IsPending() bool {
	return s == StatusPending
}

// IsTerminal returns true for decided or executed actions. Approved is
// terminal for the decision itself even though execution still follows.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExecuted
}

// CanTransitionTo returns true if a transition to the target status is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	transitions, ok := validActionTransitions[s]
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

// TransitionWith returns the target status for a given event, or an error if not allowed.
func (s Status) TransitionWith(event string) (Status, error) {
	transitions, ok := validActionTransitions[s]
	if !ok {
		return s, fmt.Errorf("no transitions defined for status: %s", s)
	}
	target, ok := transitions[event]
	if !ok {
		return s, fmt.Errorf("event '%s' not allowed from status '%s'", event, s)
	}
	return target, nil
}

// ParseStatus parses a string into a Status.
func ParseStatus(str string) (Status, error) {
	status := Status(str)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid action status: %s", str)
	}
	return status, nil
}

// MarshalJSON implements json.Marshaler interface.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := Status(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid action status: %s", str)
	}
	*s = status
	return nil
}
