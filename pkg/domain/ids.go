package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern matches valid ID formats: alphanumeric with hyphens/underscores
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// InitiativeID represents a validated initiative identifier.
type InitiativeID struct {
	value string
}

// NewInitiativeID creates a new InitiativeID from a string value.
// Returns an error if the value is invalid.
func NewInitiativeID(value string) (InitiativeID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return InitiativeID{}, fmt.Errorf("initiative ID cannot be empty")
	}
	if !idPattern.MatchString(value) {
		return InitiativeID{}, fmt.Errorf("invalid initiative ID format: %s", value)
	}
	return InitiativeID{value: value}, nil
}

// MustInitiativeID creates an InitiativeID or panics if invalid. Use only in tests.
func MustInitiativeID(value string) InitiativeID {
	id, err := NewInitiativeID(value)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation of the InitiativeID.
func (id InitiativeID) String() string {
	return id.value
}

// IsZero returns true if the InitiativeID is empty.
func (id InitiativeID) IsZero() bool {
	return id.value == ""
}

// Equals checks if two InitiativeIDs are equal.
func (id InitiativeID) Equals(other InitiativeID) bool {
	return id.value == other.value
}

// TaskID represents a validated task identifier.
type TaskID struct {
	value string
}

// NewTaskID creates a new TaskID from a string value.
func NewTaskID(value string) (TaskID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return TaskID{}, fmt.Errorf("task ID cannot be empty")
	}
	if !idPattern.MatchString(value) {
		return TaskID{}, fmt.Errorf("invalid task ID format: %s", value)
	}
	return TaskID{value: value}, nil
}

// MustTaskID creates a TaskID or panics if invalid. Use only in tests.
func MustTaskID(value string) TaskID {
	id, err := NewTaskID(value)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation of the TaskID.
func (id TaskID) String() string {
	return id.value
}

// IsZero returns true if the TaskID is empty.
func (id TaskID) IsZero() bool {
	return id.value == ""
}

// Equals checks if two TaskIDs are equal.
func (id TaskID) Equals(other TaskID) bool {
	return id.value == other.value
}

// ActionID represents a validated AI action identifier.
type ActionID struct {
	value string
}

// NewActionID creates a new ActionID from a string value.
func NewActionID(value string) (ActionID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ActionID{}, fmt.Errorf("action ID cannot be empty")
	}
	if !idPattern.MatchString(value) {
		return ActionID{}, fmt.Errorf("invalid action ID format: %s", value)
	}
	return ActionID{value: value}, nil
}

// MustActionID creates an ActionID or panics if invalid. Use only in tests.
func MustActionID(value string) ActionID {
	id, err := NewActionID(value)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation of the ActionID.
func (id ActionID) String() string {
	return id.value
}

// IsZero returns true if the ActionID is empty.
func (id ActionID) IsZero() bool {
	return id.value == ""
}
