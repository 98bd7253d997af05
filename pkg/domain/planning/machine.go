package planning

import (
	"errors"
	"fmt"
)

// EntityKind distinguishes the two governed lifecycles.
type EntityKind string

const (
	KindInitiative EntityKind = "initiative"
	KindTask       EntityKind = "task"
)

// Lifecycle validation errors.
var (
	// ErrInvalidTransition indicates a state change not permitted from the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrMissingContext indicates a transition missing required context, e.g. a block without a reason.
	ErrMissingContext = errors.New("missing block context")
)

// InvalidTransitionError reports a denied transition with its endpoints.
type InvalidTransitionError struct {
	Kind EntityKind
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s transition from '%s' to '%s' is not allowed", e.Kind, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// MissingContextError reports the specific field a transition requires.
type MissingContextError struct {
	Field string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("missing block context: %s is required", e.Field)
}

func (e *MissingContextError) Unwrap() error { return ErrMissingContext }

// TransitionContext carries the state-dependent inputs a transition may require.
type TransitionContext struct {
	BlockedReason string
	BlockerType   BlockerType
	Actor         string
}

// TransitionTable is a serializable from-state -> allowed target states mapping,
// used to override the built-in lifecycle rules from configuration.
type TransitionTable map[string][]string

// StatusMachine validates lifecycle transitions for initiatives and tasks.
// It is a pure lookup: all effects (progress forcing, audit writes) are
// orchestrated by callers after validation succeeds. Transitions are denied
// unless explicitly present in the table.
type StatusMachine struct {
	initiative map[string]map[string]bool
	task       map[string]map[string]bool
}

// NewStatusMachine creates a StatusMachine with the default lifecycle tables.
func NewStatusMachine() *StatusMachine {
	m := &StatusMachine{
		initiative: make(map[string]map[string]bool),
		task:       make(map[string]map[string]bool),
	}
	for from, events := range validInitiativeTransitions {
		for _, to := range events {
			m.allow(KindInitiative, string(from), string(to))
		}
	}
	for from, events := range validTaskTransitions {
		for _, to := range events {
			m.allow(KindTask, string(from), string(to))
		}
	}
	return m
}

// WithTable replaces the table for one entity kind. The override is validated
// against the closed status sets so a config typo cannot smuggle in a state.
func (m *StatusMachine) WithTable(kind EntityKind, table TransitionTable) (*StatusMachine, error) {
	adjacency := make(map[string]map[string]bool)
	for from, targets := range table {
		if err := m.checkStatus(kind, from); err != nil {
			return nil, err
		}
		adjacency[from] = make(map[string]bool)
		for _, to := range targets {
			if err := m.checkStatus(kind, to); err != nil {
				return nil, err
			}
			if m.isTerminal(kind, from) {
				return nil, fmt.Errorf("terminal status '%s' cannot have outgoing transitions", from)
			}
			adjacency[from][to] = true
		}
	}
	switch kind {
	case KindInitiative:
		m.initiative = adjacency
	case KindTask:
		m.task = adjacency
	default:
		return nil, fmt.Errorf("unknown entity kind: %s", kind)
	}
	return m, nil
}

func (m *StatusMachine) allow(kind EntityKind, from, to string) {
	table := m.table(kind)
	if table[from] == nil {
		table[from] = make(map[string]bool)
	}
	table[from][to] = true
}

func (m *StatusMachine) table(kind EntityKind) map[string]map[string]bool {
	if kind == KindTask {
		return m.task
	}
	return m.initiative
}

func (m *StatusMachine) checkStatus(kind EntityKind, s string) error {
	switch kind {
	case KindInitiative:
		if !InitiativeStatus(s).IsValid() {
			return fmt.Errorf("invalid initiative status: %s", s)
		}
	case KindTask:
		if !TaskStatus(s).IsValid() {
			return fmt.Errorf("invalid task status: %s", s)
		}
	}
	return nil
}

func (m *StatusMachine) isTerminal(kind EntityKind, s string) bool {
	if kind == KindTask {
		return TaskStatus(s).IsTerminal()
	}
	return InitiativeStatus(s).IsTerminal()
}

// CanTransition reports whether the transition is present in the table.
// It is reflexive-false: no entity may transition to its own current state.
func (m *StatusMachine) CanTransition(kind EntityKind, from, to string) bool {
	if from == to {
		return false
	}
	targets, ok := m.table(kind)[from]
	if !ok {
		return false
	}
	return targets[to]
}

// ValidateTransition checks the transition table plus state-dependent
// preconditions: a transition into a blocked status requires a non-empty
// reason, and tasks additionally require a valid blocker type.
func (m *StatusMachine) ValidateTransition(kind EntityKind, from, to string, ctx TransitionContext) error {
	if err := m.checkStatus(kind, from); err != nil {
		return err
	}
	if err := m.checkStatus(kind, to); err != nil {
		return err
	}
	if !m.CanTransition(kind, from, to) {
		return &InvalidTransitionError{Kind: kind, From: from, To: to}
	}

	blocked := false
	switch kind {
	case KindInitiative:
		blocked = InitiativeStatus(to).IsBlocked()
	case KindTask:
		blocked = TaskStatus(to).IsBlocked()
	}
	if blocked {
		if ctx.BlockedReason == "" {
			return &MissingContextError{Field: "blocked_reason"}
		}
		if kind == KindTask && !ctx.BlockerType.IsValid() {
			return &MissingContextError{Field: "blocker_type"}
		}
	}
	return nil
}
