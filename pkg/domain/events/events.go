// Package events defines the derived-state-changed events the engine emits
// to collaborators (presentation, notifications) after a governed mutation.
package events

import "time"

// Event types emitted by the governance engine.
const (
	TypeInitiativeProgressChanged = "initiative.progress_changed"
	TypeInitiativeStatusChanged   = "initiative.status_changed"
	TypeTaskStatusChanged         = "task.status_changed"
	TypeGateStatusChanged         = "gate.status_changed"
	TypeProjectPhaseChanged       = "project.phase_changed"
	TypeDeadlockDetected          = "dependency.deadlock_detected"
	TypeActionExecuted            = "ai_action.executed"
	TypeActionPendingApproval     = "ai_action.pending_approval"
)

// DomainEvent is the base interface for all emitted events.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type      string                 `json:"type"`
	Aggregate string                 `json:"aggregate_id"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// New creates an event carrying the given payload.
func New(eventType, aggregateID string, payload map[string]interface{}) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Aggregate: aggregateID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
