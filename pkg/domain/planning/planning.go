// Package planning holds the Initiative and Task lifecycle model: the entity
// types, their closed status sets, and the transition rules that gate every
// status change in the system.
package planning

import (
	"time"
)

type InitiativeStatus string

const (
	InitiativeDraft       InitiativeStatus = "draft"
	InitiativePlanned     InitiativeStatus = "planned"
	InitiativeApproved    InitiativeStatus = "approved"
	InitiativeInExecution InitiativeStatus = "in_execution"
	InitiativeBlocked     InitiativeStatus = "blocked"
	InitiativeCompleted   InitiativeStatus = "completed"
	InitiativeCancelled   InitiativeStatus = "cancelled"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskDone       TaskStatus = "done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// AllTaskPriorities returns all valid task priorities.
func AllTaskPriorities() []TaskPriority {
	return []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// IsValid returns true if the priority is a valid task priority.
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// BlockerType classifies why a task is blocked.
type BlockerType string

const (
	BlockerRisk       BlockerType = "risk"
	BlockerDecision   BlockerType = "decision"
	BlockerDependency BlockerType = "dependency"
	BlockerResource   BlockerType = "resource"
	BlockerOther      BlockerType = "other"
)

// AllBlockerTypes returns all valid blocker types.
func AllBlockerTypes() []BlockerType {
	return []BlockerType{BlockerRisk, BlockerDecision, BlockerDependency, BlockerResource, BlockerOther}
}

// IsValid returns true if the blocker type is valid.
func (b BlockerType) IsValid() bool {
	switch b {
	case BlockerRisk, BlockerDecision, BlockerDependency, BlockerResource, BlockerOther:
		return true
	default:
		return false
	}
}

// Initiative is a unit of planned organizational change, composed of Tasks.
// Progress is derived by the aggregator and never set directly by a client.
type Initiative struct {
	ID            string           `json:"id" yaml:"id"`
	ProjectID     string           `json:"project_id" yaml:"project_id"`
	Name          string           `json:"name" yaml:"name"`
	Status        InitiativeStatus `json:"status" yaml:"status"`
	BlockedReason string           `json:"blocked_reason,omitempty" yaml:"blocked_reason,omitempty"`
	Progress      int              `json:"progress" yaml:"progress"`
	Version       int              `json:"version" yaml:"version"`
	CreatedAt     time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" yaml:"updated_at"`
}

// NewInitiative creates a draft initiative.
func NewInitiative(id, projectID, name string) *Initiative {
	now := time.Now()
	return &Initiative{
		ID:        id,
		ProjectID: projectID,
		Name:      name,
		Status:    InitiativeDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Task is an executable unit of work belonging to an Initiative.
type Task struct {
	ID            string       `json:"id" yaml:"id"`
	InitiativeID  string       `json:"initiative_id" yaml:"initiative_id"`
	Title         string       `json:"title" yaml:"title"`
	Status        TaskStatus   `json:"status" yaml:"status"`
	BlockedReason string       `json:"blocked_reason,omitempty" yaml:"blocked_reason,omitempty"`
	BlockerType   BlockerType  `json:"blocker_type,omitempty" yaml:"blocker_type,omitempty"`
	Priority      TaskPriority `json:"priority" yaml:"priority"`
	Progress      int          `json:"progress" yaml:"progress"`
	CreatedAt     time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" yaml:"updated_at"`
}

// NewTask creates a todo task under the given initiative.
func NewTask(id, initiativeID, title string, priority TaskPriority) *Task {
	now := time.Now()
	if !priority.IsValid() {
		priority = PriorityMedium
	}
	return &Task{
		ID:           id,
		InitiativeID: initiativeID,
		Title:        title,
		Status:       TaskTodo,
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetProgress clamps and records task progress. Progress on a done task stays
// pinned at 100; status and progress are never allowed to disagree about
// completion.
func (t *Task) SetProgress(progress int) {
	if t.Status == TaskDone {
		t.Progress = 100
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	t.Progress = progress
	t.UpdatedAt = time.Now()
}
