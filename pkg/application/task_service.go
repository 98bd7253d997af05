package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/audit"
	"github.com/harborview/governor/pkg/domain/events"
	"github.com/harborview/governor/pkg/domain/planning"
)

// TaskService governs task lifecycle and progress. Every status change is
// validated against the transition table, audited before the entity commit,
// and followed by a synchronous recompute of the parent initiative's derived
// progress. Mutations on tasks of one initiative are serialized so two
// concurrent completions cannot interleave their recomputes.
type TaskService struct {
	repo   domain.Repository
	audit  *AuditService
	policy *PolicyService
	locks  *entityLocks
	events *events.Dispatcher
}

func NewTaskService(repo domain.Repository, auditSvc *AuditService, policy *PolicyService, dispatcher *events.Dispatcher) *TaskService {
	return &TaskService{
		repo:   repo,
		audit:  auditSvc,
		policy: policy,
		locks:  newEntityLocks(),
		events: dispatcher,
	}
}

// CreateTask creates a todo task under an existing initiative and recomputes
// the initiative's progress (a new todo task dilutes it).
func (s *TaskService) CreateTask(ctx context.Context, initiativeID, title string, priority planning.TaskPriority) (*planning.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	release := s.locks.acquire(taskLockKey(initiativeID))
	defer release()

	initiative, err := s.repo.GetInitiative(initiativeID)
	if err != nil {
		return nil, fmt.Errorf("initiative %s: %w", initiativeID, err)
	}

	task := planning.NewTask(uuid.NewString(), initiativeID, title, priority)
	if err := s.audit.Record(&audit.Entry{
		ProjectID:  initiative.ProjectID,
		Category:   audit.CategoryTransition,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  "task created",
		Metadata: map[string]interface{}{
			"task_id":       task.ID,
			"initiative_id": initiativeID,
			"title":         title,
			"priority":      string(task.Priority),
		},
	}); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTask(task); err != nil {
		return nil, err
	}
	if err := s.recomputeLocked(ctx, initiative); err != nil {
		return nil, err
	}
	return task, nil
}

// TransitionTask applies one validated status change. Transitions into
// blocked require a reason and blocker type; transitions to done force
// progress to 100 before the roll-up runs.
func (s *TaskService) TransitionTask(ctx context.Context, taskID string, to planning.TaskStatus, tctx planning.TransitionContext) error {
	task, err := s.repo.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("task %s: %w", taskID, err)
	}
	release := s.locks.acquire(taskLockKey(task.InitiativeID))
	defer release()

	// Reload under the lock; another transition may have landed first.
	task, err = s.repo.GetTask(taskID)
	if err != nil {
		return err
	}
	initiative, err := s.repo.GetInitiative(task.InitiativeID)
	if err != nil {
		return fmt.Errorf("initiative %s: %w", task.InitiativeID, err)
	}

	machine, err := s.policy.Machine()
	if err != nil {
		return err
	}
	from := task.Status
	if err := machine.ValidateTransition(planning.KindTask, string(from), string(to), tctx); err != nil {
		return err
	}

	// Transitions on the default lifecycle are driven through the statekit
	// interpreter, with the active transition table as its guard. Targets
	// reachable only through a configured table override fall back to the
	// validated direct assignment.
	next := to
	if event, ok := from.EventTo(to); ok {
		guard := func(string, string) bool {
			return machine.CanTransition(planning.KindTask, string(from), string(to))
		}
		fsm, err := planning.NewTaskStateMachine(string(from), taskID, guard)
		if err != nil {
			return err
		}
		if err := fsm.Transition(event); err != nil {
			return err
		}
		next = fsm.CurrentStatus()
	}

	task.Status = next
	switch {
	case to == planning.TaskBlocked:
		task.BlockedReason = tctx.BlockedReason
		task.BlockerType = tctx.BlockerType
	case from == planning.TaskBlocked:
		task.BlockedReason = ""
		task.BlockerType = ""
	}
	if to == planning.TaskDone {
		task.Progress = 100
	}
	task.UpdatedAt = nowFn()

	entry := &audit.Entry{
		ProjectID:  initiative.ProjectID,
		Category:   audit.CategoryTransition,
		Actor:      actorOr(tctx.Actor, ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  fmt.Sprintf("task status %s -> %s", from, to),
		Metadata: map[string]interface{}{
			"task_id": taskID,
			"from":    string(from),
			"to":      string(to),
		},
	}
	if to == planning.TaskBlocked {
		entry.Metadata["blocked_reason"] = tctx.BlockedReason
		entry.Metadata["blocker_type"] = string(tctx.BlockerType)
	}
	if err := s.audit.Record(entry); err != nil {
		return err
	}
	if err := s.repo.SaveTask(task); err != nil {
		return err
	}

	s.dispatch(ctx, events.New(events.TypeTaskStatusChanged, taskID, map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	}))
	return s.recomputeLocked(ctx, initiative)
}

// UpdateProgress records manual task progress. Progress on a done task is
// pinned at 100 regardless of the supplied value.
func (s *TaskService) UpdateProgress(ctx context.Context, taskID string, progress int) error {
	task, err := s.repo.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("task %s: %w", taskID, err)
	}
	release := s.locks.acquire(taskLockKey(task.InitiativeID))
	defer release()

	task, err = s.repo.GetTask(taskID)
	if err != nil {
		return err
	}
	initiative, err := s.repo.GetInitiative(task.InitiativeID)
	if err != nil {
		return err
	}

	before := task.Progress
	task.SetProgress(progress)
	if err := s.audit.Record(&audit.Entry{
		ProjectID:  initiative.ProjectID,
		Category:   audit.CategoryTransition,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  "task progress updated",
		Metadata: map[string]interface{}{
			"task_id": taskID,
			"from":    before,
			"to":      task.Progress,
		},
	}); err != nil {
		return err
	}
	if err := s.repo.SaveTask(task); err != nil {
		return err
	}
	return s.recomputeLocked(ctx, initiative)
}

// DeleteTask removes a task and recomputes the parent initiative from the
// remaining set.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	task, err := s.repo.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("task %s: %w", taskID, err)
	}
	release := s.locks.acquire(taskLockKey(task.InitiativeID))
	defer release()

	initiative, err := s.repo.GetInitiative(task.InitiativeID)
	if err != nil {
		return err
	}
	if err := s.audit.Record(&audit.Entry{
		ProjectID:  initiative.ProjectID,
		Category:   audit.CategoryTransition,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  "task deleted",
		Metadata:   map[string]interface{}{"task_id": taskID},
	}); err != nil {
		return err
	}
	if err := s.repo.DeleteTask(taskID); err != nil {
		return err
	}
	return s.recomputeLocked(ctx, initiative)
}

// GetTask returns one task.
func (s *TaskService) GetTask(taskID string) (*planning.Task, error) {
	return s.repo.GetTask(taskID)
}

// ListTasks returns the tasks of an initiative.
func (s *TaskService) ListTasks(initiativeID string) ([]*planning.Task, error) {
	return s.repo.ListTasks(initiativeID)
}

// recomputeLocked re-derives the initiative's progress from its current task
// set. Callers hold the initiative lock.
func (s *TaskService) recomputeLocked(ctx context.Context, initiative *planning.Initiative) error {
	tasks, err := s.repo.ListTasks(initiative.ID)
	if err != nil {
		return err
	}
	if !s.policy.Aggregator().Apply(initiative, tasks) {
		return nil
	}
	initiative.UpdatedAt = nowFn()
	initiative.Version++
	if err := s.repo.SaveInitiative(initiative); err != nil {
		return err
	}
	s.dispatch(ctx, events.New(events.TypeInitiativeProgressChanged, initiative.ID, map[string]interface{}{
		"progress": initiative.Progress,
	}))
	return nil
}

func (s *TaskService) dispatch(ctx context.Context, e events.BaseEvent) {
	if s.events != nil {
		_ = s.events.Dispatch(ctx, e)
	}
}
