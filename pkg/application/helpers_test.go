package application_test

import (
	"context"
	"testing"

	"github.com/harborview/governor/pkg/application"
	"github.com/harborview/governor/pkg/domain/events"
	"github.com/harborview/governor/pkg/domain/gate"
	"github.com/harborview/governor/pkg/domain/planning"
	"github.com/harborview/governor/pkg/storage"
)

// env wires the full service graph over the in-memory repository.
type env struct {
	repo        *storage.MemoryRepository
	audit       *application.AuditService
	policy      *application.PolicyService
	projects    *application.ProjectService
	initiatives *application.InitiativeService
	tasks       *application.TaskService
	deps        *application.DependencyService
	gates       *application.GateService
	actions     *application.ActionService
	dispatcher  *events.Dispatcher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repo := storage.NewMemoryRepository()
	auditSvc := application.NewAuditService(repo)
	policy, err := application.NewPolicyService(repo)
	if err != nil {
		t.Fatalf("policy service: %v", err)
	}
	dispatcher := events.NewDispatcher()

	e := &env{
		repo:        repo,
		audit:       auditSvc,
		policy:      policy,
		projects:    application.NewProjectService(repo, auditSvc),
		initiatives: application.NewInitiativeService(repo, auditSvc, policy, dispatcher),
		tasks:       application.NewTaskService(repo, auditSvc, policy, dispatcher),
		deps:        application.NewDependencyService(repo, auditSvc, dispatcher),
		gates:       application.NewGateService(repo, auditSvc, dispatcher),
		dispatcher:  dispatcher,
	}
	e.actions = application.NewActionService(repo, auditSvc, policy, dispatcher)
	application.RegisterDefaultAppliers(e.actions, e.tasks, e.initiatives, e.deps, repo)
	return e
}

// seedProject creates a project with one in-execution initiative.
func (e *env) seedProject(t *testing.T) (*gate.Project, *planning.Initiative) {
	t.Helper()
	ctx := context.Background()
	project, err := e.projects.CreateProject(ctx, "Platform revamp", "execution")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	initiative, err := e.initiatives.CreateInitiative(ctx, project.ID, "Checkout rebuild")
	if err != nil {
		t.Fatalf("create initiative: %v", err)
	}
	return project, initiative
}

// seedTask creates a task and returns it.
func (e *env) seedTask(t *testing.T, initiativeID, title string, priority planning.TaskPriority) *planning.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), initiativeID, title, priority)
	if err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return task
}

// startTask moves a fresh task from todo to in_progress.
func (e *env) startTask(t *testing.T, taskID string) {
	t.Helper()
	err := e.tasks.TransitionTask(context.Background(), taskID, planning.TaskInProgress, planning.TransitionContext{Actor: "pm"})
	if err != nil {
		t.Fatalf("start task %s: %v", taskID, err)
	}
}

// completeTask moves an in-progress task to done.
func (e *env) completeTask(t *testing.T, taskID string) {
	t.Helper()
	err := e.tasks.TransitionTask(context.Background(), taskID, planning.TaskDone, planning.TransitionContext{Actor: "pm"})
	if err != nil {
		t.Fatalf("complete task %s: %v", taskID, err)
	}
}
