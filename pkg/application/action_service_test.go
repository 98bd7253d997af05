package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/harborview/governor/pkg/application"
	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/aiaction"
	"github.com/harborview/governor/pkg/domain/aipolicy"
	"github.com/harborview/governor/pkg/domain/audit"
	"github.com/harborview/governor/pkg/domain/events"
	"github.com/harborview/governor/pkg/domain/planning"
)

func createTaskPayload(initiativeID string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"initiative_id":%q,"title":"AI drafted task","priority":"high"}`, initiativeID))
}

func setOrgLevel(t *testing.T, e *env, level aipolicy.Level) {
	t.Helper()
	cfg := e.policy.Current()
	cfg.OrgLevel = level
	if err := e.policy.Apply(cfg); err != nil {
		t.Fatalf("apply policy: %v", err)
	}
}

func TestActionService_AssistedRequiresApproval(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	ctx := context.Background()

	var pendingEvents int
	e.dispatcher.Register("approval-watch", func(ctx context.Context, ev events.DomainEvent) error {
		pendingEvents++
		return nil
	}, events.TypeActionPendingApproval)

	action, err := e.actions.Propose(ctx, project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if action.Status != aiaction.StatusPending {
		t.Fatalf("status = %s, want pending at assisted level", action.Status)
	}
	if pendingEvents != 1 {
		t.Errorf("expected pending-approval event, got %d", pendingEvents)
	}

	// Nothing mutated yet.
	tasks, _ := e.tasks.ListTasks(initiative.ID)
	if len(tasks) != 0 {
		t.Fatalf("pending action must not mutate, found %d tasks", len(tasks))
	}

	if err := e.actions.Approve(ctx, action.ID, "pm"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ := e.actions.GetAction(action.ID)
	if got.Status != aiaction.StatusExecuted {
		t.Errorf("status after approval = %s, want executed", got.Status)
	}
	tasks, _ = e.tasks.ListTasks(initiative.ID)
	if len(tasks) != 1 || tasks[0].Title != "AI drafted task" {
		t.Errorf("executed action should have created the task, got %+v", tasks)
	}
}

func TestActionService_ApproveIsIdempotent(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	ctx := context.Background()

	action, err := e.actions.Propose(ctx, project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := e.actions.Approve(ctx, action.ID, "pm"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := e.actions.Approve(ctx, action.ID, "pm"); err != nil {
		t.Fatalf("second approve should be a no-op, got %v", err)
	}

	tasks, _ := e.tasks.ListTasks(initiative.ID)
	if len(tasks) != 1 {
		t.Errorf("retried approval must not double-execute, got %d tasks", len(tasks))
	}
}

func TestActionService_RejectIsTerminal(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	ctx := context.Background()

	action, _ := e.actions.Propose(ctx, project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if err := e.actions.Reject(ctx, action.ID, "pm", "duplicate of existing work"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if err := e.actions.Approve(ctx, action.ID, "pm"); !errors.Is(err, aiaction.ErrActionNotPending) {
		t.Errorf("approving a rejected action should fail, got %v", err)
	}
	tasks, _ := e.tasks.ListTasks(initiative.ID)
	if len(tasks) != 0 {
		t.Errorf("rejected action must never execute, got %d tasks", len(tasks))
	}
}

func TestActionService_AdvisoryDeniesMutations(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	setOrgLevel(t, e, aipolicy.LevelAdvisory)

	_, err := e.actions.Propose(context.Background(), project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if !errors.Is(err, aipolicy.ErrPolicyDenied) {
		t.Fatalf("expected policy denial, got %v", err)
	}

	// The denial itself is on the audit chain.
	entries, _ := e.audit.GetAuditLogs(audit.Filter{ProjectID: project.ID, Category: audit.CategoryPolicyCheck})
	if len(entries) == 0 {
		t.Fatal("denied proposal should write a policy_check entry")
	}
	last := entries[len(entries)-1]
	if last.Metadata["allowed"] != false {
		t.Errorf("denial entry metadata: %+v", last.Metadata)
	}
}

func TestActionService_AutopilotAllowListOnly(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	ctx := context.Background()
	setOrgLevel(t, e, aipolicy.LevelAutopilot)

	// Not on the allow-list: approval still required even at autopilot.
	action, err := e.actions.Propose(ctx, project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if action.Status != aiaction.StatusPending {
		t.Fatalf("off-list mutation at autopilot = %s, want pending", action.Status)
	}

	// On the allow-list: approved and executed in the proposing call.
	if err := e.projects.SetAllowedAIActions(ctx, project.ID, []string{"create_task"}); err != nil {
		t.Fatalf("set allow-list: %v", err)
	}
	action, err = e.actions.Propose(ctx, project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if err != nil {
		t.Fatalf("propose allow-listed: %v", err)
	}
	if action.Status != aiaction.StatusExecuted {
		t.Fatalf("allow-listed mutation = %s, want executed", action.Status)
	}
	if action.DecidedBy != application.AutopilotActor {
		t.Errorf("decided by %q, want %q", action.DecidedBy, application.AutopilotActor)
	}

	tasks, _ := e.tasks.ListTasks(initiative.ID)
	if len(tasks) != 1 {
		t.Errorf("expected one task from the unattended run, got %d", len(tasks))
	}
}

func TestActionService_EffectiveLevelIsMinOfThree(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	ctx := context.Background()

	// Org says autopilot, but the project override pins advisory: the
	// effective level is the minimum.
	cfg := e.policy.Current()
	cfg.OrgLevel = aipolicy.LevelAutopilot
	cfg.ProjectOverrides = map[string]aipolicy.Level{project.ID: aipolicy.LevelAdvisory}
	if err := e.policy.Apply(cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}

	_, err := e.actions.Propose(ctx, project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if !errors.Is(err, aipolicy.ErrPolicyDenied) {
		t.Errorf("override should pin the project to advisory, got %v", err)
	}
}

func TestActionService_ReadActionsRunAtAnyLevel(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	ctx := context.Background()
	setOrgLevel(t, e, aipolicy.LevelAdvisory)

	payload := json.RawMessage(fmt.Sprintf(`{"initiative_id":%q}`, initiative.ID))
	action, err := e.actions.Propose(ctx, project.ID, "explain_schedule", "agent-1", payload)
	if err != nil {
		t.Fatalf("read-only proposal at advisory: %v", err)
	}
	if action.Status != aiaction.StatusExecuted {
		t.Errorf("read action = %s, want executed without approval", action.Status)
	}

	// Recommendations need proactive.
	recPayload := json.RawMessage(fmt.Sprintf(`{"project_id":%q}`, project.ID))
	if _, err := e.actions.Propose(ctx, project.ID, "recommend_priorities", "agent-1", recPayload); !errors.Is(err, aipolicy.ErrPolicyDenied) {
		t.Errorf("recommendation at advisory should be denied, got %v", err)
	}
	setOrgLevel(t, e, aipolicy.LevelProactive)
	action, err = e.actions.Propose(ctx, project.ID, "recommend_priorities", "agent-1", recPayload)
	if err != nil {
		t.Fatalf("recommendation at proactive: %v", err)
	}
	if action.Status != aiaction.StatusExecuted {
		t.Errorf("recommendation = %s, want executed", action.Status)
	}
}

func TestActionService_InvalidPayloadRejected(t *testing.T) {
	e := newEnv(t)
	project, _ := e.seedProject(t)

	_, err := e.actions.Propose(context.Background(), project.ID, "create_task", "agent-1", json.RawMessage(`{"title":""}`))
	if err == nil {
		t.Fatal("payload missing required fields should be rejected")
	}
	actions, _ := e.actions.ListActions(project.ID, "")
	if len(actions) != 0 {
		t.Errorf("invalid proposal must not persist an action, got %d", len(actions))
	}
}

func TestActionService_AuditFailureBlocksDecision(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	ctx := context.Background()

	action, err := e.actions.Propose(ctx, project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	e.repo.FailAuditAppend = true
	if err := e.actions.Approve(ctx, action.ID, "pm"); err == nil {
		t.Fatal("approval with a failing audit store must error")
	}
	e.repo.FailAuditAppend = false

	got, _ := e.actions.GetAction(action.ID)
	if got.Status != aiaction.StatusPending {
		t.Errorf("action committed without audit, status = %s", got.Status)
	}
	tasks, _ := e.tasks.ListTasks(initiative.ID)
	if len(tasks) != 0 {
		t.Errorf("mutation committed without audit, got %d tasks", len(tasks))
	}
}

func TestActionService_AuditFailureBlocksProposal(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)

	e.repo.FailAuditAppend = true
	_, err := e.actions.Propose(context.Background(), project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if !errors.Is(err, domain.ErrAuditWriteFailed) {
		t.Fatalf("expected ErrAuditWriteFailed, got %v", err)
	}
	e.repo.FailAuditAppend = false

	actions, _ := e.actions.ListActions(project.ID, "")
	if len(actions) != 0 {
		t.Errorf("proposal committed without its policy_check entry, got %d actions", len(actions))
	}
	tasks, _ := e.tasks.ListTasks(initiative.ID)
	if len(tasks) != 0 {
		t.Errorf("mutation committed without audit, got %d tasks", len(tasks))
	}
	checks, _ := e.audit.GetAuditLogs(audit.Filter{ProjectID: project.ID, Category: audit.CategoryPolicyCheck})
	if len(checks) != 0 {
		t.Errorf("no policy_check entry should exist for the aborted proposal, got %d", len(checks))
	}
}

func TestActionService_FailedExecutionRetriesOnApprove(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	ctx := context.Background()

	// Applier fails on the first run, succeeds on the retry.
	calls := 0
	e.actions.RegisterApplier("create_task", func(ctx context.Context, action *aiaction.Action) (*application.ApplyResult, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("storage briefly unavailable")
		}
		task, err := e.tasks.CreateTask(ctx, initiative.ID, "AI drafted task", planning.PriorityHigh)
		if err != nil {
			return nil, err
		}
		return &application.ApplyResult{Metadata: map[string]interface{}{"task_id": task.ID}}, nil
	})

	action, err := e.actions.Propose(ctx, project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := e.actions.Approve(ctx, action.ID, "pm"); err == nil {
		t.Fatal("approve with a failing applier should surface the error")
	}

	// The decision stuck, the execution did not.
	got, _ := e.actions.GetAction(action.ID)
	if got.Status != aiaction.StatusApproved {
		t.Fatalf("status after failed execution = %s, want approved", got.Status)
	}
	tasks, _ := e.tasks.ListTasks(initiative.ID)
	if len(tasks) != 0 {
		t.Fatalf("failed execution must not mutate, got %d tasks", len(tasks))
	}

	// Retrying the approval re-runs the execution without a second decision.
	if err := e.actions.Approve(ctx, action.ID, "pm"); err != nil {
		t.Fatalf("retry approve: %v", err)
	}
	got, _ = e.actions.GetAction(action.ID)
	if got.Status != aiaction.StatusExecuted {
		t.Errorf("status after retry = %s, want executed", got.Status)
	}
	tasks, _ = e.tasks.ListTasks(initiative.ID)
	if len(tasks) != 1 {
		t.Errorf("retry should have created the task, got %d", len(tasks))
	}
	decided, _ := e.audit.GetAuditLogs(audit.Filter{ActionID: action.ID, Category: audit.CategoryActionDecided})
	if len(decided) != 1 {
		t.Errorf("retry must not record a second decision, got %d entries", len(decided))
	}
}

func TestActionService_ExecutionEntriesOnChain(t *testing.T) {
	e := newEnv(t)
	project, initiative := e.seedProject(t)
	ctx := context.Background()

	action, _ := e.actions.Propose(ctx, project.ID, "create_task", "agent-1", createTaskPayload(initiative.ID))
	if err := e.actions.Approve(ctx, action.ID, "pm"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	decided, _ := e.audit.GetAuditLogs(audit.Filter{ActionID: action.ID, Category: audit.CategoryActionDecided})
	executed, _ := e.audit.GetAuditLogs(audit.Filter{ActionID: action.ID, Category: audit.CategoryActionRun})
	if len(decided) != 1 || len(executed) != 1 {
		t.Fatalf("expected 1 decided + 1 executed entry, got %d + %d", len(decided), len(executed))
	}
	if executed[0].Actor != "pm" || executed[0].PolicyLevel != aipolicy.LevelAssisted {
		t.Errorf("unexpected execution entry: %+v", executed[0])
	}

	if verified, err := e.audit.VerifyIntegrity(); err != nil {
		t.Errorf("chain integrity after workflow: %v (verified %d)", err, verified)
	}
}
