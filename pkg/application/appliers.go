package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/aiaction"
	"github.com/harborview/governor/pkg/domain/dependency"
	"github.com/harborview/governor/pkg/domain/planning"
)

// RegisterDefaultAppliers binds every catalog action type to its executor.
// Mutating appliers go through the regular services, so an AI-executed change
// obeys exactly the same lifecycle, roll-up, and audit rules as a human one.
func RegisterDefaultAppliers(
	actions *ActionService,
	tasks *TaskService,
	initiatives *InitiativeService,
	deps *DependencyService,
	repo domain.Repository,
) {
	actions.RegisterApplier("create_task", func(ctx context.Context, action *aiaction.Action) (*ApplyResult, error) {
		var p struct {
			InitiativeID string `json:"initiative_id"`
			Title        string `json:"title"`
			Priority     string `json:"priority"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		if _, err := domain.NewInitiativeID(p.InitiativeID); err != nil {
			return nil, err
		}
		task, err := tasks.CreateTask(withProposer(ctx, action), p.InitiativeID, p.Title, planning.TaskPriority(p.Priority))
		if err != nil {
			return nil, err
		}
		return &ApplyResult{Metadata: map[string]interface{}{"task_id": task.ID}}, nil
	})

	actions.RegisterApplier("update_task_status", func(ctx context.Context, action *aiaction.Action) (*ApplyResult, error) {
		var p struct {
			TaskID        string `json:"task_id"`
			Status        string `json:"status"`
			BlockedReason string `json:"blocked_reason"`
			BlockerType   string `json:"blocker_type"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		if _, err := domain.NewTaskID(p.TaskID); err != nil {
			return nil, err
		}
		tctx := planning.TransitionContext{
			BlockedReason: p.BlockedReason,
			BlockerType:   planning.BlockerType(p.BlockerType),
			Actor:         action.ProposedBy,
		}
		if err := tasks.TransitionTask(withProposer(ctx, action), p.TaskID, planning.TaskStatus(p.Status), tctx); err != nil {
			return nil, err
		}
		return &ApplyResult{Metadata: map[string]interface{}{"task_id": p.TaskID, "status": p.Status}}, nil
	})

	actions.RegisterApplier("update_task_progress", func(ctx context.Context, action *aiaction.Action) (*ApplyResult, error) {
		var p struct {
			TaskID   string `json:"task_id"`
			Progress int    `json:"progress"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		if _, err := domain.NewTaskID(p.TaskID); err != nil {
			return nil, err
		}
		if err := tasks.UpdateProgress(withProposer(ctx, action), p.TaskID, p.Progress); err != nil {
			return nil, err
		}
		return &ApplyResult{Metadata: map[string]interface{}{"task_id": p.TaskID, "progress": p.Progress}}, nil
	})

	actions.RegisterApplier("update_initiative_status", func(ctx context.Context, action *aiaction.Action) (*ApplyResult, error) {
		var p struct {
			InitiativeID  string `json:"initiative_id"`
			Status        string `json:"status"`
			BlockedReason string `json:"blocked_reason"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		if _, err := domain.NewInitiativeID(p.InitiativeID); err != nil {
			return nil, err
		}
		tctx := planning.TransitionContext{BlockedReason: p.BlockedReason, Actor: action.ProposedBy}
		if err := initiatives.ProposeTransition(withProposer(ctx, action), p.InitiativeID, planning.InitiativeStatus(p.Status), tctx); err != nil {
			return nil, err
		}
		return &ApplyResult{Metadata: map[string]interface{}{"initiative_id": p.InitiativeID, "status": p.Status}}, nil
	})

	actions.RegisterApplier("add_dependency", func(ctx context.Context, action *aiaction.Action) (*ApplyResult, error) {
		var p struct {
			FromID string `json:"from_id"`
			ToID   string `json:"to_id"`
			Type   string `json:"type"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		if _, err := domain.NewInitiativeID(p.FromID); err != nil {
			return nil, err
		}
		if _, err := domain.NewInitiativeID(p.ToID); err != nil {
			return nil, err
		}
		edge, err := deps.AddDependency(withProposer(ctx, action), action.ProjectID, p.FromID, p.ToID, dependency.EdgeType(p.Type))
		if err != nil {
			return nil, err
		}
		return &ApplyResult{Metadata: map[string]interface{}{"edge_id": edge.ID}}, nil
	})

	// Read-only action types mutate nothing; their result is the report itself.
	actions.RegisterApplier("explain_schedule", func(ctx context.Context, action *aiaction.Action) (*ApplyResult, error) {
		var p struct {
			InitiativeID string `json:"initiative_id"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		initiative, err := repo.GetInitiative(p.InitiativeID)
		if err != nil {
			return nil, err
		}
		taskList, err := repo.ListTasks(p.InitiativeID)
		if err != nil {
			return nil, err
		}
		return &ApplyResult{Metadata: map[string]interface{}{
			"initiative_id": initiative.ID,
			"status":        string(initiative.Status),
			"progress":      initiative.Progress,
			"task_count":    len(taskList),
		}}, nil
	})

	actions.RegisterApplier("summarize_portfolio", func(ctx context.Context, action *aiaction.Action) (*ApplyResult, error) {
		return portfolioSummary(repo, action)
	})

	actions.RegisterApplier("recommend_priorities", func(ctx context.Context, action *aiaction.Action) (*ApplyResult, error) {
		return portfolioSummary(repo, action)
	})
}

func portfolioSummary(repo domain.Repository, action *aiaction.Action) (*ApplyResult, error) {
	var p struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(action.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	initiatives, err := repo.ListInitiatives(p.ProjectID)
	if err != nil {
		return nil, err
	}
	byStatus := make(map[string]int)
	for _, i := range initiatives {
		byStatus[string(i.Status)]++
	}
	return &ApplyResult{Metadata: map[string]interface{}{
		"project_id":  p.ProjectID,
		"initiatives": len(initiatives),
		"by_status":   byStatus,
	}}, nil
}

// withProposer makes the proposing agent the acting identity for the
// applier's downstream audit entries.
func withProposer(ctx context.Context, action *aiaction.Action) context.Context {
	return WithActor(ctx, action.ProposedBy)
}
