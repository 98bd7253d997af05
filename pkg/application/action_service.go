package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/aiaction"
	"github.com/harborview/governor/pkg/domain/aipolicy"
	"github.com/harborview/governor/pkg/domain/audit"
	"github.com/harborview/governor/pkg/domain/events"
)

// AutopilotActor is recorded as the deciding identity when policy, not a
// human, approves an action.
const AutopilotActor = "policy:autopilot"

// ApplyResult is what an action applier reports back after mutating state.
type ApplyResult struct {
	Metadata map[string]interface{}
}

// ApplyFunc executes one approved action type against the governed state.
// Appliers run through the ordinary services, so their mutations carry their
// own audit entries and honor the same invariants as human-driven changes.
type ApplyFunc func(ctx context.Context, action *aiaction.Action) (*ApplyResult, error)

// ActionService is the execution boundary for AI-proposed mutations. Nothing
// an agent proposes touches governed state except through Propose and the
// approval workflow here; every decision point writes to the audit chain
// before the corresponding state commit.
type ActionService struct {
	repo     domain.Repository
	audit    *AuditService
	policy   *PolicyService
	locks    *entityLocks
	events   *events.Dispatcher
	appliers map[string]ApplyFunc
}

func NewActionService(repo domain.Repository, auditSvc *AuditService, policy *PolicyService, dispatcher *events.Dispatcher) *ActionService {
	return &ActionService{
		repo:     repo,
		audit:    auditSvc,
		policy:   policy,
		locks:    newEntityLocks(),
		events:   dispatcher,
		appliers: make(map[string]ApplyFunc),
	}
}

// RegisterApplier binds an action type to its executor. Action types without
// an applier can be proposed and approved but fail at execution.
func (s *ActionService) RegisterApplier(actionType string, fn ApplyFunc) {
	s.appliers[actionType] = fn
}

// Propose submits an AI action for governance. The payload is schema-checked,
// the effective policy level is resolved, and the policy decision is audited
// before anything is persisted; a failed audit append aborts the proposal.
// Denied proposals return a PolicyDeniedError. Allowed mutations either wait
// as pending for a human decision or, at autopilot with the action type on
// the project's allow-list, approve and execute in the same call.
func (s *ActionService) Propose(ctx context.Context, projectID, actionType, proposedBy string, payload json.RawMessage) (*aiaction.Action, error) {
	spec, recognized := aipolicy.LookupAction(actionType)
	payloadValid := false
	if recognized {
		payloadValid = aipolicy.ValidatePayload(actionType, payload) == nil
	}

	project, err := s.repo.GetProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	effective := s.policy.EffectiveLevel(projectID)

	signals := audit.Signals{
		PolicyResolved:   true,
		ActionRecognized: recognized,
		PayloadValid:     payloadValid,
		ContextComplete:  proposedBy != "",
	}
	confidence := audit.ComputeConfidence(signals)

	if !recognized {
		if err := s.recordPolicyCheck(projectID, "", actionType, proposedBy, effective, confidence,
			"proposal rejected: unknown action type", false); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unknown action type: %s", actionType)
	}
	if !payloadValid {
		if err := s.recordPolicyCheck(projectID, "", actionType, proposedBy, effective, confidence,
			"proposal rejected: payload failed schema validation", false); err != nil {
			return nil, err
		}
		return nil, aipolicy.ValidatePayload(actionType, payload)
	}

	decision := aipolicy.CanPerformAction(effective, spec, project.AllowedAIActions)
	if !decision.Allowed {
		if err := s.recordPolicyCheck(projectID, "", actionType, proposedBy, effective, confidence, decision.Reason, false); err != nil {
			return nil, err
		}
		return nil, &aipolicy.PolicyDeniedError{ActionType: actionType, Level: effective}
	}

	action, err := aiaction.NewAction(uuid.NewString(), projectID, actionType, proposedBy, payload)
	if err != nil {
		return nil, err
	}
	if err := s.recordPolicyCheck(projectID, action.ID, actionType, proposedBy, effective, confidence, decision.Reason, true); err != nil {
		return nil, err
	}
	if err := s.repo.SaveAction(action); err != nil {
		return nil, err
	}

	if decision.RequiresApproval {
		s.dispatch(ctx, events.New(events.TypeActionPendingApproval, action.ID, map[string]interface{}{
			"project_id": projectID,
			"type":       actionType,
		}))
		return action, nil
	}

	// No human in the loop: read/recommend actions at any level, and
	// allow-listed mutations at autopilot, approve and execute in this call.
	if err := s.Approve(ctx, action.ID, AutopilotActor); err != nil {
		return nil, err
	}
	return s.repo.GetAction(action.ID)
}

// Approve moves a pending action to approved and executes it. Approving an
// executed action is a no-op, so a retried approval cannot double-execute.
// An action left approved by a failed execution re-attempts the execution
// without recording a second decision. Rejected actions stay rejected.
func (s *ActionService) Approve(ctx context.Context, actionID, approverID string) error {
	release := s.locks.acquire(actionLockKey(actionID))
	defer release()

	action, err := s.repo.GetAction(actionID)
	if err != nil {
		return fmt.Errorf("action %s: %w", actionID, err)
	}
	switch action.Status {
	case aiaction.StatusExecuted:
		return nil
	case aiaction.StatusApproved:
		return s.execute(ctx, action)
	case aiaction.StatusRejected:
		return fmt.Errorf("%w: action %s is rejected", aiaction.ErrActionNotPending, actionID)
	}

	if err := action.Approve(approverID); err != nil {
		return err
	}
	if err := s.audit.Record(&audit.Entry{
		ProjectID:   action.ProjectID,
		ActionID:    action.ID,
		Category:    audit.CategoryActionDecided,
		Actor:       approverID,
		PolicyLevel: s.policy.EffectiveLevel(action.ProjectID),
		Confidence:  audit.ConfidenceHigh,
		Rationale:   "action approved",
		Metadata: map[string]interface{}{
			"type":        action.Type,
			"proposed_by": action.ProposedBy,
		},
	}); err != nil {
		return err
	}
	if err := s.repo.SaveAction(action); err != nil {
		return err
	}
	return s.execute(ctx, action)
}

// Reject moves a pending action to rejected. Terminal: the action never runs.
func (s *ActionService) Reject(ctx context.Context, actionID, approverID, reason string) error {
	release := s.locks.acquire(actionLockKey(actionID))
	defer release()

	action, err := s.repo.GetAction(actionID)
	if err != nil {
		return fmt.Errorf("action %s: %w", actionID, err)
	}
	if action.Status == aiaction.StatusRejected {
		return nil
	}
	if err := action.Reject(approverID, reason); err != nil {
		return err
	}
	if err := s.audit.Record(&audit.Entry{
		ProjectID:   action.ProjectID,
		ActionID:    action.ID,
		Category:    audit.CategoryActionDecided,
		Actor:       approverID,
		PolicyLevel: s.policy.EffectiveLevel(action.ProjectID),
		Confidence:  audit.ConfidenceHigh,
		Rationale:   "action rejected",
		Metadata: map[string]interface{}{
			"type":   action.Type,
			"reason": reason,
		},
	}); err != nil {
		return err
	}
	return s.repo.SaveAction(action)
}

// GetAction returns one action.
func (s *ActionService) GetAction(actionID string) (*aiaction.Action, error) {
	return s.repo.GetAction(actionID)
}

// ListActions returns a project's actions, optionally filtered by status.
func (s *ActionService) ListActions(projectID string, status aiaction.Status) ([]*aiaction.Action, error) {
	return s.repo.ListActions(projectID, status)
}

// execute runs the applier for an approved action. The applier's own
// mutations audit-then-commit through the regular services; when the audit
// store is failing, the applier errors out before any state changes and the
// action stays approved for a later retry.
func (s *ActionService) execute(ctx context.Context, action *aiaction.Action) error {
	applier, ok := s.appliers[action.Type]
	if !ok {
		return fmt.Errorf("no applier registered for action type %s", action.Type)
	}

	result, err := applier(ctx, action)
	if err != nil {
		return fmt.Errorf("execute %s: %w", action.Type, err)
	}

	if err := action.MarkExecuted(); err != nil {
		return err
	}
	metadata := map[string]interface{}{"type": action.Type}
	if result != nil {
		for k, v := range result.Metadata {
			metadata[k] = v
		}
	}
	if err := s.audit.Record(&audit.Entry{
		ProjectID:   action.ProjectID,
		ActionID:    action.ID,
		Category:    audit.CategoryActionRun,
		Actor:       action.DecidedBy,
		PolicyLevel: s.policy.EffectiveLevel(action.ProjectID),
		Confidence:  audit.ConfidenceHigh,
		Rationale:   "action executed",
		Metadata:    metadata,
	}); err != nil {
		return err
	}
	if err := s.repo.SaveAction(action); err != nil {
		return err
	}
	s.dispatch(ctx, events.New(events.TypeActionExecuted, action.ID, map[string]interface{}{
		"project_id": action.ProjectID,
		"type":       action.Type,
	}))
	return nil
}

// recordPolicyCheck puts the propose-time policy decision on the audit chain.
// The caller must treat a failure as fatal for the proposal: a governed
// decision without its record never commits.
func (s *ActionService) recordPolicyCheck(projectID, actionID, actionType, actor string, level aipolicy.Level, confidence audit.Confidence, reason string, allowed bool) error {
	return s.audit.Record(&audit.Entry{
		ProjectID:   projectID,
		ActionID:    actionID,
		Category:    audit.CategoryPolicyCheck,
		Actor:       actor,
		PolicyLevel: level,
		Confidence:  confidence,
		Rationale:   reason,
		Metadata: map[string]interface{}{
			"type":    actionType,
			"allowed": allowed,
		},
	})
}

func (s *ActionService) dispatch(ctx context.Context, e events.BaseEvent) {
	if s.events != nil {
		_ = s.events.Dispatch(ctx, e)
	}
}
