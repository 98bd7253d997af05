package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/audit"
	"github.com/harborview/governor/pkg/domain/events"
	"github.com/harborview/governor/pkg/domain/gate"
)

// GateService runs stage-gate evaluation and phase control. Passing a gate is
// the only path to a phase advance; rollback re-opens the prior gate and is
// gated by the project's governance settings.
type GateService struct {
	repo   domain.Repository
	audit  *AuditService
	locks  *entityLocks
	events *events.Dispatcher
}

func NewGateService(repo domain.Repository, auditSvc *AuditService, dispatcher *events.Dispatcher) *GateService {
	return &GateService{
		repo:   repo,
		audit:  auditSvc,
		locks:  newEntityLocks(),
		events: dispatcher,
	}
}

// CreateGate creates a gate between two phases of a project.
func (s *GateService) CreateGate(ctx context.Context, projectID, fromPhase, toPhase string, criteria []gate.Criterion, requiresApproval bool) (*gate.StageGate, error) {
	if _, err := s.repo.GetProject(projectID); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	g := gate.NewStageGate(uuid.NewString(), projectID, fromPhase, toPhase, criteria, requiresApproval)
	if err := s.repo.SaveGate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// MarkCriterion records a criterion result with evidence and re-evaluates the
// gate. Evaluation never demotes a passed gate.
func (s *GateService) MarkCriterion(ctx context.Context, gateID, criterionID string, met bool, evidence string) (gate.Status, error) {
	g, err := s.repo.GetGate(gateID)
	if err != nil {
		return "", fmt.Errorf("gate %s: %w", gateID, err)
	}
	release := s.locks.acquire(gateLockKey(g.ProjectID))
	defer release()

	g, err = s.repo.GetGate(gateID)
	if err != nil {
		return "", err
	}
	if err := g.MarkCriterion(criterionID, met, evidence); err != nil {
		return "", err
	}
	return s.evaluateAndSave(ctx, g, "criterion marked", map[string]interface{}{
		"criterion_id": criterionID,
		"is_met":       met,
		"evidence":     evidence,
	})
}

// Evaluate recomputes a gate's status from its criteria and decision.
func (s *GateService) Evaluate(ctx context.Context, gateID string) (gate.Status, error) {
	g, err := s.repo.GetGate(gateID)
	if err != nil {
		return "", fmt.Errorf("gate %s: %w", gateID, err)
	}
	release := s.locks.acquire(gateLockKey(g.ProjectID))
	defer release()

	g, err = s.repo.GetGate(gateID)
	if err != nil {
		return "", err
	}
	return s.evaluateAndSave(ctx, g, "gate evaluated", nil)
}

// Decide records a human sign-off on a gate that requires approval, then
// re-evaluates it. The decision is its own immutable-once-decided object.
func (s *GateService) Decide(ctx context.Context, gateID, approverID string, approve bool, reason string) (gate.Status, error) {
	g, err := s.repo.GetGate(gateID)
	if err != nil {
		return "", fmt.Errorf("gate %s: %w", gateID, err)
	}
	release := s.locks.acquire(gateLockKey(g.ProjectID))
	defer release()

	g, err = s.repo.GetGate(gateID)
	if err != nil {
		return "", err
	}
	if !g.RequiresApproval {
		return "", fmt.Errorf("gate %s does not require approval", gateID)
	}
	if len(g.UnmetCriteria()) > 0 {
		return "", fmt.Errorf("gate %s is not ready: criteria outstanding", gateID)
	}

	decision := gate.NewDecision(uuid.NewString(), gateID)
	if approve {
		err = decision.Approve(approverID)
	} else {
		err = decision.Reject(approverID, reason)
	}
	if err != nil {
		return "", err
	}
	if err := s.repo.SaveDecision(decision); err != nil {
		return "", err
	}
	return s.evaluateAndSaveWith(ctx, g, decision, "gate decided", map[string]interface{}{
		"decision_id": decision.ID,
		"approver_id": approverID,
		"approved":    approve,
		"reason":      reason,
	})
}

// AdvancePhase moves a project to the gate's target phase. The gate must have
// passed and must start at the project's current phase.
func (s *GateService) AdvancePhase(ctx context.Context, projectID, gateID string) (*gate.Project, error) {
	release := s.locks.acquire(gateLockKey(projectID))
	defer release()

	project, err := s.repo.GetProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	g, err := s.repo.GetGate(gateID)
	if err != nil {
		return nil, fmt.Errorf("gate %s: %w", gateID, err)
	}

	fromPhase := project.CurrentPhase
	if err := project.AdvancePhase(g); err != nil {
		return nil, err
	}
	if err := s.audit.Record(&audit.Entry{
		ProjectID:  projectID,
		Category:   audit.CategoryGate,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  fmt.Sprintf("phase advanced %s -> %s", fromPhase, project.CurrentPhase),
		Metadata: map[string]interface{}{
			"gate_id":    gateID,
			"from_phase": fromPhase,
			"to_phase":   project.CurrentPhase,
		},
	}); err != nil {
		return nil, err
	}
	if err := s.repo.SaveProject(project); err != nil {
		return nil, err
	}
	s.dispatch(ctx, events.New(events.TypeProjectPhaseChanged, projectID, map[string]interface{}{
		"from_phase": fromPhase,
		"to_phase":   project.CurrentPhase,
	}))
	return project, nil
}

// RollbackPhase reverts a project to the prior gate's starting phase,
// re-opening that gate. Requires the project's governance settings to allow
// rollback.
func (s *GateService) RollbackPhase(ctx context.Context, projectID, priorGateID string) (*gate.Project, error) {
	release := s.locks.acquire(gateLockKey(projectID))
	defer release()

	project, err := s.repo.GetProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	prior, err := s.repo.GetGate(priorGateID)
	if err != nil {
		return nil, fmt.Errorf("gate %s: %w", priorGateID, err)
	}

	fromPhase := project.CurrentPhase
	if err := project.RollbackPhase(prior); err != nil {
		return nil, err
	}
	if err := s.audit.Record(&audit.Entry{
		ProjectID:  projectID,
		Category:   audit.CategoryGate,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  fmt.Sprintf("phase rolled back %s -> %s", fromPhase, project.CurrentPhase),
		Metadata: map[string]interface{}{
			"gate_id":    priorGateID,
			"from_phase": fromPhase,
			"to_phase":   project.CurrentPhase,
		},
	}); err != nil {
		return nil, err
	}
	if err := s.repo.SaveGate(prior); err != nil {
		return nil, err
	}
	if err := s.repo.SaveProject(project); err != nil {
		return nil, err
	}
	s.dispatch(ctx, events.New(events.TypeProjectPhaseChanged, projectID, map[string]interface{}{
		"from_phase": fromPhase,
		"to_phase":   project.CurrentPhase,
		"rollback":   true,
	}))
	return project, nil
}

// GetGate returns one gate.
func (s *GateService) GetGate(gateID string) (*gate.StageGate, error) {
	return s.repo.GetGate(gateID)
}

// ListGates returns a project's gates.
func (s *GateService) ListGates(projectID string) ([]*gate.StageGate, error) {
	return s.repo.ListGates(projectID)
}

func (s *GateService) evaluateAndSave(ctx context.Context, g *gate.StageGate, rationale string, metadata map[string]interface{}) (gate.Status, error) {
	var decision *gate.Decision
	if g.RequiresApproval && g.DecisionID != "" {
		d, err := s.repo.GetDecision(g.DecisionID)
		if err == nil {
			decision = d
		}
	}
	return s.evaluateAndSaveWith(ctx, g, decision, rationale, metadata)
}

func (s *GateService) evaluateAndSaveWith(ctx context.Context, g *gate.StageGate, decision *gate.Decision, rationale string, metadata map[string]interface{}) (gate.Status, error) {
	before := g.Status
	after := g.Evaluate(decision)
	if after == before {
		if err := s.repo.SaveGate(g); err != nil {
			return "", err
		}
		return after, nil
	}

	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["gate_id"] = g.ID
	metadata["from"] = string(before)
	metadata["to"] = string(after)
	if err := s.audit.Record(&audit.Entry{
		ProjectID:  g.ProjectID,
		Category:   audit.CategoryGate,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  rationale,
		Metadata:   metadata,
	}); err != nil {
		return "", err
	}
	if err := s.repo.SaveGate(g); err != nil {
		return "", err
	}
	s.dispatch(ctx, events.New(events.TypeGateStatusChanged, g.ID, map[string]interface{}{
		"from": string(before),
		"to":   string(after),
	}))
	return after, nil
}

func (s *GateService) dispatch(ctx context.Context, e events.BaseEvent) {
	if s.events != nil {
		_ = s.events.Dispatch(ctx, e)
	}
}
