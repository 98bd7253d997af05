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

// InitiativeService governs the initiative lifecycle. Status changes go
// through the same validate-audit-commit sequence as tasks; progress is never
// writable here, only derived by the task roll-up.
type InitiativeService struct {
	repo   domain.Repository
	audit  *AuditService
	policy *PolicyService
	locks  *entityLocks
	events *events.Dispatcher
}

func NewInitiativeService(repo domain.Repository, auditSvc *AuditService, policy *PolicyService, dispatcher *events.Dispatcher) *InitiativeService {
	return &InitiativeService{
		repo:   repo,
		audit:  auditSvc,
		policy: policy,
		locks:  newEntityLocks(),
		events: dispatcher,
	}
}

// CreateInitiative creates a draft initiative under a project.
func (s *InitiativeService) CreateInitiative(ctx context.Context, projectID, name string) (*planning.Initiative, error) {
	if name == "" {
		return nil, fmt.Errorf("initiative name is required")
	}
	if _, err := s.repo.GetProject(projectID); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}

	initiative := planning.NewInitiative(uuid.NewString(), projectID, name)
	if err := s.audit.Record(&audit.Entry{
		ProjectID:  projectID,
		Category:   audit.CategoryTransition,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  "initiative created",
		Metadata: map[string]interface{}{
			"initiative_id": initiative.ID,
			"name":          name,
		},
	}); err != nil {
		return nil, err
	}
	if err := s.repo.SaveInitiative(initiative); err != nil {
		return nil, err
	}
	return initiative, nil
}

// ProposeTransition applies one validated initiative status change.
// Transitions into blocked require a reason; leaving blocked clears it.
// Terminal statuses (completed, cancelled) admit no further transitions.
func (s *InitiativeService) ProposeTransition(ctx context.Context, initiativeID string, to planning.InitiativeStatus, tctx planning.TransitionContext) error {
	release := s.locks.acquire("initiative:" + initiativeID)
	defer release()

	initiative, err := s.repo.GetInitiative(initiativeID)
	if err != nil {
		return fmt.Errorf("initiative %s: %w", initiativeID, err)
	}

	machine, err := s.policy.Machine()
	if err != nil {
		return err
	}
	from := initiative.Status
	if err := machine.ValidateTransition(planning.KindInitiative, string(from), string(to), tctx); err != nil {
		return err
	}

	initiative.Status = to
	switch {
	case to == planning.InitiativeBlocked:
		initiative.BlockedReason = tctx.BlockedReason
	case from == planning.InitiativeBlocked:
		initiative.BlockedReason = ""
	}
	initiative.UpdatedAt = nowFn()
	initiative.Version++

	entry := &audit.Entry{
		ProjectID:  initiative.ProjectID,
		Category:   audit.CategoryTransition,
		Actor:      actorOr(tctx.Actor, ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  fmt.Sprintf("initiative status %s -> %s", from, to),
		Metadata: map[string]interface{}{
			"initiative_id": initiativeID,
			"from":          string(from),
			"to":            string(to),
		},
	}
	if to == planning.InitiativeBlocked {
		entry.Metadata["blocked_reason"] = tctx.BlockedReason
	}
	if err := s.audit.Record(entry); err != nil {
		return err
	}
	if err := s.repo.SaveInitiative(initiative); err != nil {
		return err
	}

	if s.events != nil {
		_ = s.events.Dispatch(ctx, events.New(events.TypeInitiativeStatusChanged, initiativeID, map[string]interface{}{
			"from": string(from),
			"to":   string(to),
		}))
	}
	return nil
}

// GetInitiative returns one initiative.
func (s *InitiativeService) GetInitiative(initiativeID string) (*planning.Initiative, error) {
	return s.repo.GetInitiative(initiativeID)
}

// ListInitiatives returns a project's initiatives.
func (s *InitiativeService) ListInitiatives(projectID string) ([]*planning.Initiative, error) {
	return s.repo.ListInitiatives(projectID)
}
