package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/aipolicy"
	"github.com/harborview/governor/pkg/domain/audit"
	"github.com/harborview/governor/pkg/domain/gate"
)

// ProjectService manages project records and their governance settings.
type ProjectService struct {
	repo  domain.Repository
	audit *AuditService
}

func NewProjectService(repo domain.Repository, auditSvc *AuditService) *ProjectService {
	return &ProjectService{repo: repo, audit: auditSvc}
}

// CreateProject creates a project starting in the given phase.
func (s *ProjectService) CreateProject(ctx context.Context, name, initialPhase string) (*gate.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if initialPhase == "" {
		initialPhase = "discovery"
	}
	project := &gate.Project{
		ID:           uuid.NewString(),
		Name:         name,
		CurrentPhase: initialPhase,
	}
	if err := s.repo.SaveProject(project); err != nil {
		return nil, err
	}
	return project, nil
}

// SetAllowedAIActions replaces the project's unattended allow-list. Unknown
// action types are rejected so a typo cannot silently widen autonomy.
func (s *ProjectService) SetAllowedAIActions(ctx context.Context, projectID string, actionTypes []string) error {
	for _, t := range actionTypes {
		if _, ok := aipolicy.LookupAction(t); !ok {
			return fmt.Errorf("unknown action type: %s", t)
		}
	}
	project, err := s.repo.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("project %s: %w", projectID, err)
	}
	project.AllowedAIActions = actionTypes
	if err := s.audit.Record(&audit.Entry{
		ProjectID:  projectID,
		Category:   audit.CategoryPolicyCheck,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  "unattended allow-list updated",
		Metadata:   map[string]interface{}{"allowed_actions": actionTypes},
	}); err != nil {
		return err
	}
	return s.repo.SaveProject(project)
}

// SetPhaseRollback toggles whether phase rollback is permitted.
func (s *ProjectService) SetPhaseRollback(ctx context.Context, projectID string, allow bool) error {
	project, err := s.repo.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("project %s: %w", projectID, err)
	}
	project.Governance.AllowPhaseRollback = allow
	return s.repo.SaveProject(project)
}

// GetProject returns one project.
func (s *ProjectService) GetProject(projectID string) (*gate.Project, error) {
	return s.repo.GetProject(projectID)
}
