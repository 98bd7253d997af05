package application

import (
	"context"
	"fmt"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/audit"
	"github.com/harborview/governor/pkg/domain/dependency"
	"github.com/harborview/governor/pkg/domain/events"
)

// DependencyService manages the per-project dependency graph. The cycle
// check and the insert run under one graph-level lock, so a cycle can never
// slip in between validation and persistence.
type DependencyService struct {
	repo   domain.Repository
	audit  *AuditService
	locks  *entityLocks
	events *events.Dispatcher
}

func NewDependencyService(repo domain.Repository, auditSvc *AuditService, dispatcher *events.Dispatcher) *DependencyService {
	return &DependencyService{
		repo:   repo,
		audit:  auditSvc,
		locks:  newEntityLocks(),
		events: dispatcher,
	}
}

// AddDependency adds an edge to a project's graph. Hard edges that would
// close a cycle are rejected atomically with the cycle path in the error.
func (s *DependencyService) AddDependency(ctx context.Context, projectID, fromID, toID string, edgeType dependency.EdgeType) (*dependency.Edge, error) {
	release := s.locks.acquire(graphLockKey(projectID))
	defer release()

	edges, err := s.repo.ListEdges(projectID)
	if err != nil {
		return nil, err
	}
	graph := dependency.FromEdges(projectID, edges)
	edge, err := graph.AddEdge(fromID, toID, edgeType)
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(&audit.Entry{
		ProjectID:  projectID,
		Category:   audit.CategoryDependency,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  "dependency added",
		Metadata: map[string]interface{}{
			"edge_id": edge.ID,
			"from":    fromID,
			"to":      toID,
			"type":    string(edgeType),
		},
	}); err != nil {
		return nil, err
	}
	if err := s.repo.SaveEdge(projectID, edge); err != nil {
		return nil, err
	}
	return edge, nil
}

// RemoveDependency deletes an edge from a project's graph.
func (s *DependencyService) RemoveDependency(ctx context.Context, projectID, edgeID string) error {
	release := s.locks.acquire(graphLockKey(projectID))
	defer release()

	if err := s.audit.Record(&audit.Entry{
		ProjectID:  projectID,
		Category:   audit.CategoryDependency,
		Actor:      actorFrom(ctx),
		Confidence: audit.ConfidenceHigh,
		Rationale:  "dependency removed",
		Metadata:   map[string]interface{}{"edge_id": edgeID},
	}); err != nil {
		return err
	}
	return s.repo.DeleteEdge(projectID, edgeID)
}

// ListDependencies returns all edges of a project's graph.
func (s *DependencyService) ListDependencies(projectID string) ([]*dependency.Edge, error) {
	return s.repo.ListEdges(projectID)
}

// DetectDeadlocks scans the project graph for hard-edge cycles. A non-empty
// result means prior data (imports, migrations) introduced cycles that the
// insert-time check could not have admitted.
func (s *DependencyService) DetectDeadlocks(ctx context.Context, projectID string) ([][]string, error) {
	edges, err := s.repo.ListEdges(projectID)
	if err != nil {
		return nil, err
	}
	cycles := dependency.FromEdges(projectID, edges).DetectDeadlocks()
	if len(cycles) > 0 && s.events != nil {
		_ = s.events.Dispatch(ctx, events.New(events.TypeDeadlockDetected, projectID, map[string]interface{}{
			"cycles": cycles,
		}))
	}
	return cycles, nil
}

// ExecutionOrder returns a topological order of the hard-edge graph, or an
// error when cycles make one impossible.
func (s *DependencyService) ExecutionOrder(projectID string) ([]string, error) {
	edges, err := s.repo.ListEdges(projectID)
	if err != nil {
		return nil, err
	}
	order, err := dependency.FromEdges(projectID, edges).TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	return order, nil
}

// Summary returns edge and node counts for a project's graph.
func (s *DependencyService) Summary(projectID string) (*dependency.Summary, error) {
	edges, err := s.repo.ListEdges(projectID)
	if err != nil {
		return nil, err
	}
	summary := dependency.FromEdges(projectID, edges).GetSummary()
	return &summary, nil
}
