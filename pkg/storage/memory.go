// Package storage provides the persistence implementations for the
// governance engine: an in-memory repository for tests and embedding, and a
// SQLite-backed relational store.
package storage

import (
	"sort"
	"sync"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/aiaction"
	"github.com/harborview/governor/pkg/domain/audit"
	"github.com/harborview/governor/pkg/domain/dependency"
	"github.com/harborview/governor/pkg/domain/gate"
	"github.com/harborview/governor/pkg/domain/planning"
)

// MemoryRepository is an in-memory implementation of domain.Repository and
// audit.Store. Entity maps are guarded by a single RWMutex; callers layer
// entity-scoped serialization on top.
type MemoryRepository struct {
	mu          sync.RWMutex
	projects    map[string]gate.Project
	initiatives map[string]planning.Initiative
	tasks       map[string]planning.Task
	edges       map[string][]*dependency.Edge
	gates       map[string]gate.StageGate
	decisions   map[string]gate.Decision
	actions     map[string]aiaction.Action
	policy      *domain.PolicyConfig
	auditLog    []*audit.Entry

	// FailAuditAppend forces Append to fail, for exercising rollback paths in tests.
	FailAuditAppend bool
}

var _ domain.Repository = (*MemoryRepository)(nil)
var _ audit.Store = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects:    make(map[string]gate.Project),
		initiatives: make(map[string]planning.Initiative),
		tasks:       make(map[string]planning.Task),
		edges:       make(map[string][]*dependency.Edge),
		gates:       make(map[string]gate.StageGate),
		decisions:   make(map[string]gate.Decision),
		actions:     make(map[string]aiaction.Action),
	}
}

func (r *MemoryRepository) SaveProject(p *gate.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = *p
	return nil
}

func (r *MemoryRepository) GetProject(id string) (*gate.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) SaveInitiative(i *planning.Initiative) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initiatives[i.ID] = *i
	return nil
}

func (r *MemoryRepository) GetInitiative(id string) (*planning.Initiative, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.initiatives[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &i, nil
}

func (r *MemoryRepository) ListInitiatives(projectID string) ([]*planning.Initiative, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*planning.Initiative
	for _, i := range r.initiatives {
		if i.ProjectID == projectID {
			copied := i
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ID < result[b].ID })
	return result, nil
}

func (r *MemoryRepository) SaveTask(t *planning.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = *t
	return nil
}

func (r *MemoryRepository) GetTask(id string) (*planning.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) ListTasks(initiativeID string) ([]*planning.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*planning.Task
	for _, t := range r.tasks {
		if t.InitiativeID == initiativeID {
			copied := t
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ID < result[b].ID })
	return result, nil
}

func (r *MemoryRepository) DeleteTask(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepository) SaveEdge(projectID string, e *dependency.Edge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *e
	r.edges[projectID] = append(r.edges[projectID], &copied)
	return nil
}

func (r *MemoryRepository) DeleteEdge(projectID, edgeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	edges := r.edges[projectID]
	for i, e := range edges {
		if e.ID == edgeID {
			r.edges[projectID] = append(edges[:i], edges[i+1:]...)
			return nil
		}
	}
	return dependency.ErrEdgeNotFound
}

func (r *MemoryRepository) ListEdges(projectID string) ([]*dependency.Edge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	edges := r.edges[projectID]
	result := make([]*dependency.Edge, 0, len(edges))
	for _, e := range edges {
		copied := *e
		result = append(result, &copied)
	}
	return result, nil
}

func (r *MemoryRepository) SaveGate(g *gate.StageGate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *g
	copied.Criteria = append([]gate.Criterion(nil), g.Criteria...)
	r.gates[g.ID] = copied
	return nil
}

func (r *MemoryRepository) GetGate(id string) (*gate.StageGate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	g.Criteria = append([]gate.Criterion(nil), g.Criteria...)
	return &g, nil
}

func (r *MemoryRepository) ListGates(projectID string) ([]*gate.StageGate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*gate.StageGate
	for _, g := range r.gates {
		if g.ProjectID == projectID {
			copied := g
			copied.Criteria = append([]gate.Criterion(nil), g.Criteria...)
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ID < result[b].ID })
	return result, nil
}

func (r *MemoryRepository) SaveDecision(d *gate.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions[d.ID] = *d
	return nil
}

func (r *MemoryRepository) GetDecision(id string) (*gate.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decisions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (r *MemoryRepository) SaveAction(a *aiaction.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a.ID] = *a
	return nil
}

func (r *MemoryRepository) GetAction(id string) (*aiaction.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) ListActions(projectID string, status aiaction.Status) ([]*aiaction.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*aiaction.Action
	for _, a := range r.actions {
		if projectID != "" && a.ProjectID != projectID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		copied := a
		result = append(result, &copied)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ID < result[b].ID })
	return result, nil
}

func (r *MemoryRepository) SavePolicy(cfg *domain.PolicyConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *cfg
	r.policy = &copied
	return nil
}

func (r *MemoryRepository) LoadPolicy() (*domain.PolicyConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.policy == nil {
		return domain.DefaultPolicyConfig(), nil
	}
	copied := *r.policy
	return &copied, nil
}

// Append implements audit.Store. The log is strictly append-only.
func (r *MemoryRepository) Append(entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAuditAppend {
		return domain.ErrAuditWriteFailed
	}
	copied := *entry
	r.auditLog = append(r.auditLog, &copied)
	return nil
}

// List implements audit.Store.
func (r *MemoryRepository) List(filter audit.Filter) ([]*audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*audit.Entry
	for _, e := range r.auditLog {
		if filter.Matches(e) {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

// Last implements audit.Store.
func (r *MemoryRepository) Last() (*audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.auditLog) == 0 {
		return nil, nil
	}
	copied := *r.auditLog[len(r.auditLog)-1]
	return &copied, nil
}

// TamperEntry overwrites a stored entry in place, simulating a direct edit
// behind the store's back. Test hook for integrity verification; the Store
// surface itself has no mutation path.
func (r *MemoryRepository) TamperEntry(index int, entry *audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index >= 0 && index < len(r.auditLog) {
		copied := *entry
		r.auditLog[index] = &copied
	}
}

// Count implements audit.Store.
func (r *MemoryRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.auditLog), nil
}
