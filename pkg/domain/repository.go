package domain

import (
	"github.com/harborview/governor/pkg/domain/aiaction"
	"github.com/harborview/governor/pkg/domain/aipolicy"
	"github.com/harborview/governor/pkg/domain/dependency"
	"github.com/harborview/governor/pkg/domain/gate"
	"github.com/harborview/governor/pkg/domain/planning"
	"github.com/harborview/governor/pkg/domain/progress"
)

// Repository handles persistence of governed entities. Implementations are
// expected to back onto a relational store with a unique id per entity, a
// foreign key from Task to Initiative, and a foreign key from audit entries
// to actions.
type Repository interface {
	SaveProject(p *gate.Project) error
	GetProject(id string) (*gate.Project, error)

	SaveInitiative(i *planning.Initiative) error
	GetInitiative(id string) (*planning.Initiative, error)
	ListInitiatives(projectID string) ([]*planning.Initiative, error)

	SaveTask(t *planning.Task) error
	GetTask(id string) (*planning.Task, error)
	ListTasks(initiativeID string) ([]*planning.Task, error)
	DeleteTask(id string) error

	SaveEdge(projectID string, e *dependency.Edge) error
	DeleteEdge(projectID, edgeID string) error
	ListEdges(projectID string) ([]*dependency.Edge, error)

	SaveGate(g *gate.StageGate) error
	GetGate(id string) (*gate.StageGate, error)
	ListGates(projectID string) ([]*gate.StageGate, error)
	SaveDecision(d *gate.Decision) error
	GetDecision(id string) (*gate.Decision, error)

	SaveAction(a *aiaction.Action) error
	GetAction(id string) (*aiaction.Action, error)
	ListActions(projectID string, status aiaction.Status) ([]*aiaction.Action, error)

	SavePolicy(cfg *PolicyConfig) error
	LoadPolicy() (*PolicyConfig, error)
}

// PolicyConfig is the externally managed governance configuration: autonomy
// levels, aggregation weights, and optional lifecycle table overrides. It is
// resolved once per request and passed explicitly so every policy decision is
// reproducible from its recorded inputs.
type PolicyConfig struct {
	PlatformCeiling  aipolicy.Level            `yaml:"platform_ceiling" json:"platform_ceiling"`
	OrgLevel         aipolicy.Level            `yaml:"org_level" json:"org_level"`
	ProjectOverrides map[string]aipolicy.Level `yaml:"project_overrides,omitempty" json:"project_overrides,omitempty"`

	// Weights maps task priority to aggregation weight. Empty means defaults.
	Weights map[string]float64 `yaml:"weights,omitempty" json:"weights,omitempty"`

	// Optional lifecycle table overrides. Empty means the built-in tables.
	InitiativeTransitions planning.TransitionTable `yaml:"initiative_transitions,omitempty" json:"initiative_transitions,omitempty"`
	TaskTransitions       planning.TransitionTable `yaml:"task_transitions,omitempty" json:"task_transitions,omitempty"`
}

// DefaultPolicyConfig returns the most restrictive useful configuration:
// assisted autonomy, default weights and lifecycle tables.
func DefaultPolicyConfig() *PolicyConfig {
	return &PolicyConfig{
		PlatformCeiling: aipolicy.LevelAutopilot,
		OrgLevel:        aipolicy.LevelAssisted,
	}
}

// EffectiveLevelFor resolves the effective policy level for a project as the
// minimum of the platform ceiling, org level, and project override.
func (c *PolicyConfig) EffectiveLevelFor(projectID string) aipolicy.Level {
	var override aipolicy.Level
	if c.ProjectOverrides != nil {
		override = c.ProjectOverrides[projectID]
	}
	return aipolicy.EffectiveLevel(c.PlatformCeiling, c.OrgLevel, override)
}

// WeightScale converts the configured weights into an aggregation scale,
// falling back to the defaults when unset.
func (c *PolicyConfig) WeightScale() progress.WeightScale {
	if len(c.Weights) == 0 {
		return progress.DefaultWeightScale()
	}
	scale := progress.DefaultWeightScale()
	for priority, weight := range c.Weights {
		if planning.TaskPriority(priority).IsValid() && weight > 0 {
			scale[planning.TaskPriority(priority)] = weight
		}
	}
	return scale
}

// StatusMachine builds a status machine honoring any configured table
// overrides.
func (c *PolicyConfig) StatusMachine() (*planning.StatusMachine, error) {
	m := planning.NewStatusMachine()
	if len(c.InitiativeTransitions) > 0 {
		if _, err := m.WithTable(planning.KindInitiative, c.InitiativeTransitions); err != nil {
			return nil, err
		}
	}
	if len(c.TaskTransitions) > 0 {
		if _, err := m.WithTable(planning.KindTask, c.TaskTransitions); err != nil {
			return nil, err
		}
	}
	return m, nil
}
