package application

import (
	"fmt"
	"sync"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/aipolicy"
	"github.com/harborview/governor/pkg/domain/planning"
	"github.com/harborview/governor/pkg/domain/progress"
)

// PolicyService resolves governance configuration: autonomy levels, weight
// scales, and lifecycle table overrides. The active config is swapped
// atomically so a live reload never exposes a half-applied policy.
type PolicyService struct {
	mu     sync.RWMutex
	repo   domain.Repository
	active *domain.PolicyConfig
}

func NewPolicyService(repo domain.Repository) (*PolicyService, error) {
	cfg, err := repo.LoadPolicy()
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	return &PolicyService{repo: repo, active: cfg}, nil
}

// Current returns the active configuration.
func (s *PolicyService) Current() *domain.PolicyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Apply validates and activates a new configuration, persisting it. The old
// config stays active when validation fails.
func (s *PolicyService) Apply(cfg *domain.PolicyConfig) error {
	if _, err := cfg.StatusMachine(); err != nil {
		return fmt.Errorf("invalid transition overrides: %w", err)
	}
	if !cfg.PlatformCeiling.IsValid() || !cfg.OrgLevel.IsValid() {
		return fmt.Errorf("invalid policy level in configuration")
	}
	if err := s.repo.SavePolicy(cfg); err != nil {
		return fmt.Errorf("persist policy: %w", err)
	}
	s.mu.Lock()
	s.active = cfg
	s.mu.Unlock()
	return nil
}

// EffectiveLevel resolves the effective autonomy level for a project.
func (s *PolicyService) EffectiveLevel(projectID string) aipolicy.Level {
	return s.Current().EffectiveLevelFor(projectID)
}

// Machine builds the status machine honoring any configured overrides.
func (s *PolicyService) Machine() (*planning.StatusMachine, error) {
	return s.Current().StatusMachine()
}

// Aggregator builds a progress aggregator with the configured weight scale.
func (s *PolicyService) Aggregator() *progress.Aggregator {
	return progress.NewAggregator(s.Current().WeightScale())
}
