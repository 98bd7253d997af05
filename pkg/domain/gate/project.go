package gate

import (
	"errors"
	"fmt"
)

// Phase control errors.
var (
	// ErrGateNotPassed indicates a phase advance attempted before the gate passed.
	ErrGateNotPassed = errors.New("stage gate has not passed")
	// ErrPhaseMismatch indicates the gate does not start at the project's current phase.
	ErrPhaseMismatch = errors.New("gate does not match current phase")
	// ErrRollbackNotAllowed indicates phase rollback is disabled for the project.
	ErrRollbackNotAllowed = errors.New("phase rollback is not allowed for this project")
)

// GovernanceSettings holds the per-project governance toggles.
type GovernanceSettings struct {
	AllowPhaseRollback bool `json:"allow_phase_rollback" yaml:"allow_phase_rollback"`
}

// Project tracks the lifecycle phase controlled by stage gates.
type Project struct {
	ID               string             `json:"id" yaml:"id"`
	Name             string             `json:"name" yaml:"name"`
	CurrentPhase     string             `json:"current_phase" yaml:"current_phase"`
	Governance       GovernanceSettings `json:"governance" yaml:"governance"`
	AllowedAIActions []string           `json:"allowed_ai_actions,omitempty" yaml:"allowed_ai_actions,omitempty"`
}

// AdvancePhase moves the project to the gate's target phase. The gate must
// have passed and must start at the project's current phase; there is no
// other path to a phase change.
func (p *Project) AdvancePhase(g *StageGate) error {
	if !g.Status.IsPassed() {
		return fmt.Errorf("%w: gate %s is %s", ErrGateNotPassed, g.ID, g.Status)
	}
	if g.FromPhase != p.CurrentPhase {
		return fmt.Errorf("%w: gate covers %s -> %s but project is in %s",
			ErrPhaseMismatch, g.FromPhase, g.ToPhase, p.CurrentPhase)
	}
	p.CurrentPhase = g.ToPhase
	return nil
}

// RollbackPhase re-opens the prior gate and returns the project to that
// gate's starting phase. Allowed only when governance settings permit it.
func (p *Project) RollbackPhase(prior *StageGate) error {
	if !p.Governance.AllowPhaseRollback {
		return ErrRollbackNotAllowed
	}
	if prior.ToPhase != p.CurrentPhase {
		return fmt.Errorf("%w: gate targets %s but project is in %s",
			ErrPhaseMismatch, prior.ToPhase, p.CurrentPhase)
	}
	if err := prior.Reopen(); err != nil {
		return err
	}
	p.CurrentPhase = prior.FromPhase
	return nil
}
