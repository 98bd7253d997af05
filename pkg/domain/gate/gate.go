// Package gate implements stage-gate evaluation: checklist-gated checkpoints
// that must pass before a project's lifecycle phase advances. Flipping a
// gate's status is the only mechanism allowed to change a project's phase.
package gate

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the evaluation state of a stage gate.
type Status string

const (
	// StatusNotReady means at least one criterion is unmet.
	StatusNotReady Status = "not_ready"
	// StatusReady means every criterion is met and human sign-off is outstanding.
	StatusReady Status = "ready"
	// StatusPassed is terminal for the gate instance and the sole precondition
	// for advancing the project phase.
	StatusPassed Status = "passed"
	// StatusFailed means the associated decision was rejected.
	StatusFailed Status = "failed"
)

// AllStatuses returns all valid gate statuses.
func AllStatuses() []Status {
	return []Status{StatusNotReady, StatusReady, StatusPassed, StatusFailed}
}

// IsValid returns true if the status is a valid gate status.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotReady, StatusReady, StatusPassed, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsPassed returns true once the gate has passed.
func (s Status) IsPassed() bool {
	return s == StatusPassed
}

// MarshalJSON implements json.Marshaler interface.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := Status(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid gate status: %s", str)
	}
	*s = status
	return nil
}

// Criterion is one completion check on a gate's checklist.
type Criterion struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	IsMet       bool   `json:"is_met" yaml:"is_met"`
	Evidence    string `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// Decision is the human sign-off attached to a gate that requires approval.
// The gate and the decision are two separate objects; a gate only passes
// through its decision reaching approved.
type Decision struct {
	ID         string         `json:"id" yaml:"id"`
	GateID     string         `json:"gate_id" yaml:"gate_id"`
	ApproverID string         `json:"approver_id,omitempty" yaml:"approver_id,omitempty"`
	Status     ApprovalStatus `json:"status" yaml:"status"`
	Reason     string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	DecidedAt  time.Time      `json:"decided_at,omitempty" yaml:"decided_at,omitempty"`
}

// NewDecision creates a pending decision for a gate.
func NewDecision(id, gateID string) *Decision {
	return &Decision{ID: id, GateID: gateID, Status: ApprovalPending}
}

// Approve records the approver's sign-off.
func (d *Decision) Approve(approverID string) error {
	if !d.Status.CanTransitionTo(ApprovalApproved) {
		return fmt.Errorf("decision is already %s", d.Status)
	}
	d.Status = ApprovalApproved
	d.ApproverID = approverID
	d.DecidedAt = time.Now()
	return nil
}

// Reject records the approver's rejection with a reason.
func (d *Decision) Reject(approverID, reason string) error {
	if !d.Status.CanTransitionTo(ApprovalRejected) {
		return fmt.Errorf("decision is already %s", d.Status)
	}
	d.Status = ApprovalRejected
	d.ApproverID = approverID
	d.Reason = reason
	d.DecidedAt = time.Now()
	return nil
}

// StageGate ties a fromPhase/toPhase pair to a checklist of completion
// criteria plus an optional human approval requirement.
type StageGate struct {
	ID               string      `json:"id" yaml:"id"`
	ProjectID        string      `json:"project_id" yaml:"project_id"`
	FromPhase        string      `json:"from_phase" yaml:"from_phase"`
	ToPhase          string      `json:"to_phase" yaml:"to_phase"`
	Criteria         []Criterion `json:"criteria" yaml:"criteria"`
	RequiresApproval bool        `json:"requires_approval" yaml:"requires_approval"`
	Status           Status      `json:"status" yaml:"status"`
	DecisionID       string      `json:"decision_id,omitempty" yaml:"decision_id,omitempty"`
	PassedAt         time.Time   `json:"passed_at,omitempty" yaml:"passed_at,omitempty"`
}

// NewStageGate creates a gate in the not_ready state.
func NewStageGate(id, projectID, fromPhase, toPhase string, criteria []Criterion, requiresApproval bool) *StageGate {
	return &StageGate{
		ID:               id,
		ProjectID:        projectID,
		FromPhase:        fromPhase,
		ToPhase:          toPhase,
		Criteria:         criteria,
		RequiresApproval: requiresApproval,
		Status:           StatusNotReady,
	}
}

// UnmetCriteria returns the criteria still outstanding.
func (g *StageGate) UnmetCriteria() []Criterion {
	var unmet []Criterion
	for _, c := range g.Criteria {
		if !c.IsMet {
			unmet = append(unmet, c)
		}
	}
	return unmet
}

// MarkCriterion records a criterion result with its evidence.
func (g *StageGate) MarkCriterion(criterionID string, met bool, evidence string) error {
	for i := range g.Criteria {
		if g.Criteria[i].ID == criterionID {
			g.Criteria[i].IsMet = met
			g.Criteria[i].Evidence = evidence
			return nil
		}
	}
	return fmt.Errorf("criterion not found: %s", criterionID)
}

// Evaluate recomputes the gate status from its criteria and, when approval is
// required, the associated decision. Passed is terminal: re-evaluation never
// demotes a passed gate.
func (g *StageGate) Evaluate(decision *Decision) Status {
	if g.Status == StatusPassed {
		return g.Status
	}

	if len(g.UnmetCriteria()) > 0 {
		g.Status = StatusNotReady
		return g.Status
	}

	if !g.RequiresApproval {
		g.pass()
		return g.Status
	}

	if decision == nil || decision.Status.IsPending() {
		g.Status = StatusReady
		return g.Status
	}
	if decision.Status.IsRejected() {
		g.Status = StatusFailed
		return g.Status
	}

	g.DecisionID = decision.ID
	g.pass()
	return g.Status
}

func (g *StageGate) pass() {
	g.Status = StatusPassed
	g.PassedAt = time.Now()
}

// Reopen reverts a passed gate for a governed phase rollback. Callers must
// have checked the project's governance settings first.
func (g *StageGate) Reopen() error {
	if g.Status != StatusPassed {
		return fmt.Errorf("only a passed gate can be reopened, gate is %s", g.Status)
	}
	g.Status = StatusReady
	g.PassedAt = time.Time{}
	g.DecisionID = ""
	return nil
}
