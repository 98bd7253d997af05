package aiaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harborview/governor/pkg/domain/aipolicy"
)

// Action lifecycle errors.
var (
	// ErrActionNotPending indicates a decision was attempted on a decided action.
	ErrActionNotPending = errors.New("action is not pending")
)

// Action is a proposed AI-originated mutation awaiting governance.
type Action struct {
	ID                  string          `json:"id" yaml:"id"`
	ProjectID           string          `json:"project_id" yaml:"project_id"`
	Type                string          `json:"type" yaml:"type"`
	Payload             json.RawMessage `json:"payload" yaml:"payload"`
	RequiredPolicyLevel aipolicy.Level  `json:"required_policy_level" yaml:"required_policy_level"`
	Status              Status          `json:"status" yaml:"status"`
	ProposedBy          string          `json:"proposed_by" yaml:"proposed_by"`
	DecidedBy           string          `json:"decided_by,omitempty" yaml:"decided_by,omitempty"`
	RejectionReason     string          `json:"rejection_reason,omitempty" yaml:"rejection_reason,omitempty"`
	CreatedAt           time.Time       `json:"created_at" yaml:"created_at"`
	DecidedAt           time.Time       `json:"decided_at,omitempty" yaml:"decided_at,omitempty"`
	ExecutedAt          time.Time       `json:"executed_at,omitempty" yaml:"executed_at,omitempty"`
}

// NewAction creates a pending action proposal. The payload must already have
// passed schema validation for its type.
func NewAction(id, projectID, actionType, proposedBy string, payload json.RawMessage) (*Action, error) {
	spec, ok := aipolicy.LookupAction(actionType)
	if !ok {
		return nil, fmt.Errorf("unknown action type: %s", actionType)
	}
	return &Action{
		ID:                  id,
		ProjectID:           projectID,
		Type:                actionType,
		Payload:             payload,
		RequiredPolicyLevel: spec.RequiredLevel,
		Status:              StatusPending,
		ProposedBy:          proposedBy,
		CreatedAt:           time.Now(),
	}, nil
}

// Approve moves a pending action to approved.
func (a *Action) Approve(approverID string) error {
	if !a.Status.IsPending() {
		return fmt.Errorf("%w: action %s is %s", ErrActionNotPending, a.ID, a.Status)
	}
	a.Status = StatusApproved
	a.DecidedBy = approverID
	a.DecidedAt = time.Now()
	return nil
}

// Reject moves a pending action to rejected with a reason.
func (a *Action) Reject(approverID, reason string) error {
	if !a.Status.IsPending() {
		return fmt.Errorf("%w: action %s is %s", ErrActionNotPending, a.ID, a.Status)
	}
	a.Status = StatusRejected
	a.DecidedBy = approverID
	a.RejectionReason = reason
	a.DecidedAt = time.Now()
	return nil
}

// MarkExecuted moves an approved action to executed. No action reaches
// executed without a preceding approved state.
func (a *Action) MarkExecuted() error {
	if a.Status != StatusApproved {
		return fmt.Errorf("only approved actions can execute, action %s is %s", a.ID, a.Status)
	}
	a.Status = StatusExecuted
	a.ExecutedAt = time.Now()
	return nil
}
