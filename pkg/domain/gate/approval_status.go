package gate

import (
	"encoding/json"
	"fmt"
)

// ApprovalStatus is the lifecycle of a human sign-off decision.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// AllApprovalStatuses returns all valid approval statuses.
func AllApprovalStatuses() []ApprovalStatus {
	return []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalRejected}
}

// IsValid returns true if the status is a valid approval status.
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s ApprovalStatus) String() string {
	return string(s)
}

// IsPending returns true if the status is pending.
func (s ApprovalStatus) IsPending() bool {
	return s == ApprovalPending
}

// IsApproved returns true if the status is approved.
func (s ApprovalStatus) IsApproved() bool {
	return s == ApprovalApproved
}

// IsRejected returns true if the status is rejected.
func (s ApprovalStatus) IsRejected() bool {
	return s == ApprovalRejected
}

// IsFinal returns true if the status is in a final state (approved or rejected).
func (s ApprovalStatus) IsFinal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// CanTransitionTo returns true if a transition to the target status is allowed.
func (s ApprovalStatus) CanTransitionTo(target ApprovalStatus) bool {
	switch s {
	case ApprovalPending:
		return target == ApprovalApproved || target == ApprovalRejected
	case ApprovalApproved, ApprovalRejected:
		// Re-review or re-submit starts from pending again.
		return target == ApprovalPending
	default:
		return false
	}
}

// ParseApprovalStatus parses a string into an ApprovalStatus.
func ParseApprovalStatus(str string) (ApprovalStatus, error) {
	status := ApprovalStatus(str)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid approval status: %s", str)
	}
	return status, nil
}

// MarshalJSON implements json.Marshaler interface.
func (s ApprovalStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (s *ApprovalStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := ApprovalStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid approval status: %s", str)
	}
	*s = status
	return nil
}
