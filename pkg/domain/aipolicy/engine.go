package aipolicy

import (
	"errors"
	"fmt"
)

// ErrPolicyDenied indicates an action type is not permitted at the effective
// policy level. Denials surface to the proposing component and are never
// auto-escalated.
var ErrPolicyDenied = errors.New("action denied by policy")

// PolicyDeniedError carries the denied action and the level that denied it.
type PolicyDeniedError struct {
	ActionType string
	Level      Level
}

func (e *PolicyDeniedError) Error() string {
	return fmt.Sprintf("action '%s' is not permitted at policy level '%s'", e.ActionType, e.Level)
}

func (e *PolicyDeniedError) Unwrap() error { return ErrPolicyDenied }

// Decision is the outcome of evaluating one action against one policy level.
type Decision struct {
	Allowed          bool   `json:"allowed"`
	RequiresApproval bool   `json:"requires_approval"`
	Reason           string `json:"reason"`
}

// CanPerformAction decides whether an action type may run at the effective
// level, and if so whether it must wait for human approval. The allow-list is
// the project's explicit unattended set; it only matters at autopilot, which
// never grants blanket unattended authority. The function has no hidden state
// and no randomness: the same inputs always yield the same decision.
func CanPerformAction(effective Level, spec ActionSpec, allowedActions []string) Decision {
	if !spec.IsMutating() {
		if spec.Kind == KindRecommend && !effective.AtLeast(spec.RequiredLevel) {
			return Decision{
				Allowed: false,
				Reason:  fmt.Sprintf("recommendations require at least '%s'", spec.RequiredLevel),
			}
		}
		return Decision{Allowed: true, Reason: "read-only actions pass at any level"}
	}

	switch effective {
	case LevelAdvisory:
		return Decision{Allowed: false, Reason: "advisory level permits no mutations"}
	case LevelAssisted, LevelProactive:
		return Decision{
			Allowed:          true,
			RequiresApproval: true,
			Reason:           fmt.Sprintf("'%s' level requires human approval for mutations", effective),
		}
	case LevelAutopilot:
		for _, allowed := range allowedActions {
			if allowed == spec.Type {
				return Decision{
					Allowed: true,
					Reason:  "action type is on the project's unattended allow-list",
				}
			}
		}
		return Decision{
			Allowed:          true,
			RequiresApproval: true,
			Reason:           "autopilot only runs allow-listed action types unattended",
		}
	default:
		return Decision{Allowed: false, Reason: "unknown policy level"}
	}
}
