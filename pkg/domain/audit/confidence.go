package audit

// Confidence is the deterministic confidence grade attached to an entry.
type Confidence string

const (
	// ConfidenceLow means required signals were missing or in conflict.
	ConfidenceLow Confidence = "low"
	// ConfidenceMedium means heuristics filled gaps in the signals.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceHigh means every signal was present and mutually consistent.
	ConfidenceHigh Confidence = "high"
)

// IsValid returns true if the confidence grade is valid.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	default:
		return false
	}
}

// Signals are the inputs to the confidence computation. The mapping from
// signals to grade is a pure function so the same decision always records
// the same confidence.
type Signals struct {
	// PolicyResolved is true when an effective policy level was computed
	// from complete platform/org/project configuration.
	PolicyResolved bool
	// ActionRecognized is true when the action type is in the catalog.
	ActionRecognized bool
	// PayloadValid is true when the payload passed schema validation.
	PayloadValid bool
	// ContextComplete is true when no defaults had to fill in for missing
	// request context.
	ContextComplete bool
}

// ComputeConfidence grades a decision's signals. Missing either of the two
// required signals (policy resolution, action recognition) yields low; all
// four present yields high; anything between means heuristics filled gaps.
func ComputeConfidence(s Signals) Confidence {
	if !s.PolicyResolved || !s.ActionRecognized {
		return ConfidenceLow
	}
	if s.PayloadValid && s.ContextComplete {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}
