// Package aipolicy resolves the effective autonomy level for AI actions and
// decides whether an action may execute unattended. Every function here is
// pure and deterministic given its inputs, which is what makes the recorded
// decisions auditable.
package aipolicy

import (
	"encoding/json"
	"fmt"
)

// Level is the ordered autonomy tier governing what an AI agent may do
// without human approval.
type Level string

const (
	LevelAdvisory  Level = "advisory"
	LevelAssisted  Level = "assisted"
	LevelProactive Level = "proactive"
	LevelAutopilot Level = "autopilot"
)

// levelRank orders levels from most to least restrictive.
var levelRank = map[Level]int{
	LevelAdvisory:  0,
	LevelAssisted:  1,
	LevelProactive: 2,
	LevelAutopilot: 3,
}

// AllLevels returns all valid policy levels, most restrictive first.
func AllLevels() []Level {
	return []Level{LevelAdvisory, LevelAssisted, LevelProactive, LevelAutopilot}
}

// IsValid returns true if the level is a valid policy level.
func (l Level) IsValid() bool {
	_, ok := levelRank[l]
	return ok
}

// String returns the string representation of the level.
func (l Level) String() string {
	return string(l)
}

// Rank returns the level's position in the autonomy ordering.
func (l Level) Rank() int {
	return levelRank[l]
}

// AtLeast returns true if this level grants at least the given level's autonomy.
func (l Level) AtLeast(other Level) bool {
	return levelRank[l] >= levelRank[other]
}

// Min returns the more restrictive of two levels.
func Min(a, b Level) Level {
	if levelRank[a] <= levelRank[b] {
		return a
	}
	return b
}

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.IsValid() {
		return "", fmt.Errorf("invalid policy level: %s", s)
	}
	return l, nil
}

// MarshalJSON implements json.Marshaler interface.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(l))
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (l *Level) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	level := Level(str)
	if !level.IsValid() {
		return fmt.Errorf("invalid policy level: %s", str)
	}
	*l = level
	return nil
}

// EffectiveLevel resolves the autonomy level for a request as the most
// restrictive of the platform ceiling, the organization level, and the
// project override. An empty override means the project inherits the org
// level. Invalid inputs degrade to advisory rather than escalating.
func EffectiveLevel(platformCeiling, orgLevel Level, projectOverride Level) Level {
	if !platformCeiling.IsValid() {
		platformCeiling = LevelAdvisory
	}
	if !orgLevel.IsValid() {
		orgLevel = LevelAdvisory
	}
	effective := Min(platformCeiling, orgLevel)
	if projectOverride != "" {
		if !projectOverride.IsValid() {
			return LevelAdvisory
		}
		effective = Min(effective, projectOverride)
	}
	return effective
}
