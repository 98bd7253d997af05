package audit

import (
	"time"

	"github.com/harborview/governor/pkg/domain/aipolicy"
)

// Filter narrows audit queries. Zero-valued fields match everything.
type Filter struct {
	ProjectID string
	ActionID  string
	Actor     string
	Category  Category
	Since     time.Time
	Until     time.Time
}

// Matches reports whether an entry satisfies the filter.
func (f Filter) Matches(e *Entry) bool {
	if f.ProjectID != "" && e.ProjectID != f.ProjectID {
		return false
	}
	if f.ActionID != "" && e.ActionID != f.ActionID {
		return false
	}
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// Stats is a read-only aggregation over the append-only store.
type Stats struct {
	Total         int                    `json:"total"`
	ByCategory    map[Category]int       `json:"by_category"`
	ByConfidence  map[Confidence]int     `json:"by_confidence"`
	ByPolicyLevel map[aipolicy.Level]int `json:"by_policy_level"`
	ByActor       map[string]int         `json:"by_actor"`
}

// ComputeStats aggregates entries into stats. It never mutates its input.
func ComputeStats(entries []*Entry) Stats {
	s := Stats{
		ByCategory:    make(map[Category]int),
		ByConfidence:  make(map[Confidence]int),
		ByPolicyLevel: make(map[aipolicy.Level]int),
		ByActor:       make(map[string]int),
	}
	for _, e := range entries {
		s.Total++
		s.ByCategory[e.Category]++
		s.ByConfidence[e.Confidence]++
		if e.PolicyLevel != "" {
			s.ByPolicyLevel[e.PolicyLevel]++
		}
		s.ByActor[e.Actor]++
	}
	return s
}
