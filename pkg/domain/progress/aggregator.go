// Package progress derives initiative progress as a weighted roll-up of task
// progress. Weights come from task priority and are tunable policy, not
// hard-coded behavior.
package progress

import (
	"math"

	"github.com/harborview/governor/pkg/domain/planning"
)

// WeightScale maps task priority to its aggregation weight.
type WeightScale map[planning.TaskPriority]float64

// DefaultWeightScale returns the default priority weights.
func DefaultWeightScale() WeightScale {
	return WeightScale{
		planning.PriorityLow:    1.0,
		planning.PriorityMedium: 1.0,
		planning.PriorityHigh:   1.5,
		planning.PriorityUrgent: 2.0,
	}
}

// WeightFor returns the weight for a priority, defaulting to 1.0 for
// priorities the scale does not name.
func (w WeightScale) WeightFor(p planning.TaskPriority) float64 {
	if weight, ok := w[p]; ok && weight > 0 {
		return weight
	}
	return 1.0
}

// Aggregator recomputes derived initiative progress. Recomputation is
// idempotent: the same task set always yields the same percentage.
type Aggregator struct {
	scale WeightScale
}

// NewAggregator creates an aggregator with the given weight scale.
// A nil scale falls back to the defaults.
func NewAggregator(scale WeightScale) *Aggregator {
	if scale == nil {
		scale = DefaultWeightScale()
	}
	return &Aggregator{scale: scale}
}

// Normalize enforces the forced-completion invariant on a task before
// aggregation: a done task's progress is unconditionally 100, even if the
// caller supplied a different value in the same request. The reverse is not
// enforced; a task can sit at 100% without being done.
func Normalize(task *planning.Task) {
	if task == nil {
		return
	}
	if task.Status == planning.TaskDone {
		task.Progress = 100
	}
}

// Compute returns the weighted progress percentage for a set of tasks,
// rounded to the nearest integer. An empty task set yields 0.
func (a *Aggregator) Compute(tasks []*planning.Task) int {
	if len(tasks) == 0 {
		return 0
	}

	var weightedSum, totalWeight float64
	for _, task := range tasks {
		Normalize(task)
		weight := a.scale.WeightFor(task.Priority)
		weightedSum += float64(task.Progress) * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}

	pct := int(math.Round(weightedSum / totalWeight))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Apply recomputes and stores the initiative's derived progress from its
// current task set, returning true when the value changed.
func (a *Aggregator) Apply(initiative *planning.Initiative, tasks []*planning.Task) bool {
	pct := a.Compute(tasks)
	if initiative.Progress == pct {
		return false
	}
	initiative.Progress = pct
	return true
}
