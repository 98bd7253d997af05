package application

import "sync"

// entityLocks serializes mutations per entity. The repository guards its own
// maps; these locks guard read-modify-write sequences spanning several
// repository calls, e.g. load-validate-save on a task or the check-then-insert
// on a project's dependency graph.
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the named entity and returns the release function.
func (l *entityLocks) acquire(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func taskLockKey(initiativeID string) string { return "initiative:" + initiativeID }
func graphLockKey(projectID string) string   { return "graph:" + projectID }
func actionLockKey(actionID string) string   { return "action:" + actionID }
func gateLockKey(projectID string) string    { return "gates:" + projectID }
