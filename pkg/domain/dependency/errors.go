package dependency

import (
	"errors"
	"fmt"
	"strings"
)

// Dependency domain errors.
var (
	// ErrCycleDetected indicates an insertion would close a cycle in the hard-edge subgraph.
	ErrCycleDetected = errors.New("dependency cycle detected")
	// ErrEdgeNotFound indicates a dependency edge was not found.
	ErrEdgeNotFound = errors.New("dependency edge not found")
	// ErrDuplicateEdge indicates the edge already exists.
	ErrDuplicateEdge = errors.New("dependency edge already exists")
	// ErrInvalidEdgeType indicates an invalid dependency type.
	ErrInvalidEdgeType = errors.New("invalid dependency type")
	// ErrSelfDependency indicates an entity cannot depend on itself.
	ErrSelfDependency = errors.New("entity cannot depend on itself")
)

// CycleError reports the offending cycle path so operators can resolve it.
// Path lists the node IDs along the cycle; the first node repeats at the end.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }
