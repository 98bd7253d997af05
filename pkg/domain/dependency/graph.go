// Package dependency models the directed dependency graph between planned
// work items. Hard (finish-to-start) edges must stay acyclic at all times;
// soft edges are informational and never block scheduling or mutation.
package dependency

import (
	"sort"
	"time"
)

// EdgeType represents the nature of a dependency between work items.
type EdgeType string

const (
	// EdgeFinishToStart is a hard edge: the target must finish before the source starts.
	EdgeFinishToStart EdgeType = "finish_to_start"
	// EdgeSoft is informational only and excluded from cycle detection.
	EdgeSoft EdgeType = "soft"
)

// AllEdgeTypes returns all valid edge types.
func AllEdgeTypes() []EdgeType {
	return []EdgeType{EdgeFinishToStart, EdgeSoft}
}

// IsValid checks if the edge type is valid.
func (et EdgeType) IsValid() bool {
	switch et {
	case EdgeFinishToStart, EdgeSoft:
		return true
	default:
		return false
	}
}

// IsHard returns true for edge types that participate in cycle detection.
func (et EdgeType) IsHard() bool {
	return et == EdgeFinishToStart
}

// ParseEdgeType parses a string into an EdgeType.
func ParseEdgeType(s string) (EdgeType, bool) {
	et := EdgeType(s)
	return et, et.IsValid()
}

// Edge represents a directed dependency between two work items.
type Edge struct {
	// ID uniquely identifies this edge.
	ID string `json:"id" yaml:"id"`
	// FromID is the item that depends on another.
	FromID string `json:"from_id" yaml:"from_id"`
	// ToID is the item being depended on.
	ToID string `json:"to_id" yaml:"to_id"`
	// Type indicates whether the edge is hard or soft.
	Type EdgeType `json:"type" yaml:"type"`
	// CreatedAt is when this edge was first recorded.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewEdge creates a new dependency edge.
func NewEdge(from, to string, edgeType EdgeType) *Edge {
	return &Edge{
		ID:        edgeID(from, to, edgeType),
		FromID:    from,
		ToID:      to,
		Type:      edgeType,
		CreatedAt: time.Now(),
	}
}

func edgeID(from, to string, edgeType EdgeType) string {
	return from + "->" + to + ":" + string(edgeType)
}

// Graph is the dependency graph for one project. It is not safe for
// concurrent use; callers hold a graph-level lock across check-then-insert.
type Graph struct {
	ProjectID string  `json:"project_id"`
	Edges     []*Edge `json:"edges"`
}

// NewGraph creates an empty graph for a project.
func NewGraph(projectID string) *Graph {
	return &Graph{
		ProjectID: projectID,
		Edges:     make([]*Edge, 0),
	}
}

// FromEdges builds a graph from persisted edges.
func FromEdges(projectID string, edges []*Edge) *Graph {
	g := NewGraph(projectID)
	g.Edges = append(g.Edges, edges...)
	return g
}

// AddEdge inserts an edge after verifying that no hard-edge cycle results.
// On detection the insertion is rejected atomically: the graph is unchanged
// and the returned error carries the offending cycle path.
func (g *Graph) AddEdge(from, to string, edgeType EdgeType) (*Edge, error) {
	if !edgeType.IsValid() {
		return nil, ErrInvalidEdgeType
	}
	if from == to {
		return nil, ErrSelfDependency
	}
	if g.GetEdge(edgeID(from, to, edgeType)) != nil {
		return nil, ErrDuplicateEdge
	}

	edge := NewEdge(from, to, edgeType)
	if edgeType.IsHard() {
		// Check against the hard subgraph plus the candidate edge before
		// committing anything.
		adjacency := g.hardAdjacency()
		adjacency[from] = append(adjacency[from], to)
		if cycle := shortestCycleThrough(adjacency, to, from); cycle != nil {
			return nil, &CycleError{Path: cycle}
		}
	}

	g.Edges = append(g.Edges, edge)
	return edge, nil
}

// RemoveEdge removes an edge by ID.
func (g *Graph) RemoveEdge(id string) error {
	for i, edge := range g.Edges {
		if edge.ID == id {
			g.Edges = append(g.Edges[:i], g.Edges[i+1:]...)
			return nil
		}
	}
	return ErrEdgeNotFound
}

// GetEdge retrieves an edge by ID.
func (g *Graph) GetEdge(id string) *Edge {
	for _, edge := range g.Edges {
		if edge.ID == id {
			return edge
		}
	}
	return nil
}

// EdgesFrom returns all edges where the given item is the source.
func (g *Graph) EdgesFrom(id string) []*Edge {
	result := make([]*Edge, 0)
	for _, edge := range g.Edges {
		if edge.FromID == id {
			result = append(result, edge)
		}
	}
	return result
}

// EdgesTo returns all edges pointing at the given item.
func (g *Graph) EdgesTo(id string) []*Edge {
	result := make([]*Edge, 0)
	for _, edge := range g.Edges {
		if edge.ToID == id {
			result = append(result, edge)
		}
	}
	return result
}

// Nodes returns all unique item IDs in the graph, sorted for determinism.
func (g *Graph) Nodes() []string {
	seen := make(map[string]struct{})
	for _, edge := range g.Edges {
		seen[edge.FromID] = struct{}{}
		seen[edge.ToID] = struct{}{}
	}
	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// hardAdjacency builds the adjacency list of the hard-edge subgraph.
func (g *Graph) hardAdjacency() map[string][]string {
	adjacency := make(map[string][]string)
	for _, edge := range g.Edges {
		if edge.Type.IsHard() {
			adjacency[edge.FromID] = append(adjacency[edge.FromID], edge.ToID)
		}
	}
	return adjacency
}

// HasCycle checks if the hard-edge subgraph has any cycle.
func (g *Graph) HasCycle() bool {
	return len(g.DetectDeadlocks()) > 0
}

// DetectDeadlocks returns every distinct hard-edge cycle in the graph, so
// operators can resolve multiple conflicts in one pass. Each cycle path
// starts and ends at the same node.
func (g *Graph) DetectDeadlocks() [][]string {
	adjacency := g.hardAdjacency()

	const (
		white = 0 // unvisited
		grey  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[string]int)
	var stack []string
	var cycles [][]string
	seen := make(map[string]bool)

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = grey
		stack = append(stack, node)

		for _, next := range adjacency[node] {
			switch color[next] {
			case white:
				dfs(next)
			case grey:
				// Back edge: extract the cycle from the stack.
				start := len(stack) - 1
				for start >= 0 && stack[start] != next {
					start--
				}
				cycle := append([]string{}, stack[start:]...)
				cycle = append(cycle, next)
				key := canonicalCycle(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[node] = black
	}

	for _, node := range g.Nodes() {
		if color[node] == white {
			dfs(node)
		}
	}
	return cycles
}

// TopologicalOrder returns item IDs in dependency order (dependencies first)
// over the hard-edge subgraph. Fails if the graph has a cycle.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if cycles := g.DetectDeadlocks(); len(cycles) > 0 {
		return nil, &CycleError{Path: cycles[0]}
	}

	adjacency := g.hardAdjacency()
	visited := make(map[string]bool)
	result := make([]string, 0)

	var visit func(node string)
	visit = func(node string) {
		if visited[node] {
			return
		}
		visited[node] = true
		for _, next := range adjacency[node] {
			visit(next)
		}
		result = append(result, node)
	}

	for _, node := range g.Nodes() {
		visit(node)
	}
	return result, nil
}

// shortestCycleThrough walks from start looking for target via BFS and, when
// found, returns the closed path target -> ... -> target. Used to report the
// cycle a candidate edge would create. Returns nil when no path exists.
func shortestCycleThrough(adjacency map[string][]string, start, target string) []string {
	parent := make(map[string]string)
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node == target {
			// Reconstruct target -> start ... -> target.
			path := []string{node}
			for node != start {
				node = parent[node]
				path = append(path, node)
			}
			// Reverse into start-first order, then close the loop at target.
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			cycle := append([]string{target}, path...)
			return cycle
		}
		for _, next := range adjacency[node] {
			if !visited[next] {
				visited[next] = true
				parent[next] = node
				queue = append(queue, next)
			}
		}
	}
	return nil
}

// canonicalCycle normalizes a cycle path for deduplication: the open path is
// rotated so its smallest node comes first.
func canonicalCycle(cycle []string) string {
	open := cycle[:len(cycle)-1]
	min := 0
	for i := range open {
		if open[i] < open[min] {
			min = i
		}
	}
	key := ""
	for i := 0; i < len(open); i++ {
		key += open[(min+i)%len(open)] + "|"
	}
	return key
}

// Summary provides a snapshot of the dependency graph.
type Summary struct {
	TotalEdges int              `json:"total_edges"`
	TotalNodes int              `json:"total_nodes"`
	ByType     map[EdgeType]int `json:"by_type"`
	Deadlocks  int              `json:"deadlocks"`
}

// GetSummary returns a summary of the graph.
func (g *Graph) GetSummary() Summary {
	s := Summary{
		TotalEdges: len(g.Edges),
		TotalNodes: len(g.Nodes()),
		ByType:     make(map[EdgeType]int),
		Deadlocks:  len(g.DetectDeadlocks()),
	}
	for _, edge := range g.Edges {
		s.ByType[edge.Type]++
	}
	return s
}
