package dependency

import (
	"errors"
	"testing"
)

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph("proj-1")
	edge, err := g.AddEdge("a", "b", EdgeFinishToStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.ID != "a->b:finish_to_start" {
		t.Errorf("unexpected edge ID: %s", edge.ID)
	}
	if len(g.Edges) != 1 {
		t.Errorf("expected 1 edge, got %d", len(g.Edges))
	}
}

func TestGraph_AddEdge_RejectsSelfDependency(t *testing.T) {
	g := NewGraph("proj-1")
	if _, err := g.AddEdge("a", "a", EdgeFinishToStart); !errors.Is(err, ErrSelfDependency) {
		t.Errorf("expected ErrSelfDependency, got %v", err)
	}
}

func TestGraph_AddEdge_RejectsDuplicate(t *testing.T) {
	g := NewGraph("proj-1")
	if _, err := g.AddEdge("a", "b", EdgeSoft); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.AddEdge("a", "b", EdgeSoft); !errors.Is(err, ErrDuplicateEdge) {
		t.Errorf("expected ErrDuplicateEdge, got %v", err)
	}
}

func TestGraph_AddEdge_RejectsCycleAtomically(t *testing.T) {
	g := NewGraph("proj-1")
	mustAdd(t, g, "a", "b", EdgeFinishToStart)
	mustAdd(t, g, "b", "c", EdgeFinishToStart)

	before := len(g.Edges)
	_, err := g.AddEdge("c", "a", EdgeFinishToStart)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}

	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatal("expected CycleError with path")
	}
	if len(ce.Path) != 4 || ce.Path[0] != ce.Path[len(ce.Path)-1] {
		t.Errorf("expected closed 3-node cycle path, got %v", ce.Path)
	}

	// Atomicity: the rejected insertion leaves the graph unchanged.
	if len(g.Edges) != before {
		t.Errorf("graph mutated on rejected insert: %d edges, want %d", len(g.Edges), before)
	}
	if len(g.DetectDeadlocks()) != 0 {
		t.Error("graph should still be acyclic")
	}
}

func TestGraph_SoftEdgesExcludedFromCycleDetection(t *testing.T) {
	g := NewGraph("proj-1")
	mustAdd(t, g, "a", "b", EdgeFinishToStart)
	mustAdd(t, g, "b", "c", EdgeFinishToStart)

	// Soft edge closing the loop is informational and allowed.
	if _, err := g.AddEdge("c", "a", EdgeSoft); err != nil {
		t.Fatalf("soft edge should not be rejected: %v", err)
	}
	if len(g.DetectDeadlocks()) != 0 {
		t.Error("soft edges must not produce deadlocks")
	}
}

func TestGraph_DetectDeadlocks_FindsEveryCycle(t *testing.T) {
	g := NewGraph("proj-1")
	// Two disjoint cycles, inserted by constructing edges directly since
	// AddEdge would refuse them.
	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}, {"x", "y"}, {"y", "z"}, {"z", "x"}} {
		g.Edges = append(g.Edges, NewEdge(pair[0], pair[1], EdgeFinishToStart))
	}

	cycles := g.DetectDeadlocks()
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %d: %v", len(cycles), cycles)
	}
	for _, c := range cycles {
		if c[0] != c[len(c)-1] {
			t.Errorf("cycle path should be closed: %v", c)
		}
	}
}

func TestGraph_DetectDeadlocks_DeduplicatesRotations(t *testing.T) {
	g := NewGraph("proj-1")
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}} {
		g.Edges = append(g.Edges, NewEdge(pair[0], pair[1], EdgeFinishToStart))
	}
	if cycles := g.DetectDeadlocks(); len(cycles) != 1 {
		t.Errorf("expected the same cycle reported once, got %d", len(cycles))
	}
}

func TestGraph_TopologicalOrder(t *testing.T) {
	g := NewGraph("proj-1")
	mustAdd(t, g, "a", "b", EdgeFinishToStart)
	mustAdd(t, g, "b", "c", EdgeFinishToStart)

	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	// Dependencies come first: c before b before a.
	if !(pos["c"] < pos["b"] && pos["b"] < pos["a"]) {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestGraph_RemoveEdge(t *testing.T) {
	g := NewGraph("proj-1")
	edge := mustAdd(t, g, "a", "b", EdgeFinishToStart)
	if err := g.RemoveEdge(edge.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.RemoveEdge(edge.ID); !errors.Is(err, ErrEdgeNotFound) {
		t.Errorf("expected ErrEdgeNotFound, got %v", err)
	}
}

func TestEdgeType_IsHard(t *testing.T) {
	if !EdgeFinishToStart.IsHard() {
		t.Error("finish_to_start should be hard")
	}
	if EdgeSoft.IsHard() {
		t.Error("soft should not be hard")
	}
	if EdgeType("fuzzy").IsValid() {
		t.Error("unknown edge type should be invalid")
	}
}

func mustAdd(t *testing.T, g *Graph, from, to string, et EdgeType) *Edge {
	t.Helper()
	edge, err := g.AddEdge(from, to, et)
	if err != nil {
		t.Fatalf("AddEdge(%s, %s): %v", from, to, err)
	}
	return edge
}
