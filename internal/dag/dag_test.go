package dag

import (
	"reflect"
	"testing"
)

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := New()

	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")

	if g.Len() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Len())
	}

	// b depends on a
	if err := g.AddEdge("a", "b"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	// c depends on b
	if err := g.AddEdge("b", "c"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}

	if deps := g.Dependencies("c"); !reflect.DeepEqual(deps, []string{"b"}) {
		t.Errorf("expected c to depend on [b], got %v", deps)
	}
}

func TestGraph_AddEdge_UnknownColumn(t *testing.T) {
	g := New()
	g.AddNode("a")

	if err := g.AddEdge("a", "nonexistent"); err == nil {
		t.Error("expected error for unknown dependent")
	}
	if err := g.AddEdge("nonexistent", "a"); err == nil {
		t.Error("expected error for unknown dependency")
	}
}

func TestGraph_AddEdge_SelfReference(t *testing.T) {
	g := New()
	g.AddNode("a")

	if err := g.AddEdge("a", "a"); err == nil {
		t.Error("expected error for self-reference")
	}
}

func TestGraph_AddEdge_Duplicate(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")

	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("first edge: %v", err)
	}
	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("duplicate edge: %v", err)
	}
	if deps := g.Dependencies("b"); len(deps) != 1 {
		t.Errorf("expected 1 dependency after duplicate add, got %v", deps)
	}
}

func TestGraph_HasCycle(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")

	if has, _ := g.HasCycle(); has {
		t.Error("acyclic graph reported a cycle")
	}

	_ = g.AddEdge("c", "a")
	has, path := g.HasCycle()
	if !has {
		t.Fatal("expected cycle")
	}
	if len(path) < 3 {
		t.Errorf("expected cycle path with at least 3 entries, got %v", path)
	}
	if path[0] != path[len(path)-1] {
		t.Errorf("cycle path should start and end at the same column, got %v", path)
	}
}

func TestGraph_HasCycle_TwoNode(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "a")

	has, path := g.HasCycle()
	if !has {
		t.Fatal("expected cycle")
	}
	// a → b → a
	want := []string{"a", "b", "a"}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("expected path %v, got %v", want, path)
	}
}

func TestGraph_TopologicalSort(t *testing.T) {
	g := New()
	for _, n := range []string{"d", "c", "b", "a"} {
		g.AddNode(n)
	}
	_ = g.AddEdge("a", "b") // b depends on a
	_ = g.AddEdge("b", "c") // c depends on b
	_ = g.AddEdge("a", "d") // d depends on a

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("expected 4 columns, got %v", order)
	}

	pos := make(map[string]int)
	for i, n := range order {
		pos[n] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] || pos["a"] > pos["d"] {
		t.Errorf("order violates dependencies: %v", order)
	}

	// Deterministic across runs.
	again, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("second sort failed: %v", err)
	}
	if !reflect.DeepEqual(order, again) {
		t.Errorf("sort not deterministic: %v vs %v", order, again)
	}
}

func TestGraph_TopologicalSort_Cycle(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "a")

	if _, err := g.TopologicalSort(); err == nil {
		t.Error("expected error for cyclic graph")
	}
}

func TestGraph_Dependents(t *testing.T) {
	g := New()
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		g.AddNode(n)
	}
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("b", "d")

	got := g.Dependents("a")
	want := []string{"b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if got := g.Dependents("e"); len(got) != 0 {
		t.Errorf("expected no dependents for leaf, got %v", got)
	}

	if got := g.Dependents("missing"); len(got) != 0 {
		t.Errorf("expected no dependents for unknown column, got %v", got)
	}
}

func TestGraph_Upstream(t *testing.T) {
	g := New()
	for _, n := range []string{"a", "b", "c"} {
		g.AddNode(n)
	}
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")

	got := g.Upstream("c")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
