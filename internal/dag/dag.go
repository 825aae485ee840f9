// Copyright 2026 Dolex Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dag provides directed graph operations for derived-column
// dependencies: cycle detection with path reconstruction, deterministic
// topological ordering, and transitive dependent lookup.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed graph over column names. An edge a→b means
// b depends on a (b's expression references a).
type Graph struct {
	nodes   map[string]bool
	edges   map[string][]string // dependency -> dependents
	parents map[string][]string // dependent -> dependencies
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]bool),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a column to the graph. Adding an existing column is a no-op.
func (g *Graph) AddNode(name string) {
	if !g.nodes[name] {
		g.nodes[name] = true
		g.edges[name] = []string{}
		g.parents[name] = []string{}
	}
}

// AddEdge records that dependent's expression references dependency.
// Both columns must already be nodes. Self-references are rejected.
func (g *Graph) AddEdge(dependency, dependent string) error {
	if !g.nodes[dependency] {
		return fmt.Errorf("unknown column %q", dependency)
	}
	if !g.nodes[dependent] {
		return fmt.Errorf("unknown column %q", dependent)
	}
	if dependency == dependent {
		return fmt.Errorf("column %q references itself", dependency)
	}

	if !contains(g.edges[dependency], dependent) {
		g.edges[dependency] = append(g.edges[dependency], dependent)
	}
	if !contains(g.parents[dependent], dependency) {
		g.parents[dependent] = append(g.parents[dependent], dependency)
	}
	return nil
}

// Has reports whether the column is a node in the graph.
func (g *Graph) Has(name string) bool {
	return g.nodes[name]
}

// Len returns the number of columns in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dependencies returns the direct dependencies of a column.
func (g *Graph) Dependencies(name string) []string {
	return g.parents[name]
}

// HasCycle reports whether the graph contains a cycle. When it does, the
// returned path lists the columns along the cycle, starting and ending at
// the same column.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(name string) bool
	dfs = func(name string) bool {
		visited[name] = true
		recStack[name] = true

		for _, dep := range g.edges[name] {
			if !visited[dep] {
				cameFrom[dep] = name
				if dfs(dep) {
					return true
				}
			} else if recStack[dep] {
				// Reconstruct the cycle by walking back from the
				// current node to the repeated one.
				cyclePath = []string{dep}
				for curr := name; curr != dep; curr = cameFrom[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{dep}, cyclePath...)
				return true
			}
		}

		recStack[name] = false
		return false
	}

	// Deterministic traversal order so the reported cycle is stable.
	names := g.sortedNodes()
	for _, name := range names {
		if !visited[name] {
			if dfs(name) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

// TopologicalSort returns all columns ordered so each appears after
// everything it depends on. Order is deterministic. Errors on cycles.
func (g *Graph) TopologicalSort() ([]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []string

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range g.parents[name] {
			visit(dep)
		}
		result = append(result, name)
	}

	for _, name := range g.sortedNodes() {
		visit(name)
	}
	return result, nil
}

// Dependents returns every column that transitively depends on any of the
// given columns, excluding the inputs themselves. Sorted for determinism.
func (g *Graph) Dependents(names ...string) []string {
	seen := make(map[string]bool)

	var mark func(name string)
	mark = func(name string) {
		for _, dep := range g.edges[name] {
			if !seen[dep] {
				seen[dep] = true
				mark(dep)
			}
		}
	}

	for _, name := range names {
		if g.nodes[name] {
			mark(name)
		}
	}
	for _, name := range names {
		delete(seen, name)
	}

	result := make([]string, 0, len(seen))
	for name := range seen {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Upstream returns every column the given column transitively depends on.
func (g *Graph) Upstream(name string) []string {
	seen := make(map[string]bool)

	var mark func(n string)
	mark = func(n string) {
		for _, dep := range g.parents[n] {
			if !seen[dep] {
				seen[dep] = true
				mark(dep)
			}
		}
	}
	mark(name)

	result := make([]string, 0, len(seen))
	for n := range seen {
		result = append(result, n)
	}
	sort.Strings(result)
	return result
}

func (g *Graph) sortedNodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
