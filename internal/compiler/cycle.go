package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/framekb/internal/ir"
)

// dependencyGraph maps a frame to the frames it depends on. A frame depends
// only on its parent, but the graph is kept general for Tarjan's algorithm.
type dependencyGraph map[string][]string

// buildParentGraph links each frame to its parent when the parent is
// declared in defs. nodes lists frames in declaration order.
func buildParentGraph(defs []ir.FrameDef) (dependencyGraph, []string) {
	graph := make(dependencyGraph, len(defs))
	nodes := make([]string, 0, len(defs))
	for _, d := range defs {
		if _, seen := graph[d.Name]; !seen {
			nodes = append(nodes, d.Name)
		}
		graph[d.Name] = []string{}
	}
	for _, d := range defs {
		if _, declared := graph[d.Parent]; d.Parent != "" && declared {
			graph[d.Name] = append(graph[d.Name], d.Parent)
		}
	}
	return graph, nodes
}

// ParentCycles returns every inheritance cycle among defs as a closed path,
// e.g. ["A", "B", "A"] or ["A", "A"] for a frame that is its own parent.
// The result is deterministic for a given declaration order.
func ParentCycles(defs []ir.FrameDef) [][]string {
	graph, nodes := buildParentGraph(defs)

	cycles := [][]string{}
	for _, scc := range tarjanSCC(graph, nodes) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, reconstructCyclePath(scc, graph))
		}
	}
	return cycles
}

// OrderParentsFirst returns defs reordered so every frame follows its
// parent, keeping declaration order otherwise. Frames whose parent is not
// declared in defs are treated as roots. It fails on a cycle.
func OrderParentsFirst(defs []ir.FrameDef) ([]ir.FrameDef, error) {
	if cycles := ParentCycles(defs); len(cycles) > 0 {
		return nil, fmt.Errorf("inheritance cycle: %s", strings.Join(cycles[0], " -> "))
	}

	declared := make(map[string]bool, len(defs))
	for _, d := range defs {
		declared[d.Name] = true
	}

	out := make([]ir.FrameDef, 0, len(defs))
	placed := make(map[string]bool, len(defs))
	pending := defs
	for len(pending) > 0 {
		var next []ir.FrameDef
		for _, d := range pending {
			if d.Parent == "" || !declared[d.Parent] || placed[d.Parent] {
				out = append(out, d)
				placed[d.Name] = true
				continue
			}
			next = append(next, d)
		}
		if len(next) == len(pending) {
			// Only reachable with duplicate names; ParentCycles rules out the rest.
			return nil, fmt.Errorf("cannot order frames: %s", next[0].Name)
		}
		pending = next
	}
	return out, nil
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting roots in the
// order given by nodes.
func tarjanSCC(graph dependencyGraph, nodes []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks parent edges inside an SCC from its first
// member until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[len(scc)-1]
	path := []string{start}
	visited := map[string]bool{start: true}
	for current := start; ; {
		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		visited[next] = true
		current = next
	}
	return path
}
