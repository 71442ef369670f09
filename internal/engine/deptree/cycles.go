package deptree

import "sort"

// DetectCycles returns the cycles closed by back edges during a depth-first
// walk that starts from keys in lexicographic order. Each cycle lists its paths in
// edge order beginning with the first path reached; self-loops appear as
// single-element cycles.
func (g Graph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, path := range g.sortedKeys() {
		if !visited[path] {
			g.findCycles(path, visited, onStack, []string{}, &cycles)
		}
	}

	return cycles
}

func (g Graph) findCycles(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range g[curr] {
		if onStack[next] {
			cycleStart := -1
			for i, p := range path {
				if p == next {
					cycleStart = i
					break
				}
			}
			if cycleStart != -1 {
				cycle := make([]string, len(path)-cycleStart)
				copy(cycle, path[cycleStart:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// FindChain returns the shortest dependency chain from one path to another,
// breadth-first in dependency-list order.
func (g Graph) FindChain(from, to string) ([]string, bool) {
	if _, ok := g[from]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range g[curr] {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					p := prev[node]
					path = append(path, p)
					node = p
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}

			queue = append(queue, next)
		}
	}

	return nil, false
}

func (g Graph) sortedKeys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
