package deptree

import "sort"

// Graph maps a file path to the ordered paths it depends on. It may contain
// cycles and references to paths that are not keys.
type Graph map[string][]string

// Roots returns the keys with at least one dependency in lexicographic order.
func (g Graph) Roots() []string {
	roots := make([]string, 0, len(g))
	for path, deps := range g {
		if len(deps) > 0 {
			roots = append(roots, path)
		}
	}
	sort.Strings(roots)
	return roots
}

// EdgeCount is the total number of dependency edges.
func (g Graph) EdgeCount() int {
	n := 0
	for _, deps := range g {
		n += len(deps)
	}
	return n
}

// Dangling lists dependency targets that never appear as a key, sorted and
// deduplicated.
func (g Graph) Dangling() []string {
	seen := make(map[string]bool)
	for _, deps := range g {
		for _, dep := range deps {
			if _, ok := g[dep]; !ok {
				seen[dep] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for dep := range seen {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}
