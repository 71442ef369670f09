package output

import (
	"fmt"
	"strings"
	"unicode"

	"repolens/internal/engine/deptree"
)

// MermaidGenerator emits a flowchart of the edges reachable in the forest.
// Edges that close a cycle are dashed and their endpoints highlighted.
type MermaidGenerator struct {
	forest []*deptree.Node
}

func NewMermaidGenerator(forest []*deptree.Node) *MermaidGenerator {
	return &MermaidGenerator{forest: forest}
}

func (m *MermaidGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	paths := collectPaths(m.forest)
	if len(paths) == 0 {
		b.WriteString(fmt.Sprintf("  empty[\"%s\"]\n", EmptyMessage))
		return b.String(), nil
	}

	ids := makeMermaidIDs(paths)
	for _, p := range paths {
		b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", ids[p], escapeMermaidLabel(p)))
	}

	cycleNodes := make(map[string]bool)
	for _, e := range collectEdges(m.forest) {
		arrow := "-->"
		if e.cycle {
			arrow = "-.->"
			cycleNodes[e.from] = true
			cycleNodes[e.to] = true
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n", ids[e.from], arrow, ids[e.to]))
	}

	if len(cycleNodes) > 0 {
		b.WriteString("  classDef cycleNode fill:#ffecec,stroke:#cc0000,stroke-width:2px;\n")
		members := make([]string, 0, len(cycleNodes))
		for _, p := range paths {
			if cycleNodes[p] {
				members = append(members, ids[p])
			}
		}
		b.WriteString(fmt.Sprintf("  class %s cycleNode;\n", strings.Join(members, ",")))
	}
	return b.String(), nil
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

func sanitizeMermaidID(path string) string {
	var b strings.Builder
	for _, r := range path {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if out == "" {
		return "n"
	}
	if unicode.IsDigit(rune(out[0])) {
		return "n_" + out
	}
	return out
}

// makeMermaidIDs assigns stable unique identifiers; paths that sanitize to
// the same id get a numeric suffix in sorted order.
func makeMermaidIDs(paths []string) map[string]string {
	ids := make(map[string]string, len(paths))
	used := make(map[string]int, len(paths))
	for _, p := range paths {
		base := sanitizeMermaidID(p)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[p] = base
			continue
		}
		ids[p] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}
