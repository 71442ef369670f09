package output

import (
	"fmt"
	"strings"

	"repolens/internal/engine/deptree"
)

type DOTGenerator struct {
	forest []*deptree.Node
}

func NewDOTGenerator(forest []*deptree.Node) *DOTGenerator {
	return &DOTGenerator{forest: forest}
}

func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n\n")

	roots := make(map[string]bool, len(d.forest))
	for _, root := range d.forest {
		roots[root.Path] = true
	}
	for _, p := range collectPaths(d.forest) {
		if roots[p] {
			buf.WriteString(fmt.Sprintf("  %s [style=\"rounded,bold\"];\n", dotID(p)))
			continue
		}
		buf.WriteString(fmt.Sprintf("  %s;\n", dotID(p)))
	}

	edges := collectEdges(d.forest)
	if len(edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range edges {
		if e.cycle {
			buf.WriteString(fmt.Sprintf("  %s -> %s [color=red, style=dashed, label=\"CYCLE\"];\n", dotID(e.from), dotID(e.to)))
			continue
		}
		buf.WriteString(fmt.Sprintf("  %s -> %s;\n", dotID(e.from), dotID(e.to)))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// dotID quotes a path as a DOT identifier. Only backslash and double quote
// need escaping; other characters pass through as UTF-8.
func dotID(path string) string {
	return `"` + dotEscaper.Replace(path) + `"`
}
