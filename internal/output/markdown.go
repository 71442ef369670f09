package output

import (
	"fmt"
	"strings"

	"repolens/internal/engine/deptree"
)

type MarkdownGenerator struct {
	forest []*deptree.Node
}

func NewMarkdownGenerator(forest []*deptree.Node) *MarkdownGenerator {
	return &MarkdownGenerator{forest: forest}
}

func (m *MarkdownGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("# Dependency Trees\n\n")
	if len(m.forest) == 0 {
		b.WriteString("_" + EmptyMessage + "_\n")
		return b.String(), nil
	}

	stats := deptree.Collect(m.forest)
	b.WriteString("| Roots | Branches | Leaves | Cycles | Depth-limited |\n")
	b.WriteString("|---|---|---|---|---|\n")
	b.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d |\n\n",
		stats.Roots, stats.Branches, stats.Leaves, stats.Cycles, stats.Truncated))

	for _, root := range m.forest {
		b.WriteString(fmt.Sprintf("## `%s`\n\n", root.Path))
		if len(root.Children) == 0 {
			b.WriteString("_no expandable dependencies_\n\n")
			continue
		}
		writeMarkdownChildren(&b, root.Children, 0)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func writeMarkdownChildren(b *strings.Builder, children []*deptree.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, child := range children {
		b.WriteString(indent)
		b.WriteString("- `")
		b.WriteString(child.Path)
		b.WriteString("`")
		switch {
		case child.Kind == deptree.Cycle:
			b.WriteString(" **cycle**")
		case child.Truncated:
			b.WriteString(fmt.Sprintf(" _(%d more, depth limit)_", child.Dependencies))
		}
		b.WriteString("\n")
		writeMarkdownChildren(b, child.Children, depth+1)
	}
}
