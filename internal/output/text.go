package output

import (
	"fmt"
	"strings"

	"repolens/internal/engine/deptree"
)

// TextGenerator draws each tree with box-drawing guides, the way a terminal
// tree view lays it out.
type TextGenerator struct {
	forest []*deptree.Node
}

func NewTextGenerator(forest []*deptree.Node) *TextGenerator {
	return &TextGenerator{forest: forest}
}

func (t *TextGenerator) Generate() (string, error) {
	if len(t.forest) == 0 {
		return EmptyMessage + "\n", nil
	}

	var b strings.Builder
	for i, root := range t.forest {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(nodeLabel(root))
		b.WriteString("\n")
		writeTextChildren(&b, root.Children, "")
	}
	return b.String(), nil
}

func writeTextChildren(b *strings.Builder, children []*deptree.Node, prefix string) {
	for i, child := range children {
		last := i == len(children)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(nodeLabel(child))
		b.WriteString("\n")
		writeTextChildren(b, child.Children, prefix+indent)
	}
}

func nodeLabel(n *deptree.Node) string {
	label := n.Path
	switch {
	case n.Kind == deptree.Cycle:
		label += " [cycle]"
	case n.Truncated:
		label += fmt.Sprintf(" (%d) [depth limit]", n.Dependencies)
	case n.Dependencies > 0:
		label += fmt.Sprintf(" (%d)", n.Dependencies)
	}
	return label
}
