package output

import (
	"sort"

	domainerrors "repolens/internal/core/errors"
	"repolens/internal/engine/deptree"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
	FormatDOT      = "dot"
	FormatJSON     = "json"
	FormatPlantUML = "plantuml"
)

// EmptyMessage is shown when a graph has no file with dependencies.
const EmptyMessage = "No dependencies found"

// Generate renders a dependency forest in the named format.
func Generate(format string, forest []*deptree.Node) (string, error) {
	switch format {
	case FormatText, "":
		return NewTextGenerator(forest).Generate()
	case FormatMarkdown:
		return NewMarkdownGenerator(forest).Generate()
	case FormatMermaid:
		return NewMermaidGenerator(forest).Generate()
	case FormatDOT:
		return NewDOTGenerator(forest).Generate()
	case FormatJSON:
		return NewJSONGenerator(forest).Generate()
	case FormatPlantUML:
		return NewPlantUMLGenerator(forest).Generate()
	default:
		return "", domainerrors.AddContext(
			domainerrors.Newf(domainerrors.CodeValidationError, "unsupported output format %q", format),
			"format", format,
		)
	}
}

type edge struct {
	from, to string
	cycle    bool
}

// collectEdges flattens a forest into unique graph edges in sorted order.
// An edge reached both as a cycle marker and as a regular child keeps the
// cycle flag.
func collectEdges(forest []*deptree.Node) []edge {
	seen := make(map[[2]string]int)
	var edges []edge
	var visit func(n *deptree.Node)
	visit = func(n *deptree.Node) {
		for _, child := range n.Children {
			key := [2]string{n.Path, child.Path}
			isCycle := child.Kind == deptree.Cycle
			if idx, ok := seen[key]; ok {
				edges[idx].cycle = edges[idx].cycle || isCycle
			} else {
				seen[key] = len(edges)
				edges = append(edges, edge{from: n.Path, to: child.Path, cycle: isCycle})
			}
			visit(child)
		}
	}
	for _, root := range forest {
		visit(root)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	return edges
}

// collectPaths returns every distinct path in the forest, sorted.
func collectPaths(forest []*deptree.Node) []string {
	set := make(map[string]bool)
	for _, root := range forest {
		root.Walk(func(n *deptree.Node, _ int) {
			set[n.Path] = true
		})
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
