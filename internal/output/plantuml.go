package output

import (
	"fmt"
	"strings"
	"unicode"

	"repolens/internal/engine/deptree"
)

// PlantUMLGenerator emits a component diagram of the forest. Roots carry a
// highlight colour and edges closing a cycle are drawn dashed red.
type PlantUMLGenerator struct {
	forest []*deptree.Node
}

func NewPlantUMLGenerator(forest []*deptree.Node) *PlantUMLGenerator {
	return &PlantUMLGenerator{forest: forest}
}

func (p *PlantUMLGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("skinparam componentStyle rectangle\n")
	b.WriteString("skinparam linetype ortho\n")
	b.WriteString("left to right direction\n\n")

	paths := collectPaths(p.forest)
	if len(paths) == 0 {
		b.WriteString(fmt.Sprintf("note \"%s\" as empty\n", EmptyMessage))
		b.WriteString("@enduml\n")
		return b.String(), nil
	}

	roots := make(map[string]bool, len(p.forest))
	for _, root := range p.forest {
		roots[root.Path] = true
	}

	aliases := makePlantUMLAliases(paths)
	for _, path := range paths {
		line := fmt.Sprintf("component \"%s\" as %s", escapePlantUML(path), aliases[path])
		if roots[path] {
			line += " #E8F0FE"
		}
		b.WriteString(line + "\n")
	}

	edges := collectEdges(p.forest)
	if len(edges) > 0 {
		b.WriteString("\n")
	}
	for _, e := range edges {
		if e.cycle {
			b.WriteString(fmt.Sprintf("%s -[#red,dashed]-> %s : cycle\n", aliases[e.from], aliases[e.to]))
			continue
		}
		b.WriteString(fmt.Sprintf("%s --> %s\n", aliases[e.from], aliases[e.to]))
	}

	b.WriteString("@enduml\n")
	return b.String(), nil
}

func sanitizePlantUMLAlias(path string) string {
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
		return "f"
	}
	if unicode.IsDigit(rune(out[0])) {
		return "f_" + out
	}
	return out
}

func makePlantUMLAliases(paths []string) map[string]string {
	aliases := make(map[string]string, len(paths))
	used := make(map[string]int, len(paths))
	for _, path := range paths {
		base := sanitizePlantUMLAlias(path)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			aliases[path] = base
			continue
		}
		aliases[path] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return aliases
}

func escapePlantUML(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
