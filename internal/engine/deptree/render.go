package deptree

import (
	"fmt"
	"strings"
	"time"

	"repolens/internal/shared/observability"
	"repolens/internal/shared/util"

	"github.com/gobwas/glob"
)

// DefaultMaxDepth caps expansion: the root is depth 0 and anything at depth
// 6 or deeper renders as a leaf.
const DefaultMaxDepth = 6

// Renderer shapes a Graph into trees. It holds only configuration and is
// safe to share.
type Renderer struct {
	maxDepth int
	exclude  []glob.Glob
}

type Option func(*Renderer) error

func WithMaxDepth(depth int) Option {
	return func(r *Renderer) error {
		if depth < 1 {
			return fmt.Errorf("max depth must be >= 1, got %d", depth)
		}
		r.maxDepth = depth
		return nil
	}
}

// WithExclude hides paths matching any glob, both as roots and as children.
// Patterns use '/' as the separator so '*' stays within one path segment.
func WithExclude(patterns ...string) Option {
	return func(r *Renderer) error {
		for _, pattern := range patterns {
			pattern = strings.TrimSpace(pattern)
			if pattern == "" {
				continue
			}
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
			}
			r.exclude = append(r.exclude, g)
		}
		return nil
	}
}

func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) MaxDepth() int { return r.maxDepth }

// Render expands root depth-first through graph. An ancestor met again
// becomes a Cycle leaf; a path without dependencies, or absent from graph,
// becomes a Leaf; anything at MaxDepth or below becomes a Leaf.
func (r *Renderer) Render(root string, graph Graph) *Node {
	ancestors := map[string]bool{root: true}
	return r.expand(root, graph, ancestors, 0)
}

func (r *Renderer) expand(path string, graph Graph, ancestors map[string]bool, depth int) *Node {
	deps := r.visible(graph[path])
	node := &Node{Path: path, Dependencies: len(deps)}
	if len(deps) == 0 {
		node.Kind = Leaf
		return node
	}
	if depth >= r.maxDepth {
		node.Kind = Leaf
		node.Truncated = true
		return node
	}

	node.Kind = Branch
	node.Children = make([]*Node, 0, len(deps))
	for _, dep := range deps {
		if ancestors[dep] {
			node.Children = append(node.Children, &Node{
				Path:         dep,
				Kind:         Cycle,
				Dependencies: len(r.visible(graph[dep])),
			})
			continue
		}
		ancestors[dep] = true
		node.Children = append(node.Children, r.expand(dep, graph, ancestors, depth+1))
		delete(ancestors, dep)
	}
	return node
}

// RenderAll renders one tree per key that has dependencies, in lexicographic
// key order. An empty graph, or one where no key has dependencies, yields an
// empty forest.
func (r *Renderer) RenderAll(graph Graph) []*Node {
	start := time.Now()
	defer func() {
		observability.TreeRenderDuration.Observe(time.Since(start).Seconds())
	}()

	forest := make([]*Node, 0)
	for _, root := range graph.Roots() {
		if r.excluded(root) || len(r.visible(graph[root])) == 0 {
			continue
		}
		forest = append(forest, r.Render(root, graph))
	}

	stats := Collect(forest)
	observability.TreeNodesTotal.WithLabelValues(Branch.String()).Add(float64(stats.Branches))
	observability.TreeNodesTotal.WithLabelValues(Leaf.String()).Add(float64(stats.Leaves))
	observability.TreeNodesTotal.WithLabelValues(Cycle.String()).Add(float64(stats.Cycles))
	observability.TreeDepthTruncationsTotal.Add(float64(stats.Truncated))
	return forest
}

func (r *Renderer) visible(deps []string) []string {
	if len(r.exclude) == 0 {
		return deps
	}
	out := make([]string, 0, len(deps))
	for _, dep := range deps {
		if !r.excluded(dep) {
			out = append(out, dep)
		}
	}
	return out
}

// excluded matches against the slash-normalized path so Windows-style
// backend output is filtered by the same patterns.
func (r *Renderer) excluded(path string) bool {
	normalized := util.NormalizePatternPath(path)
	for _, g := range r.exclude {
		if g.Match(normalized) {
			return true
		}
	}
	return false
}
