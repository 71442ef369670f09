package deptree

import "fmt"

type NodeKind int

const (
	// Leaf has no expandable children.
	Leaf NodeKind = iota
	// Branch holds one child per dependency.
	Branch
	// Cycle marks an edge back to an ancestor on the current path.
	Cycle
)

func (k NodeKind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Branch:
		return "branch"
	case Cycle:
		return "cycle"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Node is one rendered position in a dependency tree. Dependencies is the
// size of the path's dependency list in the source graph, which can be
// non-zero on a Leaf that was cut off by the depth cap.
type Node struct {
	Path         string   `json:"path"`
	Kind         NodeKind `json:"kind"`
	Dependencies int      `json:"dependencies"`
	Truncated    bool     `json:"truncated,omitempty"`
	Children     []*Node  `json:"children,omitempty"`
}

// Walk visits n and its descendants depth-first, pre-order.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int), depth int) {
	if n == nil {
		return
	}
	fn(n, depth)
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Stats counts node kinds across one or more rendered trees.
type Stats struct {
	Roots     int `json:"roots"`
	Branches  int `json:"branches"`
	Leaves    int `json:"leaves"`
	Cycles    int `json:"cycles"`
	Truncated int `json:"truncated"`
	MaxDepth  int `json:"max_depth"`
}

func (s *Stats) add(n *Node, depth int) {
	switch n.Kind {
	case Branch:
		s.Branches++
	case Cycle:
		s.Cycles++
	default:
		s.Leaves++
	}
	if n.Truncated {
		s.Truncated++
	}
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}
}

// Collect computes Stats over a forest.
func Collect(forest []*Node) Stats {
	var s Stats
	s.Roots = len(forest)
	for _, root := range forest {
		root.Walk(s.add)
	}
	return s
}
