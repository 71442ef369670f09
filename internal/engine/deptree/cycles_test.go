package deptree

import (
	"fmt"
	"testing"
)

func TestDetectCycles_ThreeNodeCycle(t *testing.T) {
	g := Graph{
		"a.py": {"b.py"},
		"b.py": {"c.py"},
		"c.py": {"a.py"},
	}

	cycles := g.DetectCycles()
	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d", len(cycles))
	}
	expected := []string{"a.py", "b.py", "c.py"}
	for i := range expected {
		if cycles[0][i] != expected[i] {
			t.Fatalf("Unexpected cycle: %v", cycles[0])
		}
	}
}

func TestDetectCycles_SelfLoopAndAcyclic(t *testing.T) {
	if cycles := (Graph{"a": {"a"}}).DetectCycles(); len(cycles) != 1 || len(cycles[0]) != 1 {
		t.Fatalf("expected one self-loop cycle, got %v", cycles)
	}
	if cycles := (Graph{"a": {"b"}, "b": {"c"}}).DetectCycles(); len(cycles) != 0 {
		t.Fatalf("expected no cycles, got %v", cycles)
	}
}

func TestDetectCycles_Deep(t *testing.T) {
	g := Graph{}
	count := 2000
	for i := 0; i < count; i++ {
		g[fmt.Sprintf("f%04d", i)] = []string{fmt.Sprintf("f%04d", (i+1)%count)}
	}

	cycles := g.DetectCycles()
	if len(cycles) != 1 || len(cycles[0]) != count {
		t.Fatalf("expected a single %d-node cycle, got %d cycles", count, len(cycles))
	}
}

func TestFindChain(t *testing.T) {
	g := Graph{
		"main.py":   {"api.py", "util.py"},
		"api.py":    {"db.py"},
		"util.py":   {"db.py"},
		"db.py":     {"config.py"},
		"config.py": {},
	}

	chain, ok := g.FindChain("main.py", "config.py")
	if !ok {
		t.Fatal("expected chain")
	}
	want := []string{"main.py", "api.py", "db.py", "config.py"}
	if fmt.Sprint(chain) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, chain)
	}

	if _, ok := g.FindChain("config.py", "main.py"); ok {
		t.Fatal("expected no reverse chain")
	}
	if _, ok := g.FindChain("missing.py", "db.py"); ok {
		t.Fatal("expected no chain from unknown path")
	}
	if chain, ok := g.FindChain("db.py", "db.py"); !ok || len(chain) != 1 {
		t.Fatalf("expected trivial chain, got %v", chain)
	}
}

func TestGraphHelpers(t *testing.T) {
	g := Graph{"a": {"b", "ghost"}, "b": {}, "c": {"ghost", "other"}}

	if roots := g.Roots(); fmt.Sprint(roots) != "[a c]" {
		t.Fatalf("unexpected roots: %v", roots)
	}
	if n := g.EdgeCount(); n != 4 {
		t.Fatalf("expected 4 edges, got %d", n)
	}
	if d := g.Dangling(); fmt.Sprint(d) != "[ghost other]" {
		t.Fatalf("unexpected dangling refs: %v", d)
	}
}
