package bt

import (
	"strings"
	"testing"
	"time"
)

func TestSprintEmptyTree(t *testing.T) {
	tree := NewTree()

	if got := tree.Sprint(); got != "(empty tree)" {
		t.Fatalf("expected empty-tree placeholder, got %q", got)
	}
}

func TestSprintRendersNodeTypeKindAndStatus(t *testing.T) {
	tree := NewTree()

	child := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})
	seq := mustAddNode(t, tree, "Sequence", NewSequence())

	if err := tree.SetChildren(seq, []NodeId{child}); err != nil {
		t.Fatalf("SetChildren: %v", err)
	}

	root := seq
	if err := tree.SetRoot(&root); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	out := tree.Sprint()
	if out == "" {
		t.Fatal("expected a non-empty render")
	}

	if !containsAll(out, "Sequence", "AlwaysSuccess", "[Composite]", "[Leaf]", seq.String(), child.String()) {
		t.Fatalf("expected render to name both nodes' types, kinds and ids, got:\n%s", out)
	}

	if _, err := tree.TickRoot(time.Unix(0, 0)); err != nil {
		t.Fatalf("TickRoot: %v", err)
	}

	ticked := tree.Sprint()
	if !containsAll(ticked, "(Success @1)") {
		t.Fatalf("expected post-tick render to show the last status, got:\n%s", ticked)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}

	return true
}
