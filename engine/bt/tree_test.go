package bt

import (
	"errors"
	"testing"
	"time"
)

func mustAddNode(t *testing.T, tree *Tree, nodeType string, node Node) NodeId {
	t.Helper()

	id := NewNodeId()
	if err := tree.AddNode(id, nodeType, node); err != nil {
		t.Fatalf("AddNode(%s): %v", nodeType, err)
	}

	return id
}

// TestDelayGating is scenario 8.1: Sequence(Delay(100ms, child=Success)).
func TestDelayGating(t *testing.T) {
	tree := NewTree()

	success := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})
	delay := mustAddNode(t, tree, "Delay", NewDelay(100*time.Millisecond))
	seq := mustAddNode(t, tree, "Sequence", NewSequence())

	if err := tree.SetChildren(delay, []NodeId{success}); err != nil {
		t.Fatalf("SetChildren(delay): %v", err)
	}

	if err := tree.SetChildren(seq, []NodeId{delay}); err != nil {
		t.Fatalf("SetChildren(seq): %v", err)
	}

	root := seq
	if err := tree.SetRoot(&root); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	base := time.Unix(0, 0)

	cases := []struct {
		at   time.Duration
		want NodeStatus
	}{
		{0, Running},
		{50 * time.Millisecond, Running},
		{120 * time.Millisecond, Success},
		{130 * time.Millisecond, Success}, // gate stays open until Reset
	}

	for i, c := range cases {
		status, err := tree.TickRoot(base.Add(c.at))
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}

		if status != c.want {
			t.Errorf("tick %d at +%v: got %s, want %s", i, c.at, status, c.want)
		}
	}
}

// TestSelectorShortCircuit is scenario 8.2: Selector(Failure, Success, Failure).
func TestSelectorShortCircuit(t *testing.T) {
	tree := NewTree()

	fail1 := mustAddNode(t, tree, "AlwaysFailure", &AlwaysFailure{})
	ok := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})
	fail2 := mustAddNode(t, tree, "AlwaysFailure", &AlwaysFailure{})
	sel := mustAddNode(t, tree, "Selector", NewSelector())

	if err := tree.SetChildren(sel, []NodeId{fail1, ok, fail2}); err != nil {
		t.Fatalf("SetChildren: %v", err)
	}

	if err := tree.SetRoot(&sel); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	status, err := tree.TickRoot(time.Now())
	if err != nil {
		t.Fatalf("TickRoot: %v", err)
	}

	if status != Success {
		t.Fatalf("Selector result = %s, want Success", status)
	}

	if _, tick, ok := tree.LastStatus(fail2); ok && tick == tree.TickCounter() {
		t.Error("third child of Selector should not have ticked this round")
	}
}

// TestParallelAggregation is scenario 8.3.
func TestParallelAggregation(t *testing.T) {
	tree := NewTree()

	a := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})
	b := mustAddNode(t, tree, "AlwaysRunning", &AlwaysRunning{})
	c := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})
	par := mustAddNode(t, tree, "Parallel", NewParallel(ParallelPolicy{Kind: ParallelAllSuccess}))

	if err := tree.SetChildren(par, []NodeId{a, b, c}); err != nil {
		t.Fatalf("SetChildren: %v", err)
	}

	if err := tree.SetRoot(&par); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	status, err := tree.TickRoot(time.Now())
	if err != nil {
		t.Fatalf("TickRoot: %v", err)
	}

	if status != Running {
		t.Fatalf("Parallel result = %s, want Running (b still running)", status)
	}

	// Reconfigure b to AlwaysSuccess by replacing it via SetConfig is not
	// possible (different node type); swap the child list instead.
	bSuccess := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})

	if err := tree.SetChildren(par, []NodeId{a, bSuccess, c}); err != nil {
		t.Fatalf("SetChildren (swap): %v", err)
	}

	status, err = tree.TickRoot(time.Now())
	if err != nil {
		t.Fatalf("TickRoot 2: %v", err)
	}

	if status != Success {
		t.Fatalf("Parallel result after swap = %s, want Success", status)
	}
}

// TestConnectionRejectsMultipleWriters is scenario 8.4.
func TestConnectionRejectsMultipleWriters(t *testing.T) {
	tree := NewTree()

	bbId := NewBlackboardId()
	if err := tree.AddBlackboard(bbId); err != nil {
		t.Fatalf("AddBlackboard: %v", err)
	}

	writer1 := mustAddNode(t, tree, "StatusWrite", NewStatusWrite())
	writer2 := mustAddNode(t, tree, "StatusWrite", NewStatusWrite())
	// Each StatusWrite needs a child; give them AlwaysSuccess leaves.
	leaf1 := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})
	leaf2 := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})

	if err := tree.SetChildren(writer1, []NodeId{leaf1}); err != nil {
		t.Fatalf("SetChildren(writer1): %v", err)
	}

	if err := tree.SetChildren(writer2, []NodeId{leaf2}); err != nil {
		t.Fatalf("SetChildren(writer2): %v", err)
	}

	conn1 := NewPortConnectionId()
	if err := tree.Connect(conn1, bbId, "result", []PortRef{{Node: writer1, Port: "status"}}); err != nil {
		t.Fatalf("first Connect: %v", err)
	}

	conn2 := NewPortConnectionId()
	err := tree.Connect(conn2, bbId, "result", []PortRef{{Node: writer2, Port: "status"}})
	if err == nil {
		t.Fatal("expected second Connect to the same key to fail")
	}

	if !errors.Is(err, ErrMultipleWriters) {
		t.Fatalf("expected ErrMultipleWriters, got %v", err)
	}

	if _, ok := tree.Connection(conn2); ok {
		t.Error("rejected connection must not be committed")
	}

	if _, ok := tree.Connection(conn1); !ok {
		t.Error("first connection should remain intact")
	}
}

// TestHotReconfigure is scenario 8.5.
func TestHotReconfigure(t *testing.T) {
	tree := NewTree()

	delay := NewDelay(100 * time.Millisecond)
	delayId := mustAddNode(t, tree, "Delay", delay)

	if err := tree.SetRoot(&delayId); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	base := time.Unix(0, 0)

	status, err := tree.TickRoot(base)
	if err != nil {
		t.Fatalf("tick 1: %v", err)
	}

	if status != Running {
		t.Fatalf("tick 1 = %s, want Running", status)
	}

	if err := tree.SetConfig(delayId, DelayConfig{Interval: 10 * time.Millisecond}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	// Elapsed clock is reset: ticking immediately after reconfigure with a
	// time less than the new interval is still Running...
	status, err = tree.TickRoot(base.Add(5 * time.Millisecond))
	if err != nil {
		t.Fatalf("tick 2: %v", err)
	}

	if status != Running {
		t.Fatalf("tick 2 = %s, want Running (re-armed against new interval)", status)
	}

	// ...and exceeding the new 10ms interval succeeds.
	status, err = tree.TickRoot(base.Add(20 * time.Millisecond))
	if err != nil {
		t.Fatalf("tick 3: %v", err)
	}

	if status != Success {
		t.Fatalf("tick 3 = %s, want Success", status)
	}
}

// TestCycleRejected is universal invariant 6.
func TestCycleRejected(t *testing.T) {
	tree := NewTree()

	a := mustAddNode(t, tree, "Selector", NewSelector())
	b := mustAddNode(t, tree, "Selector", NewSelector())

	if err := tree.SetChildren(a, []NodeId{b}); err != nil {
		t.Fatalf("SetChildren(a): %v", err)
	}

	err := tree.SetChildren(b, []NodeId{a})
	if err == nil {
		t.Fatal("expected cycle to be rejected")
	}

	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	children, _ := tree.Children(b)
	if len(children) != 0 {
		t.Error("state must be unchanged after a rejected cycle")
	}
}

// TestRemoveNodePolicy covers both RemoveNode policies (§9 open question).
func TestRemoveNodePolicy(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		tree := NewTree()
		parent := mustAddNode(t, tree, "Selector", NewSelector())
		child := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})

		if err := tree.SetChildren(parent, []NodeId{child}); err != nil {
			t.Fatalf("SetChildren: %v", err)
		}

		err := tree.RemoveNode(parent)
		if !errors.Is(err, ErrHasChildren) {
			t.Fatalf("expected ErrHasChildren, got %v", err)
		}
	})

	t.Run("cascade", func(t *testing.T) {
		tree := NewTree()
		tree.SetRemoveNodePolicy(RemoveNodePolicyCascade)

		parent := mustAddNode(t, tree, "Selector", NewSelector())
		child := mustAddNode(t, tree, "AlwaysSuccess", &AlwaysSuccess{})

		if err := tree.SetChildren(parent, []NodeId{child}); err != nil {
			t.Fatalf("SetChildren: %v", err)
		}

		if err := tree.RemoveNode(parent); err != nil {
			t.Fatalf("RemoveNode: %v", err)
		}

		if tree.HasNode(child) {
			t.Error("cascade should have removed the child too")
		}
	})
}

// TestEmptyCompositeDefaults is universal invariant 4.
func TestEmptyCompositeDefaults(t *testing.T) {
	tree := NewTree()

	seq := mustAddNode(t, tree, "Sequence", NewSequence())
	if err := tree.SetRoot(&seq); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	if status, err := tree.TickRoot(time.Now()); err != nil || status != Success {
		t.Errorf("empty Sequence = (%s, %v), want (Success, nil)", status, err)
	}

	tree2 := NewTree()
	sel := mustAddNode(t, tree2, "Selector", NewSelector())
	if err := tree2.SetRoot(&sel); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	if status, err := tree2.TickRoot(time.Now()); err != nil || status != Failure {
		t.Errorf("empty Selector = (%s, %v), want (Failure, nil)", status, err)
	}

	tree3 := NewTree()
	par := mustAddNode(t, tree3, "Parallel", NewParallel(ParallelPolicy{Kind: ParallelAllSuccess}))
	if err := tree3.SetRoot(&par); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	if status, err := tree3.TickRoot(time.Now()); err != nil || status != Success {
		t.Errorf("empty Parallel(AllSuccess) = (%s, %v), want (Success, nil)", status, err)
	}
}
