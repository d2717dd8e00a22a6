package support

import (
	"errors"
	"testing"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
)

func newBuiltinSupport(t *testing.T) *TreeSupport {
	t.Helper()

	ts := New()
	if err := RegisterBuiltins(ts); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}

	return ts
}

// buildSampleTree constructs one composite (Sequence), one decorator
// (Inverter), two leaves (AlwaysSuccess, Condition), one blackboard, and a
// connection from the blackboard into the Condition's "value" port.
func buildSampleTree(t *testing.T) *bt.Tree {
	t.Helper()

	tree := bt.NewTree()

	seqId := bt.NewNodeId()
	if err := tree.AddNode(seqId, NodeTypeSequence, bt.NewSequence()); err != nil {
		t.Fatalf("add sequence: %v", err)
	}

	invId := bt.NewNodeId()
	if err := tree.AddNode(invId, NodeTypeInverter, bt.NewInverter()); err != nil {
		t.Fatalf("add inverter: %v", err)
	}

	leafId := bt.NewNodeId()
	if err := tree.AddNode(leafId, NodeTypeAlwaysSuccess, &bt.AlwaysSuccess{}); err != nil {
		t.Fatalf("add leaf: %v", err)
	}

	condId := bt.NewNodeId()
	if err := tree.AddNode(condId, NodeTypeCondition, bt.NewCondition()); err != nil {
		t.Fatalf("add condition: %v", err)
	}

	if err := tree.SetChildren(seqId, []bt.NodeId{invId, leafId}); err != nil {
		t.Fatalf("set sequence children: %v", err)
	}

	if err := tree.SetChildren(invId, []bt.NodeId{condId}); err != nil {
		t.Fatalf("set inverter children: %v", err)
	}

	if err := tree.SetRoot(&seqId); err != nil {
		t.Fatalf("set root: %v", err)
	}

	bbId := bt.NewBlackboardId()
	if err := tree.AddBlackboard(bbId); err != nil {
		t.Fatalf("add blackboard: %v", err)
	}

	bb, _ := tree.Blackboard(bbId)
	if err := bb.Write("gate", bt.NewValue(bt.ValueTypeBool, true)); err != nil {
		t.Fatalf("write gate: %v", err)
	}

	connId := bt.NewPortConnectionId()
	ports := []bt.PortRef{{Node: condId, Port: "value"}}

	if err := tree.Connect(connId, bbId, "gate", ports); err != nil {
		t.Fatalf("connect: %v", err)
	}

	return tree
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ts := newBuiltinSupport(t)
	tree := buildSampleTree(t)

	blob, err := Encode(tree, ts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(blob, ts)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	reencoded, err := Encode(decoded, ts)
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}

	if string(blob) != string(reencoded) {
		t.Fatalf("round trip not byte-identical:\nfirst:  %s\nsecond: %s", blob, reencoded)
	}
}

func TestDecodeReportsMissingTypes(t *testing.T) {
	ts := newBuiltinSupport(t)
	tree := buildSampleTree(t)

	blob, err := Encode(tree, ts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	empty := New()

	_, err = Decode(blob, empty)
	if err == nil {
		t.Fatal("expected DecodeError, got nil")
	}

	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}

	if len(decErr.MissingNodeTypes) == 0 {
		t.Error("expected missing node types to be reported")
	}

	if len(decErr.MissingValueTypes) == 0 {
		t.Error("expected missing value types to be reported")
	}

	if _, ok := decErr.MissingNodeTypes[NodeTypeSequence]; !ok {
		t.Errorf("expected %s among missing node types, got %v", NodeTypeSequence, decErr.MissingNodeTypes)
	}

	if _, ok := decErr.MissingValueTypes[string(bt.ValueTypeBool)]; !ok {
		t.Errorf("expected %s among missing value types, got %v", bt.ValueTypeBool, decErr.MissingValueTypes)
	}
}

func TestRegisterNodeTypeRejectsIncompleteFactory(t *testing.T) {
	ts := New()

	err := ts.RegisterNodeType("broken", NodeFactory{})
	if err == nil {
		t.Fatal("expected error registering incomplete factory")
	}
}

func TestRegisterValueTypeRejectsIncompleteCodec(t *testing.T) {
	ts := New()

	err := ts.RegisterValueType(bt.ValueTypeBool, ValueCodec{})
	if err == nil {
		t.Fatal("expected error registering incomplete codec")
	}
}

func TestBoolCodecRoundTrip(t *testing.T) {
	ts := newBuiltinSupport(t)

	codec, ok := ts.ValueCodec(bt.ValueTypeBool)
	if !ok {
		t.Fatal("bool codec not registered")
	}

	for _, want := range []bool{true, false} {
		v := bt.NewValue(bt.ValueTypeBool, want)

		blob, err := codec.Encode(v)
		if err != nil {
			t.Fatalf("Encode(%v): %v", want, err)
		}

		decoded, err := codec.Decode(blob)
		if err != nil {
			t.Fatalf("Decode(%v): %v", want, err)
		}

		if decoded.Payload.(bool) != want {
			t.Errorf("got %v, want %v", decoded.Payload, want)
		}
	}
}

func TestNodeTypesAndValueTypesSorted(t *testing.T) {
	ts := newBuiltinSupport(t)

	types := ts.NodeTypes()
	for i := 1; i < len(types); i++ {
		if types[i-1] > types[i] {
			t.Fatalf("NodeTypes not sorted: %v", types)
		}
	}

	values := ts.ValueTypes()
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			t.Fatalf("ValueTypes not sorted: %v", values)
		}
	}
}
