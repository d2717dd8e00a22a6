package control

import (
	"errors"
	"testing"
	"time"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
	"github.com/skyrocket-qy/behaviortree/engine/support"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()

	ts := support.New()
	if err := support.RegisterBuiltins(ts); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}

	return NewRunner(ts)
}

func TestAddNodeAndTick(t *testing.T) {
	r := newTestRunner(t)

	nodeId := bt.NewNodeId()

	cmds := []Command{
		{CorrelationId: 1, Kind: CmdAddNode, AddNode: &AddNodeCmd{Id: nodeId, NodeType: "builtin.AlwaysSuccess"}},
		{CorrelationId: 2, Kind: CmdSetRoot, SetRoot: &SetRootCmd{Root: &nodeId}},
	}

	acks := r.applyBatch(cmds)
	for _, ack := range acks {
		if ack.CommandAck.Result != Ok {
			t.Fatalf("expected Ok ack, got %+v", ack.CommandAck)
		}
	}

	r.tickOnce()

	status, _, ok := r.tree.LastStatus(nodeId)
	if !ok || status != bt.Success {
		t.Fatalf("expected node to have ticked Success, got %v ok=%v", status, ok)
	}
}

func TestApplyBatchRollsBackOnFailure(t *testing.T) {
	r := newTestRunner(t)

	goodId := bt.NewNodeId()
	badId := bt.NewNodeId()

	cmds := []Command{
		{CorrelationId: 1, Kind: CmdAddNode, AddNode: &AddNodeCmd{Id: goodId, NodeType: "builtin.AlwaysSuccess"}},
		{CorrelationId: 2, Kind: CmdAddNode, AddNode: &AddNodeCmd{Id: badId, NodeType: "not.a.real.type"}},
	}

	acks := r.applyBatch(cmds)

	if acks[0].CommandAck.Result != Ok {
		t.Fatalf("expected first command to report Ok, got %+v", acks[0].CommandAck)
	}

	if acks[1].CommandAck.Result != Err {
		t.Fatalf("expected second command to report Err, got %+v", acks[1].CommandAck)
	}

	if r.tree.HasNode(goodId) {
		t.Fatal("expected batch rollback to discard the successfully-staged node too")
	}
}

func TestSetRunStateTransitions(t *testing.T) {
	r := newTestRunner(t)

	r.applyBatch([]Command{
		{CorrelationId: 1, Kind: CmdSetRunState, SetRunState: &SetRunStateCmd{State: Running}},
	})

	if r.State() != Running {
		t.Fatalf("expected Running, got %v", r.State())
	}

	r.applyBatch([]Command{
		{CorrelationId: 2, Kind: CmdSetRunState, SetRunState: &SetRunStateCmd{State: Paused}},
	})

	if r.State() != Paused {
		t.Fatalf("expected Paused, got %v", r.State())
	}
}

func TestDumpAndLoadTreeRoundTrip(t *testing.T) {
	r := newTestRunner(t)

	nodeId := bt.NewNodeId()

	r.applyBatch([]Command{
		{CorrelationId: 1, Kind: CmdAddNode, AddNode: &AddNodeCmd{Id: nodeId, NodeType: "builtin.AlwaysSuccess"}},
		{CorrelationId: 2, Kind: CmdSetRoot, SetRoot: &SetRootCmd{Root: &nodeId}},
	})

	var dumped []byte

	go func() {
		for evt := range r.Events() {
			if evt.Kind == EvtTreeDumped {
				dumped = evt.TreeDumped.Document

				return
			}
		}
	}()

	for _, evt := range r.applyBatch([]Command{{CorrelationId: 3, Kind: CmdDumpTree}}) {
		r.emit(evt)
	}

	time.Sleep(50 * time.Millisecond)

	if len(dumped) == 0 {
		t.Fatal("expected a non-empty dump")
	}

	fresh := newTestRunner(t)

	go func() {
		for range fresh.Events() {
		}
	}()

	fresh.applyBatch([]Command{{CorrelationId: 4, Kind: CmdLoadTree, LoadTree: &LoadTreeCmd{Document: dumped}}})

	if !fresh.tree.HasNode(nodeId) {
		t.Fatal("expected loaded tree to contain the dumped node")
	}
}

type fakeSpan struct {
	finished *bool
}

func (s fakeSpan) Finish() { *s.finished = true }

type fakeTracer struct {
	finished *bool
}

func (tr fakeTracer) StartSpan(string) Span { return fakeSpan{finished: tr.finished} }

func TestTickOnceFinishesTracerSpan(t *testing.T) {
	r := newTestRunner(t)

	finished := false
	r.tracer = fakeTracer{finished: &finished}

	nodeId := bt.NewNodeId()

	r.applyBatch([]Command{
		{CorrelationId: 1, Kind: CmdAddNode, AddNode: &AddNodeCmd{Id: nodeId, NodeType: "builtin.AlwaysSuccess"}},
		{CorrelationId: 2, Kind: CmdSetRoot, SetRoot: &SetRootCmd{Root: &nodeId}},
	})

	r.tickOnce()

	if !finished {
		t.Fatal("expected the attached tracer's span to be finished after a tick")
	}
}

func TestReportDisconnectPausesRunningRunner(t *testing.T) {
	r := newTestRunner(t)
	r.state = Running

	go func() {
		for range r.Events() {
		}
	}()

	r.ReportDisconnect(errors.New("read: connection reset"))
	r.handleDisconnect(<-r.disconnCh)

	if r.State() != Paused {
		t.Fatalf("expected Paused after a reported disconnect, got %v", r.State())
	}
}

func TestHandleDisconnectIgnoredAfterTerminate(t *testing.T) {
	r := newTestRunner(t)
	r.state = Terminated

	r.handleDisconnect(errors.New("read: connection reset"))

	if r.State() != Terminated {
		t.Fatalf("expected disconnect to be a no-op once terminated, got %v", r.State())
	}
}

func TestTickStatsRecordsPercentiles(t *testing.T) {
	s := NewTickStats()

	for _, d := range []time.Duration{1 * time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond} {
		s.Record(d)
	}

	if s.TotalTicks() != 3 {
		t.Fatalf("expected 3 ticks recorded, got %d", s.TotalTicks())
	}

	if p := s.Percentile(50); p <= 0 {
		t.Fatalf("expected positive p50, got %v", p)
	}
}
