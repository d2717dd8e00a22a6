package control

import (
	"fmt"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
	"github.com/skyrocket-qy/behaviortree/engine/support"
)

// applyBatch applies every tree-mutating command in cmds to a snapshot of
// the tree. If any command fails, the whole batch is rolled back and the
// committed tree is left unchanged; every command still gets an ack
// reporting its own individual outcome (§4.5: "acks report per-command
// outcomes but the committed state is unchanged").
//
// TreeReplaced and TreeDumped describe a tree state that only becomes real
// once the batch is known to commit, so they are buffered alongside the
// acks and only appended to the returned events — after every CommandAck —
// if the batch does not roll back; a rolled-back batch discards them
// instead. The caller emits the returned events.
func (r *Runner) applyBatch(cmds []Command) []Event {
	acks := make([]Event, 0, len(cmds))

	var pending []Event

	snapshot, snapErr := support.Encode(r.tree, r.support)

	anyFailed := false

	for _, cmd := range cmds {
		switch cmd.Kind {
		case CmdSetRunState:
			r.applySetRunState(cmd)
			acks = append(acks, ackOk(cmd.CorrelationId))

			continue
		case CmdSetTickRate:
			r.applySetTickRate(cmd)
			acks = append(acks, ackOk(cmd.CorrelationId))

			continue
		case CmdPing:
			r.emit(Event{Kind: EvtPong, Pong: &PongEvt{Nonce: cmd.Ping.Nonce}})
			acks = append(acks, ackOk(cmd.CorrelationId))

			continue
		case CmdDumpTree:
			pending = append(pending, r.buildDumpEvent(cmd))
			acks = append(acks, ackOk(cmd.CorrelationId))

			continue
		}

		if snapErr != nil {
			acks = append(acks, ackErr(cmd.CorrelationId, fmt.Errorf("snapshot tree: %w", snapErr)))
			anyFailed = true

			continue
		}

		evt, err := r.applyTreeCommand(cmd)
		if err != nil {
			acks = append(acks, ackErr(cmd.CorrelationId, err))
			anyFailed = true

			continue
		}

		if evt != nil {
			pending = append(pending, *evt)
		}

		acks = append(acks, ackOk(cmd.CorrelationId))
	}

	if anyFailed && snapErr == nil {
		restored, err := support.Decode(snapshot, r.support)
		if err != nil {
			r.logger.Printf("control: rollback failed: %v", err)
		} else {
			restored.SetRemoveNodePolicy(r.removeNodePolicy)
			r.tree = restored
		}
	}

	if !anyFailed {
		acks = append(acks, pending...)
	}

	return acks
}

func ackOk(correlationId uint64) Event {
	return Event{Kind: EvtCommandAck, CommandAck: &CommandAckEvt{CorrelationId: correlationId, Result: Ok}}
}

func ackErr(correlationId uint64, err error) Event {
	return Event{
		Kind: EvtCommandAck,
		CommandAck: &CommandAckEvt{
			CorrelationId: correlationId,
			Result:        Err,
			Reason:        err.Error(),
		},
	}
}

func (r *Runner) applySetRunState(cmd Command) {
	next := cmd.SetRunState.State

	if next == Paused && r.state == Running {
		r.state = Paused
	} else if next == Running {
		r.state = Running
	} else if next == Idle {
		r.state = Idle
	}

	if next == Step {
		r.stepOnce = true
		r.state = Paused
	}

	r.emit(Event{Kind: EvtRunStateChanged, RunStateChanged: &RunStateChangedEvt{State: r.state}})
}

func (r *Runner) applySetTickRate(cmd Command) {
	r.tickPeriod = hzToPeriod(cmd.SetTickRate.Hz)
}

// buildDumpEvent encodes the tree's current (possibly still-staged) state
// into a TreeDumped event without emitting it; the caller buffers it until
// the batch's commit/rollback outcome is known.
func (r *Runner) buildDumpEvent(cmd Command) Event {
	doc, err := support.Encode(r.tree, r.support)
	if err != nil {
		return Event{Kind: EvtTreeDumped, TreeDumped: &TreeDumpedEvt{CorrelationId: cmd.CorrelationId}}
	}

	return Event{Kind: EvtTreeDumped, TreeDumped: &TreeDumpedEvt{CorrelationId: cmd.CorrelationId, Document: doc}}
}

// applyTreeCommand applies one tree-mutating command. On success it
// returns an optional Event that describes a state change too significant
// to report only through the ack (currently just CmdLoadTree's
// TreeReplaced); the caller buffers it rather than emitting it directly,
// since the whole batch can still be rolled back by a later command.
func (r *Runner) applyTreeCommand(cmd Command) (*Event, error) {
	switch cmd.Kind {
	case CmdAddNode:
		c := cmd.AddNode

		factory, ok := r.support.NodeFactory(c.NodeType)
		if !ok {
			return nil, fmt.Errorf("add node %s: %w: %s", c.Id, bt.ErrUnknownType, c.NodeType)
		}

		node := factory.Create()

		config, err := factory.DecodeConfig(c.ConfigBlob)
		if err != nil {
			return nil, fmt.Errorf("add node %s: %w", c.Id, err)
		}

		if err := node.SetConfig(config); err != nil {
			return nil, fmt.Errorf("add node %s: %w", c.Id, err)
		}

		return nil, r.tree.AddNode(c.Id, c.NodeType, node)

	case CmdRemoveNode:
		return nil, r.tree.RemoveNode(cmd.RemoveNode.Id)

	case CmdSetChildren:
		return nil, r.tree.SetChildren(cmd.SetChildren.Parent, cmd.SetChildren.Children)

	case CmdSetRoot:
		return nil, r.tree.SetRoot(cmd.SetRoot.Root)

	case CmdSetConfig:
		c := cmd.SetConfig

		nodeType, ok := r.tree.NodeType(c.Id)
		if !ok {
			return nil, fmt.Errorf("set config %s: %w", c.Id, bt.ErrNotFound)
		}

		factory, ok := r.support.NodeFactory(nodeType)
		if !ok {
			return nil, fmt.Errorf("set config %s: %w: %s", c.Id, bt.ErrUnknownType, nodeType)
		}

		config, err := factory.DecodeConfig(c.ConfigBlob)
		if err != nil {
			return nil, fmt.Errorf("set config %s: %w", c.Id, err)
		}

		return nil, r.tree.SetConfig(c.Id, config)

	case CmdAddBlackboard:
		return nil, r.tree.AddBlackboard(cmd.AddBlackboard.Id)

	case CmdRemoveBlackboard:
		return nil, r.tree.RemoveBlackboard(cmd.RemoveBlackboard.Id)

	case CmdConnect:
		c := cmd.Connect
		return nil, r.tree.Connect(c.Id, c.Blackboard, c.Key, c.Ports)

	case CmdDisconnect:
		return nil, r.tree.Disconnect(cmd.Disconnect.Id)

	case CmdLoadTree:
		tree, err := support.Decode(cmd.LoadTree.Document, r.support)
		if err != nil {
			return nil, fmt.Errorf("load tree: %w", err)
		}

		tree.SetRemoveNodePolicy(r.removeNodePolicy)
		r.tree = tree

		return &Event{Kind: EvtTreeReplaced, TreeReplaced: &TreeReplacedEvt{}}, nil

	default:
		return nil, fmt.Errorf("apply command: unhandled kind %d", cmd.Kind)
	}
}
