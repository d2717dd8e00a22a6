// Package control implements the command/event protocol and the
// background runner that owns a Tree (§4.5): a single goroutine ticks the
// tree on a schedule and accepts mutations through a typed channel pair.
package control

import (
	"time"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
)

// RunState is the runner's state machine position (§4.5).
type RunState int

const (
	Idle RunState = iota
	Running
	Paused
	Terminated
)

// Step is a sentinel RunState accepted only by SetRunStateCmd: apply
// pending commands, tick once, then transition to Paused (§4.5).
const Step RunState = -1

func (s RunState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// CommandKind discriminates the Command taxonomy (§4.5).
type CommandKind int

const (
	CmdAddNode CommandKind = iota
	CmdRemoveNode
	CmdSetChildren
	CmdSetRoot
	CmdSetConfig
	CmdAddBlackboard
	CmdRemoveBlackboard
	CmdConnect
	CmdDisconnect
	CmdSetRunState
	CmdSetTickRate
	CmdLoadTree
	CmdDumpTree
	CmdPing
)

// Command is one client->runner request. Exactly the field matching Kind
// is populated; CorrelationId ties the eventual CommandAck back to this
// request.
type Command struct {
	CorrelationId uint64
	Kind          CommandKind

	AddNode          *AddNodeCmd
	RemoveNode       *RemoveNodeCmd
	SetChildren      *SetChildrenCmd
	SetRoot          *SetRootCmd
	SetConfig        *SetConfigCmd
	AddBlackboard    *AddBlackboardCmd
	RemoveBlackboard *RemoveBlackboardCmd
	Connect          *ConnectCmd
	Disconnect       *DisconnectCmd
	SetRunState      *SetRunStateCmd
	SetTickRate      *SetTickRateCmd
	LoadTree         *LoadTreeCmd
	Ping             *PingCmd
}

type AddNodeCmd struct {
	Id         bt.NodeId
	NodeType   string
	ConfigBlob []byte
}

type RemoveNodeCmd struct {
	Id bt.NodeId
}

type SetChildrenCmd struct {
	Parent   bt.NodeId
	Children []bt.NodeId
}

type SetRootCmd struct {
	Root *bt.NodeId
}

type SetConfigCmd struct {
	Id         bt.NodeId
	ConfigBlob []byte
}

type AddBlackboardCmd struct {
	Id bt.BlackboardId
}

type RemoveBlackboardCmd struct {
	Id bt.BlackboardId
}

type ConnectCmd struct {
	Id         bt.PortConnectionId
	Blackboard bt.BlackboardId
	Key        string
	Ports      []bt.PortRef
}

type DisconnectCmd struct {
	Id bt.PortConnectionId
}

type SetRunStateCmd struct {
	State RunState
}

type SetTickRateCmd struct {
	Hz float64
}

type LoadTreeCmd struct {
	Document []byte
}

type PingCmd struct {
	Nonce uint64
}

// EventKind discriminates the Event taxonomy (§4.5).
type EventKind int

const (
	EvtCommandAck EventKind = iota
	EvtNodeStatus
	EvtBlackboardUpdate
	EvtTreeReplaced
	EvtTick
	EvtRunStateChanged
	EvtPong
	EvtTreeDumped
)

// AckResult reports whether a Command succeeded.
type AckResult int

const (
	Ok AckResult = iota
	Err
)

// Event is one runner->client notification.
type Event struct {
	Kind EventKind

	CommandAck       *CommandAckEvt
	NodeStatus       *NodeStatusEvt
	BlackboardUpdate *BlackboardUpdateEvt
	TreeReplaced     *TreeReplacedEvt
	Tick             *TickEvt
	RunStateChanged  *RunStateChangedEvt
	Pong             *PongEvt
	TreeDumped       *TreeDumpedEvt
}

type CommandAckEvt struct {
	CorrelationId uint64
	Result        AckResult
	Reason        string
}

type NodeStatusEvt struct {
	Node        bt.NodeId
	Status      bt.NodeStatus
	TickCounter int64
}

type BlackboardUpdateEvt struct {
	Blackboard   bt.BlackboardId
	Key          string
	EncodedValue []byte
	TickCounter  int64
}

type TreeReplacedEvt struct{}

type TickEvt struct {
	TickCounter int64
	Duration    time.Duration
}

type RunStateChangedEvt struct {
	State RunState
}

type PongEvt struct {
	Nonce uint64
}

type TreeDumpedEvt struct {
	CorrelationId uint64
	Document      []byte
}
