package bt

import (
	"fmt"
	"sort"
)

// RemoveNodePolicy resolves the §9 open question of whether RemoveNode on
// a node with children cascades or rejects.
type RemoveNodePolicy int

const (
	// RemoveNodePolicyReject fails RemoveNode with ErrHasChildren when the
	// node being removed still has children. This is the safer default:
	// a silent cascade can delete more of a user's tree than intended.
	RemoveNodePolicyReject RemoveNodePolicy = iota
	// RemoveNodePolicyCascade removes the node and its entire subtree.
	RemoveNodePolicyCascade
)

// ParallelPolicy is the aggregation policy for a Parallel composite (§9).
type ParallelPolicy struct {
	// Kind selects the policy variant.
	Kind ParallelPolicyKind
	// Threshold is the M in "M of N" when Kind is ParallelThreshold.
	Threshold int
}

// ParallelPolicyKind enumerates the fixed set of Parallel aggregation
// policies (§9: "implementers should expose a small enumerated set").
type ParallelPolicyKind int

const (
	// ParallelAllSuccess succeeds only when every child succeeds, fails as
	// soon as any child fails.
	ParallelAllSuccess ParallelPolicyKind = iota
	// ParallelAnySuccess succeeds as soon as any child succeeds, fails
	// only once every child has failed.
	ParallelAnySuccess
	// ParallelThreshold succeeds once Threshold children have succeeded,
	// fails once more than len(children)-Threshold have failed.
	ParallelThreshold
)

type nodeRecord struct {
	id        NodeId
	nodeType  string
	node      Node
	hasParent bool
	parent    NodeId
	children  []NodeId
	ticking   bool // non-reentrancy guard within one root tick
	lastTick  int64
	lastStat  NodeStatus
}

// Tree is the in-memory graph of nodes, blackboards, and port connections
// (§3.4). A Tree is single-threaded: the owner (engine/control.Runner)
// mutates and ticks it from one goroutine only.
type Tree struct {
	nodes            map[NodeId]*nodeRecord
	blackboards      map[BlackboardId]*Blackboard
	connections      map[PortConnectionId]*PortConnection
	root             NodeId
	hasRoot          bool
	tickCounter      int64
	removeNodePolicy RemoveNodePolicy
}

// NewTree creates an empty Tree.
func NewTree() *Tree {
	return &Tree{
		nodes:       make(map[NodeId]*nodeRecord),
		blackboards: make(map[BlackboardId]*Blackboard),
		connections: make(map[PortConnectionId]*PortConnection),
	}
}

// SetRemoveNodePolicy configures whether RemoveNode rejects or cascades
// when the target still has children. Default is RemoveNodePolicyReject.
func (t *Tree) SetRemoveNodePolicy(p RemoveNodePolicy) {
	t.removeNodePolicy = p
}

// TickCounter returns the logical tick counter, incremented once per root
// tick (§4.3).
func (t *Tree) TickCounter() int64 {
	return t.tickCounter
}

// Root returns the current root NodeId, if any.
func (t *Tree) Root() (NodeId, bool) {
	return t.root, t.hasRoot
}

// HasNode reports whether id resolves to an existing node.
func (t *Tree) HasNode(id NodeId) bool {
	_, ok := t.nodes[id]
	return ok
}

// NodeType returns the registered NodeType tag of id.
func (t *Tree) NodeType(id NodeId) (string, bool) {
	rec, ok := t.nodes[id]
	if !ok {
		return "", false
	}

	return rec.nodeType, true
}

// Node returns the Node implementation behind id.
func (t *Tree) Node(id NodeId) (Node, bool) {
	rec, ok := t.nodes[id]
	if !ok {
		return nil, false
	}

	return rec.node, true
}

// Children returns the ordered child list of id.
func (t *Tree) Children(id NodeId) ([]NodeId, bool) {
	rec, ok := t.nodes[id]
	if !ok {
		return nil, false
	}

	out := make([]NodeId, len(rec.children))
	copy(out, rec.children)

	return out, true
}

// Parent returns the parent of id, if any.
func (t *Tree) Parent(id NodeId) (NodeId, bool) {
	rec, ok := t.nodes[id]
	if !ok || !rec.hasParent {
		return NodeId{}, false
	}

	return rec.parent, true
}

// NodeIds returns every NodeId in the tree, sorted per §4.4's
// deterministic-encoding ordering.
func (t *Tree) NodeIds() []NodeId {
	ids := make([]NodeId, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	return ids
}

// BlackboardIds returns every BlackboardId in the tree, sorted.
func (t *Tree) BlackboardIds() []BlackboardId {
	ids := make([]BlackboardId, 0, len(t.blackboards))
	for id := range t.blackboards {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	return ids
}

// ConnectionIds returns every PortConnectionId in the tree, sorted.
func (t *Tree) ConnectionIds() []PortConnectionId {
	ids := make([]PortConnectionId, 0, len(t.connections))
	for id := range t.connections {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	return ids
}

// Blackboard returns the Blackboard for id.
func (t *Tree) Blackboard(id BlackboardId) (*Blackboard, bool) {
	bb, ok := t.blackboards[id]
	return bb, ok
}

// Connection returns the PortConnection for id.
func (t *Tree) Connection(id PortConnectionId) (*PortConnection, bool) {
	conn, ok := t.connections[id]
	return conn, ok
}

// AddNode inserts node under id with the given NodeType tag. Fails with
// ErrDuplicateId if id is already present.
func (t *Tree) AddNode(id NodeId, nodeType string, node Node) error {
	if _, ok := t.nodes[id]; ok {
		return fmt.Errorf("add node %s: %w", id, ErrDuplicateId)
	}

	t.nodes[id] = &nodeRecord{id: id, nodeType: nodeType, node: node}

	return nil
}

// RemoveNode removes id, detaching it from its parent and dropping
// connections that reference it. If id still has children, behavior
// follows the tree's RemoveNodePolicy.
func (t *Tree) RemoveNode(id NodeId) error {
	rec, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("remove node %s: %w", id, ErrNotFound)
	}

	if len(rec.children) > 0 {
		if t.removeNodePolicy == RemoveNodePolicyReject {
			return fmt.Errorf("remove node %s: %w", id, ErrHasChildren)
		}

		for _, child := range append([]NodeId(nil), rec.children...) {
			if err := t.RemoveNode(child); err != nil {
				return err
			}
		}
	}

	if rec.hasParent {
		t.detachFromParent(id)
	}

	for connId, conn := range t.connections {
		kept := conn.Ports[:0]

		for _, p := range conn.Ports {
			if p.Node != id {
				kept = append(kept, p)
			}
		}

		if len(kept) == 0 {
			delete(t.connections, connId)
		} else {
			conn.Ports = kept
		}
	}

	delete(t.nodes, id)

	if t.hasRoot && t.root == id {
		t.hasRoot = false
	}

	return nil
}

func (t *Tree) detachFromParent(child NodeId) {
	rec := t.nodes[child]
	if !rec.hasParent {
		return
	}

	parent := t.nodes[rec.parent]
	for i, c := range parent.children {
		if c == child {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}

	rec.hasParent = false
	parent.node.Reset()
}

// SetChildren replaces the ordered child list of parent. Each child must
// already exist; assigning a node that is an ancestor of parent (or parent
// itself) is rejected with ErrCycle. A child already attached elsewhere is
// reparented. The parent's ChildBounds are enforced with ErrCapacityExceeded.
func (t *Tree) SetChildren(parent NodeId, children []NodeId) error {
	parentRec, ok := t.nodes[parent]
	if !ok {
		return fmt.Errorf("set children of %s: %w", parent, ErrNotFound)
	}

	bounds := parentRec.node.ChildBounds()
	if len(children) < bounds.Min || (bounds.Max != Unbounded && len(children) > bounds.Max) {
		return fmt.Errorf("set children of %s: %w", parent, ErrCapacityExceeded)
	}

	seen := make(map[NodeId]bool, len(children))

	for _, child := range children {
		if _, ok := t.nodes[child]; !ok {
			return fmt.Errorf("set children of %s: child %s: %w", parent, child, ErrNotFound)
		}

		if seen[child] {
			return fmt.Errorf("set children of %s: duplicate child %s: %w", parent, child, ErrCapacityExceeded)
		}

		seen[child] = true

		if child == parent || t.isAncestor(child, parent) {
			return fmt.Errorf("set children of %s: child %s: %w", parent, child, ErrCycle)
		}
	}

	// Detach any existing children not present in the new list.
	oldChildren := parentRec.children
	for _, old := range oldChildren {
		if !seen[old] {
			t.nodes[old].hasParent = false
		}
	}

	// Reparent each incoming child, detaching it from its previous parent.
	for _, child := range children {
		rec := t.nodes[child]
		if rec.hasParent && rec.parent != parent {
			t.detachFromParent(child)
		}

		rec.hasParent = true
		rec.parent = parent
	}

	parentRec.children = append([]NodeId(nil), children...)
	parentRec.node.Reset()

	return nil
}

// isAncestor reports whether candidate is an ancestor of node (walking
// parent pointers upward from node).
func (t *Tree) isAncestor(candidate, node NodeId) bool {
	cur := node
	for {
		rec, ok := t.nodes[cur]
		if !ok || !rec.hasParent {
			return false
		}

		if rec.parent == candidate {
			return true
		}

		cur = rec.parent
	}
}

// SetRoot sets or clears (if root is nil) the tree's root node.
func (t *Tree) SetRoot(root *NodeId) error {
	if root == nil {
		t.hasRoot = false
		return nil
	}

	if _, ok := t.nodes[*root]; !ok {
		return fmt.Errorf("set root %s: %w", *root, ErrNotFound)
	}

	t.root = *root
	t.hasRoot = true

	return nil
}

// SetConfig reconfigures id and resets its tick state (§4.5).
func (t *Tree) SetConfig(id NodeId, config any) error {
	rec, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("set config of %s: %w", id, ErrNotFound)
	}

	if err := rec.node.SetConfig(config); err != nil {
		return err
	}

	rec.node.Reset()

	return nil
}

// AddBlackboard registers a new empty Blackboard under id.
func (t *Tree) AddBlackboard(id BlackboardId) error {
	if _, ok := t.blackboards[id]; ok {
		return fmt.Errorf("add blackboard %s: %w", id, ErrDuplicateId)
	}

	t.blackboards[id] = NewBlackboardWithId(id)

	return nil
}

// RemoveBlackboard removes a Blackboard. Fails wrapping ErrInUse if any
// connection still references it.
func (t *Tree) RemoveBlackboard(id BlackboardId) error {
	if _, ok := t.blackboards[id]; !ok {
		return fmt.Errorf("remove blackboard %s: %w", id, ErrNotFound)
	}

	for _, conn := range t.connections {
		if conn.Blackboard == id {
			return fmt.Errorf("remove blackboard %s: %w", id, ErrInUse)
		}
	}

	delete(t.blackboards, id)

	return nil
}

// Connect creates or replaces a PortConnection. All named ports must exist
// on their node's current Ports() declaration and share one ValueType; at
// most one Output port is allowed per connection (single-writer, §4.2).
func (t *Tree) Connect(id PortConnectionId, blackboard BlackboardId, key string, ports []PortRef) error {
	bb, ok := t.blackboards[blackboard]
	if !ok {
		return fmt.Errorf("connect %s: blackboard %s: %w", id, blackboard, ErrNotFound)
	}

	if len(ports) == 0 {
		return fmt.Errorf("connect %s: %w: no ports given", id, ErrNotFound)
	}

	var (
		valueType  ValueType
		haveType   bool
		writerSeen bool
	)

	for _, ref := range ports {
		rec, ok := t.nodes[ref.Node]
		if !ok {
			return fmt.Errorf("connect %s: node %s: %w", id, ref.Node, ErrNotFound)
		}

		port, ok := findPort(rec.node.Ports(), ref.Port)
		if !ok {
			return fmt.Errorf("connect %s: port %s on node %s: %w", id, ref.Port, ref.Node, ErrNotFound)
		}

		if !haveType {
			valueType = port.Type
			haveType = true
		} else if port.Type != valueType {
			return fmt.Errorf("connect %s: %w", id, ErrTypeMismatch)
		}

		if port.Direction == Output {
			if writerSeen {
				return fmt.Errorf("connect %s: %w", id, ErrMultipleWriters)
			}

			writerSeen = true
		}
	}

	if declared, ok := bb.DeclaredType(key); ok && declared != valueType {
		return fmt.Errorf("connect %s: blackboard key %s: %w", id, key, ErrTypeMismatch)
	}

	// Single-writer across connections to the same (blackboard, key): any
	// existing connection to this key that also carries an Output port
	// conflicts with a new Output port, unless it's this same connection
	// being replaced.
	if writerSeen {
		for otherId, other := range t.connections {
			if otherId == id || other.Blackboard != blackboard || other.Key != key {
				continue
			}

			for _, ref := range other.Ports {
				rec, ok := t.nodes[ref.Node]
				if !ok {
					continue
				}

				if port, ok := findPort(rec.node.Ports(), ref.Port); ok && port.Direction == Output {
					return fmt.Errorf("connect %s: %w", id, ErrMultipleWriters)
				}
			}
		}
	}

	t.connections[id] = &PortConnection{
		Id:         id,
		Blackboard: blackboard,
		Key:        key,
		Ports:      append([]PortRef(nil), ports...),
	}

	return nil
}

// Disconnect removes a PortConnection.
func (t *Tree) Disconnect(id PortConnectionId) error {
	if _, ok := t.connections[id]; !ok {
		return fmt.Errorf("disconnect %s: %w", id, ErrNotFound)
	}

	delete(t.connections, id)

	return nil
}

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}

	return Port{}, false
}

// connectionFor finds the connection binding (node, port) to a blackboard
// key, if any.
func (t *Tree) connectionFor(node NodeId, port string) (*PortConnection, bool) {
	for _, conn := range t.connections {
		for _, ref := range conn.Ports {
			if ref.Node == node && ref.Port == port {
				return conn, true
			}
		}
	}

	return nil, false
}
