package bt

// Kind is the tagged variant a Node declares itself as (§3.3, §9 — a
// capability interface with a kind tag, not a class hierarchy).
type Kind int

const (
	// KindLeaf nodes have zero children.
	KindLeaf Kind = iota
	// KindDecorator nodes have exactly one child.
	KindDecorator
	// KindComposite nodes have an ordered, possibly-bounded child list.
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "Leaf"
	case KindDecorator:
		return "Decorator"
	case KindComposite:
		return "Composite"
	default:
		return "Unknown"
	}
}

// ChildBounds gives a Composite's cardinality limits. Max of -1 means
// unbounded. A Decorator that requires its child reports {1,1};
// optionally-decorating node types report {0,1} — they accept either 0 or
// 1 children, see §3.3.
type ChildBounds struct {
	Min int
	Max int
}

// Unbounded is the ChildBounds.Max sentinel for "no upper limit".
const Unbounded = -1

// Node is the capability interface every tree node implements (§4.1).
//
// Implementations must not retain the TickContext past the return of Tick,
// and Tick must not be called reentrantly for the same node within one
// root tick (the engine enforces this, see Tree.tickNode).
type Node interface {
	// Kind reports whether this node is a Leaf, Decorator, or Composite.
	Kind() Kind

	// ChildBounds gives the accepted child-count range. Leaves report
	// {0,0}; Decorators report {1,1}, optionally-decorating nodes {0,1};
	// Composites report their own policy (e.g. {0,Unbounded}).
	ChildBounds() ChildBounds

	// Ports declares this node's static port list, which may depend on
	// the current configuration but must be stable between
	// reconfigurations (§4.1).
	Ports() []Port

	// Tick executes one evaluation of this node.
	Tick(ctx *TickContext) (NodeStatus, error)

	// SetConfig replaces this node's configuration. The engine calls
	// Reset immediately afterward (§4.5, SetConfig command effect).
	SetConfig(config any) error

	// GetConfig returns the current configuration value.
	GetConfig() any

	// Reset clears internal tick state, e.g. after a structural mutation
	// invalidates it (child list change, reconfiguration).
	Reset()
}

// Factory creates a fresh, zero-state instance of one NodeType. Used by
// engine/support to instantiate nodes decoded from a serialized document,
// and directly by tests and hosts constructing trees in-process.
type Factory func() Node
