// Package bt implements the behavior-tree runtime: nodes, ports, the typed
// blackboard, and the tree that ties them together.
package bt

import "github.com/google/uuid"

// NodeId identifies a Node within a Tree. Stable across serialization.
type NodeId uuid.UUID

// NewNodeId generates a fresh, random NodeId.
func NewNodeId() NodeId {
	return NodeId(uuid.New())
}

// String renders the id per RFC 4122.
func (id NodeId) String() string {
	return uuid.UUID(id).String()
}

// Less gives a stable total order over NodeIds, used by engine/support to
// produce deterministic encoded output (§4.4).
func (id NodeId) Less(other NodeId) bool {
	return lessBytes(id[:], other[:])
}

// ParseNodeId parses the RFC 4122 textual form produced by String.
func ParseNodeId(s string) (NodeId, error) {
	u, err := uuid.Parse(s)
	return NodeId(u), err
}

// MarshalText renders the id per RFC 4122, so encoding/json (and anything
// else built on TextMarshaler) emits the canonical string form rather than
// the raw byte array (§6.1).
func (id NodeId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the RFC 4122 textual form produced by MarshalText.
func (id *NodeId) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeId(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}

// BlackboardId identifies a Blackboard within a Tree.
type BlackboardId uuid.UUID

// NewBlackboardId generates a fresh, random BlackboardId.
func NewBlackboardId() BlackboardId {
	return BlackboardId(uuid.New())
}

func (id BlackboardId) String() string {
	return uuid.UUID(id).String()
}

func (id BlackboardId) Less(other BlackboardId) bool {
	return lessBytes(id[:], other[:])
}

// ParseBlackboardId parses the RFC 4122 textual form produced by String.
func ParseBlackboardId(s string) (BlackboardId, error) {
	u, err := uuid.Parse(s)
	return BlackboardId(u), err
}

func (id BlackboardId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *BlackboardId) UnmarshalText(text []byte) error {
	parsed, err := ParseBlackboardId(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}

// PortConnectionId identifies a PortConnection within a Tree.
type PortConnectionId uuid.UUID

// NewPortConnectionId generates a fresh, random PortConnectionId.
func NewPortConnectionId() PortConnectionId {
	return PortConnectionId(uuid.New())
}

func (id PortConnectionId) String() string {
	return uuid.UUID(id).String()
}

func (id PortConnectionId) Less(other PortConnectionId) bool {
	return lessBytes(id[:], other[:])
}

// ParsePortConnectionId parses the RFC 4122 textual form produced by String.
func ParsePortConnectionId(s string) (PortConnectionId, error) {
	u, err := uuid.Parse(s)
	return PortConnectionId(u), err
}

func (id PortConnectionId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *PortConnectionId) UnmarshalText(text []byte) error {
	parsed, err := ParsePortConnectionId(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}

func lessBytes(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}

	return false
}
