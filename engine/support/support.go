// Package support implements TreeSupport: a type-erased registry that lets
// arbitrary node and blackboard value types round-trip through the
// generic wire format in document.go (§4.4).
package support

import (
	"fmt"
	"sort"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
)

// NodeFactory is the type-erased registration record for one NodeType
// (§4.4): it can create a zero-state instance, produce a default config,
// and decode/encode a node's config to/from bytes.
type NodeFactory struct {
	// Create returns a fresh, zero-state Node instance.
	Create func() bt.Node
	// DefaultConfig returns the config value a freshly created node
	// starts with (before any SetConfig call).
	DefaultConfig func() any
	// DecodeConfig parses a config blob into the config value type this
	// node type expects.
	DecodeConfig func(blob []byte) (any, error)
	// EncodeConfig serializes a node's current configuration to bytes.
	EncodeConfig func(node bt.Node) ([]byte, error)
	// PortSchema reports the port declarations a node of this type would
	// have under the given (decoded) config, without needing a live
	// instance — used by host editors to render ports before placing a
	// node.
	PortSchema func(config any) []bt.Port
}

// ValueCodec is the type-erased registration record for one ValueType
// (§4.4): encode/decode to bytes, clone, and equality.
type ValueCodec struct {
	Encode func(value bt.Value) ([]byte, error)
	Decode func(blob []byte) (bt.Value, error)
	Clone  func(value bt.Value) bt.Value
	Equals func(a, b bt.Value) bool
}

// TreeSupport is a registry of NodeFactory and ValueCodec entries keyed by
// NodeType / ValueType string tag (§4.4, §9: "type-erased registry in a
// statically-typed language").
type TreeSupport struct {
	nodeFactories map[string]NodeFactory
	valueCodecs   map[bt.ValueType]ValueCodec
}

// New creates an empty TreeSupport registry.
func New() *TreeSupport {
	return &TreeSupport{
		nodeFactories: make(map[string]NodeFactory),
		valueCodecs:   make(map[bt.ValueType]ValueCodec),
	}
}

// RegisterNodeType adds or replaces the NodeFactory for nodeType.
func (s *TreeSupport) RegisterNodeType(nodeType string, factory NodeFactory) error {
	if factory.Create == nil || factory.DecodeConfig == nil || factory.EncodeConfig == nil {
		return fmt.Errorf("register node type %q: incomplete factory", nodeType)
	}

	s.nodeFactories[nodeType] = factory

	return nil
}

// RegisterValueType adds or replaces the ValueCodec for t.
func (s *TreeSupport) RegisterValueType(t bt.ValueType, codec ValueCodec) error {
	if codec.Encode == nil || codec.Decode == nil {
		return fmt.Errorf("register value type %q: incomplete codec", t)
	}

	s.valueCodecs[t] = codec

	return nil
}

// NodeFactory looks up the factory for nodeType.
func (s *TreeSupport) NodeFactory(nodeType string) (NodeFactory, bool) {
	f, ok := s.nodeFactories[nodeType]
	return f, ok
}

// ValueCodec looks up the codec for t.
func (s *TreeSupport) ValueCodec(t bt.ValueType) (ValueCodec, bool) {
	c, ok := s.valueCodecs[t]
	return c, ok
}

// NodeTypes lists every registered NodeType tag, sorted.
func (s *TreeSupport) NodeTypes() []string {
	return sortedKeys(s.nodeFactories)
}

// ValueTypes lists every registered ValueType tag, sorted.
func (s *TreeSupport) ValueTypes() []bt.ValueType {
	out := make([]bt.ValueType, 0, len(s.valueCodecs))
	for k := range s.valueCodecs {
		out = append(out, k)
	}

	sortValueTypes(out)

	return out
}

func sortedKeys(m map[string]NodeFactory) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

func sortValueTypes(s []bt.ValueType) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
