package support

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
)

// DecodeError reports that a Document could not be fully decoded because
// it references NodeTypes or ValueTypes this TreeSupport has no factory or
// codec for. It lists every affected id so a host can report precisely
// what is missing (§4.4: "partial-tolerant ... reported with all affected
// NodeIds").
type DecodeError struct {
	Reason            string
	MissingNodeTypes  map[string][]string // nodeType -> affected node id strings
	MissingValueTypes map[string][]string // valueType -> affected blackboard "id/key" strings
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode tree: %s", e.Reason)
}

// Encode serializes tree into a Document and marshals it to JSON. Output
// is deterministic: collections are emitted in NodeId/BlackboardId/
// PortConnectionId lexicographic order (§4.4), so equal trees (and equal
// blackboard contents) produce byte-equal output, modulo value codec
// determinism.
func Encode(tree *bt.Tree, ts *TreeSupport) ([]byte, error) {
	doc := Document{Version: DocumentVersion}

	for _, bbId := range tree.BlackboardIds() {
		bb, _ := tree.Blackboard(bbId)

		keys := bb.Keys()
		sort.Strings(keys)

		entries := make([]EntryDoc, 0, len(keys))

		for _, key := range keys {
			v, _ := bb.Read(key)

			codec, ok := ts.ValueCodec(v.Type)
			if !ok {
				return nil, fmt.Errorf("encode tree: %w: value type %q", bt.ErrUnknownType, v.Type)
			}

			blob, err := codec.Encode(v)
			if err != nil {
				return nil, fmt.Errorf("encode tree: encode value %s/%s: %w", bbId, key, err)
			}

			entries = append(entries, EntryDoc{Key: key, ValueType: string(v.Type), InitialValue: &blob})
		}

		doc.Blackboards = append(doc.Blackboards, BlackboardDoc{Id: bbId.String(), Entries: entries})
	}

	for _, id := range tree.NodeIds() {
		node, _ := tree.Node(id)
		nodeType, _ := tree.NodeType(id)

		factory, ok := ts.NodeFactory(nodeType)
		if !ok {
			return nil, fmt.Errorf("encode tree: %w: node type %q", bt.ErrUnknownType, nodeType)
		}

		blob, err := factory.EncodeConfig(node)
		if err != nil {
			return nil, fmt.Errorf("encode tree: encode config of %s: %w", id, err)
		}

		doc.Nodes = append(doc.Nodes, NodeDoc{Id: id.String(), Type: nodeType, ConfigBlob: blob})

		children, _ := tree.Children(id)
		for i, child := range children {
			doc.Children = append(doc.Children, ChildDoc{Parent: id.String(), Index: i, Child: child.String()})
		}
	}

	for _, connId := range tree.ConnectionIds() {
		conn, _ := tree.Connection(connId)

		ports := make([]PortDoc, len(conn.Ports))
		for i, p := range conn.Ports {
			ports[i] = PortDoc{Node: p.Node.String(), Port: p.Port}
		}

		doc.Connections = append(doc.Connections, ConnectionDoc{
			Id:         connId.String(),
			Blackboard: conn.Blackboard.String(),
			Key:        conn.Key,
			Ports:      ports,
		})
	}

	if root, ok := tree.Root(); ok {
		s := root.String()
		doc.Root = &s
	}

	return json.Marshal(doc)
}

// Decode parses data into a Document and materializes a fresh bt.Tree
// using ts's registered factories and codecs. If the document references
// any NodeType or ValueType ts has no entry for, Decode returns a
// *DecodeError naming every affected id rather than a partial Tree
// (§4.4: "the decoder returns either a complete Tree or a structured
// failure listing missing types").
func Decode(data []byte, ts *TreeSupport) (*bt.Tree, error) {
	var doc Document

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}

	missingNodeTypes := make(map[string][]string)
	missingValueTypes := make(map[string][]string)

	for _, n := range doc.Nodes {
		if _, ok := ts.NodeFactory(n.Type); !ok {
			missingNodeTypes[n.Type] = append(missingNodeTypes[n.Type], n.Id)
		}
	}

	for _, bbDoc := range doc.Blackboards {
		for _, e := range bbDoc.Entries {
			if _, ok := ts.ValueCodec(bt.ValueType(e.ValueType)); !ok {
				loc := bbDoc.Id + "/" + e.Key
				missingValueTypes[e.ValueType] = append(missingValueTypes[e.ValueType], loc)
			}
		}
	}

	if len(missingNodeTypes) > 0 || len(missingValueTypes) > 0 {
		return nil, &DecodeError{
			Reason:            "unregistered node or value types",
			MissingNodeTypes:  missingNodeTypes,
			MissingValueTypes: missingValueTypes,
		}
	}

	tree := bt.NewTree()

	for _, bbDoc := range doc.Blackboards {
		id, err := bt.ParseBlackboardId(bbDoc.Id)
		if err != nil {
			return nil, fmt.Errorf("decode tree: blackboard id %q: %w", bbDoc.Id, err)
		}

		if err := tree.AddBlackboard(id); err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}

		bb, _ := tree.Blackboard(id)

		for _, e := range bbDoc.Entries {
			if e.InitialValue == nil {
				continue
			}

			codec, _ := ts.ValueCodec(bt.ValueType(e.ValueType))

			v, err := codec.Decode(*e.InitialValue)
			if err != nil {
				return nil, fmt.Errorf("decode tree: value %s/%s: %w", bbDoc.Id, e.Key, err)
			}

			if err := bb.Write(e.Key, v); err != nil {
				return nil, fmt.Errorf("decode tree: value %s/%s: %w", bbDoc.Id, e.Key, err)
			}
		}
	}

	for _, n := range doc.Nodes {
		id, err := bt.ParseNodeId(n.Id)
		if err != nil {
			return nil, fmt.Errorf("decode tree: node id %q: %w", n.Id, err)
		}

		factory, _ := ts.NodeFactory(n.Type)

		node := factory.Create()

		config, err := factory.DecodeConfig(n.ConfigBlob)
		if err != nil {
			return nil, fmt.Errorf("decode tree: config of %s: %w", n.Id, err)
		}

		if err := node.SetConfig(config); err != nil {
			return nil, fmt.Errorf("decode tree: config of %s: %w", n.Id, err)
		}

		if err := tree.AddNode(id, n.Type, node); err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}
	}

	childrenByParent := make(map[string][]ChildDoc)
	for _, c := range doc.Children {
		childrenByParent[c.Parent] = append(childrenByParent[c.Parent], c)
	}

	for parent, childDocs := range childrenByParent {
		sort.Slice(childDocs, func(i, j int) bool { return childDocs[i].Index < childDocs[j].Index })

		parentId, err := bt.ParseNodeId(parent)
		if err != nil {
			return nil, fmt.Errorf("decode tree: parent id %q: %w", parent, err)
		}

		childIds := make([]bt.NodeId, len(childDocs))

		for i, c := range childDocs {
			childId, err := bt.ParseNodeId(c.Child)
			if err != nil {
				return nil, fmt.Errorf("decode tree: child id %q: %w", c.Child, err)
			}

			childIds[i] = childId
		}

		if err := tree.SetChildren(parentId, childIds); err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}
	}

	for _, c := range doc.Connections {
		connId, err := bt.ParsePortConnectionId(c.Id)
		if err != nil {
			return nil, fmt.Errorf("decode tree: connection id %q: %w", c.Id, err)
		}

		bbId, err := bt.ParseBlackboardId(c.Blackboard)
		if err != nil {
			return nil, fmt.Errorf("decode tree: blackboard id %q: %w", c.Blackboard, err)
		}

		ports := make([]bt.PortRef, len(c.Ports))

		for i, p := range c.Ports {
			nodeId, err := bt.ParseNodeId(p.Node)
			if err != nil {
				return nil, fmt.Errorf("decode tree: node id %q: %w", p.Node, err)
			}

			ports[i] = bt.PortRef{Node: nodeId, Port: p.Port}
		}

		if err := tree.Connect(connId, bbId, c.Key, ports); err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}
	}

	if doc.Root != nil {
		rootId, err := bt.ParseNodeId(*doc.Root)
		if err != nil {
			return nil, fmt.Errorf("decode tree: root id %q: %w", *doc.Root, err)
		}

		if err := tree.SetRoot(&rootId); err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}
	}

	return tree, nil
}
