package support

// DocumentVersion is the current wire format version (§6.1: "Required
// top-level keys: version (integer), ...").
const DocumentVersion = 1

// Document is the self-describing serialized form of a bt.Tree (§4.4,
// §6.1). It is encoded/decoded with encoding/json; Go's struct-field
// ordering and the sorted-by-NodeId slices produced by Encode give the
// deterministic byte output §4.4 requires.
type Document struct {
	Version     int             `json:"version"`
	Blackboards []BlackboardDoc `json:"blackboards"`
	Nodes       []NodeDoc       `json:"nodes"`
	Children    []ChildDoc      `json:"children"`
	Connections []ConnectionDoc `json:"connections"`
	Root        *string         `json:"root"`
}

// BlackboardDoc serializes one Blackboard: its id and the typed entries it
// currently holds.
type BlackboardDoc struct {
	Id      string     `json:"id"`
	Entries []EntryDoc `json:"entries"`
}

// EntryDoc is one (key -> typed value) pair on a blackboard. Encode always
// sets InitialValue, since a blackboard only holds keys that were written;
// Decode skips an entry whose InitialValue is absent.
type EntryDoc struct {
	Key          string  `json:"key"`
	ValueType    string  `json:"value_type"`
	InitialValue *[]byte `json:"initial_value,omitempty"`
}

// NodeDoc serializes one Node: its id, NodeType tag, and opaque config
// blob.
type NodeDoc struct {
	Id         string `json:"id"`
	Type       string `json:"type"`
	ConfigBlob []byte `json:"config_blob"`
}

// ChildDoc is one (parent, index, child) edge in the parent→children
// relation (§4.4).
type ChildDoc struct {
	Parent string `json:"parent"`
	Index  int    `json:"index"`
	Child  string `json:"child"`
}

// ConnectionDoc serializes one PortConnection.
type ConnectionDoc struct {
	Id         string    `json:"id"`
	Blackboard string    `json:"blackboard"`
	Key        string    `json:"key"`
	Ports      []PortDoc `json:"ports"`
}

// PortDoc names one port on one node inside a ConnectionDoc.
type PortDoc struct {
	Node string `json:"node"`
	Port string `json:"port"`
}
