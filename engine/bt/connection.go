package bt

// PortRef names one port on one node, used inside a PortConnection.
type PortRef struct {
	Node NodeId
	Port string
}

// PortConnection links one or more node ports to a key on one blackboard.
// All ports on a connection must declare the same ValueType; at most one
// Output port is allowed (single-writer), any number of Input ports is
// allowed (multi-reader) — §3.2.
type PortConnection struct {
	Id         PortConnectionId
	Blackboard BlackboardId
	Key        string
	Ports      []PortRef
}
