package bt

import (
	"fmt"

	tp "github.com/xlab/treeprint"
)

// Sprint renders the tree rooted at Tree.Root as an indented string, using
// each node's NodeType tag, Kind, and its most recent tick status. It
// exists for debugging and CLI display, distinct from the wire format
// produced by engine/support.Encode/Decode.
func (t *Tree) Sprint() string {
	root, ok := t.root, t.hasRoot
	if !ok {
		return "(empty tree)"
	}

	tree := tp.New()
	t.sprintNode(root, tree)

	return tree.String()
}

func (t *Tree) sprintNode(id NodeId, tree tp.Tree) {
	rec, ok := t.nodes[id]
	if !ok {
		tree.AddNode(fmt.Sprintf("<missing %s>", id))
		return
	}

	label := fmt.Sprintf("%s [%s] %s", rec.nodeType, rec.node.Kind(), id)
	if rec.lastTick > 0 {
		label += fmt.Sprintf(" (%s @%d)", rec.lastStat, rec.lastTick)
	}

	if len(rec.children) == 0 {
		tree.AddNode(label)
		return
	}

	branch := tree.AddBranch(label)
	for _, child := range rec.children {
		t.sprintNode(child, branch)
	}
}
