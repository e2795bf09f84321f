package statetree

// StateNode is one vertex of the hierarchy. It owns its attached systems
// and its resolved children; the parent link is non-owning (the Tree is the
// sole owner of all nodes).
type StateNode struct {
	name   string
	parent *StateNode

	children   []*StateNode
	childIndex map[string]*StateNode

	// declaredChildren keeps the description order for the link pass.
	declaredChildren []string

	systems []*attachment
}

// Name returns the node's unique name within its tree.
func (n *StateNode) Name() string { return n.name }

// Parent returns the owning node, or nil for a root.
func (n *StateNode) Parent() *StateNode { return n.parent }

// IsLeaf reports whether the node has no children. Only leaves may become
// the active state.
func (n *StateNode) IsLeaf() bool { return len(n.children) == 0 }

// Children returns the resolved child names in declaration order.
func (n *StateNode) Children() []string {
	names := make([]string, len(n.children))
	for i, c := range n.children {
		names[i] = c.name
	}
	return names
}

// Systems returns the instance names attached to this node, in attachment order.
func (n *StateNode) Systems() []string {
	names := make([]string, len(n.systems))
	for i, att := range n.systems {
		names[i] = att.name
	}
	return names
}

// attachmentByName finds a system attached to this node only (no ancestor walk).
func (n *StateNode) attachmentByName(name string) *attachment {
	for _, att := range n.systems {
		if att.name == name {
			return att
		}
	}
	return nil
}

// hasAncestor reports whether target appears on n's strict ancestor chain.
// n itself is excluded: this keeps the common-ancestor walk symmetric when
// one argument lies on the other's chain.
func (n *StateNode) hasAncestor(target *StateNode) bool {
	for cur := n.parent; cur != nil; cur = cur.parent {
		if cur == target {
			return true
		}
	}
	return false
}

// teardown destroys the subtree depth-first: children first, then this
// node's systems in reverse attachment order.
func (n *StateNode) teardown() {
	for _, child := range n.children {
		child.teardown()
	}
	for i := len(n.systems) - 1; i >= 0; i-- {
		n.systems[i].instance.Shutdown()
	}
	n.systems = nil
	n.children = nil
	n.childIndex = nil
	n.parent = nil
}
