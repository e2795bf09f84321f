package statetree

import "time"

// InitContext is the carrier passed through the one-time initialization
// pass. The tree fills in the back-references as it visits each node.
type InitContext struct {
	tree    *Tree
	node    *StateNode
	options map[string]any
}

// NewInitContext creates an empty initialization context to hand to Tree.Init.
func NewInitContext() *InitContext {
	return &InitContext{}
}

// Tree returns the tree being initialized.
func (c *InitContext) Tree() *Tree { return c.tree }

// Node returns the state currently being initialized.
func (c *InitContext) Node() *StateNode { return c.node }

// Options returns the declared options of the system currently being
// initialized (nil when it declares none). See registry.DecodeOptions.
func (c *InitContext) Options() map[string]any { return c.options }

// System resolves an instance name scoped to the initializing node's
// position: its own node or any ancestor, never a sibling branch.
func (c *InitContext) System(name string) (System, bool) {
	for n := c.node; n != nil; n = n.parent {
		if att := n.attachmentByName(name); att != nil {
			return att.instance, true
		}
	}
	return nil, false
}

// UpdateContext is the per-frame carrier. The tree fills in its
// back-reference on each Update call.
type UpdateContext struct {
	// Delta is the elapsed time since the previous update.
	Delta time.Duration

	tree *Tree
}

// NewUpdateContext creates an update context for one frame.
func NewUpdateContext(delta time.Duration) *UpdateContext {
	return &UpdateContext{Delta: delta}
}

// Tree returns the tree being updated.
func (c *UpdateContext) Tree() *Tree { return c.tree }

// RequestTransition requests a transition to the named leaf. The request
// is committed at the tail of the current Update call.
func (c *UpdateContext) RequestTransition(name string) error {
	return c.tree.RequestTransition(name)
}
