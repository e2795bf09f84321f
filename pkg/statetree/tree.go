package statetree

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// cascadeLimit bounds how many transitions a single Commit call may chain.
// A system that unconditionally requests a transition from its activate
// callback would otherwise loop forever inside one commit.
const cascadeLimit = 10

// Tree owns the full set of state nodes and the active/pending transition
// model. It is the sole entry point external callers use.
type Tree struct {
	name      string
	factory   Factory
	resolvers *Resolvers
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	nodesByName   map[string]*StateNode
	systemsByName map[string]System
	roots         []*StateNode

	active       *StateNode
	pending      *StateNode
	defaultState *StateNode
	initialized  bool
}

// Option configures a Tree.
type Option func(*Tree)

// WithResolvers sets the parameter resolver registry used during Init.
// Defaults to NewResolvers() (the built-in system/state kinds).
func WithResolvers(r *Resolvers) Option {
	return func(t *Tree) {
		t.resolvers = r
	}
}

// WithHooks registers lifecycle observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(t *Tree) {
		t.hooks = hooks
	}
}

// WithLogger sets the logger for transition debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// New builds the tree from a description: one node per entry, systems
// instantiated through the factory, then a second pass resolving child
// links so forward references succeed. The default transition is recorded
// as pending but not committed; no callbacks fire until Init.
func New(factory Factory, desc *domain.TreeDescription, opts ...Option) (*Tree, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: factory is required", domain.ErrConfiguration)
	}
	if desc == nil {
		return nil, fmt.Errorf("%w: description is required", domain.ErrConfiguration)
	}

	t := &Tree{
		name:          desc.Name,
		factory:       factory,
		nodesByName:   make(map[string]*StateNode),
		systemsByName: make(map[string]System),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.resolvers == nil {
		t.resolvers = NewResolvers()
	}

	// Pass 1: construct every node and its systems.
	for _, sd := range desc.States {
		if sd.Name == "" {
			return nil, fmt.Errorf("%w: state with empty name", domain.ErrConfiguration)
		}
		if _, exists := t.nodesByName[sd.Name]; exists {
			return nil, fmt.Errorf("%w: state %q declared twice", domain.ErrDuplicateName, sd.Name)
		}

		node := &StateNode{
			name:             sd.Name,
			childIndex:       make(map[string]*StateNode),
			declaredChildren: sd.Children,
		}
		for _, sysDesc := range sd.Systems {
			instance, err := factory.Create(sysDesc.Type)
			if err != nil {
				return nil, fmt.Errorf("state %q: %w", sd.Name, err)
			}
			instanceName := sysDesc.InstanceName()
			if _, exists := t.systemsByName[instanceName]; exists {
				return nil, fmt.Errorf("%w: system instance %q", domain.ErrDuplicateName, instanceName)
			}
			node.systems = append(node.systems, newAttachment(sysDesc, instance))
			t.systemsByName[instanceName] = instance
		}
		t.nodesByName[sd.Name] = node
	}

	// Pass 2: resolve child links.
	for _, sd := range desc.States {
		parent := t.nodesByName[sd.Name]
		for _, childName := range parent.declaredChildren {
			child, ok := t.nodesByName[childName]
			if !ok {
				return nil, fmt.Errorf("%w: %q declared as child of %q", domain.ErrMissingNode, childName, sd.Name)
			}
			if child.parent != nil {
				return nil, fmt.Errorf("%w: %q claimed by %q and %q",
					domain.ErrMultipleParent, childName, child.parent.name, sd.Name)
			}
			child.parent = parent
			parent.children = append(parent.children, child)
			parent.childIndex[childName] = child
		}
	}

	for _, sd := range desc.States {
		if node := t.nodesByName[sd.Name]; node.parent == nil {
			t.roots = append(t.roots, node)
		}
	}

	if desc.Main != "" {
		node, ok := t.nodesByName[desc.Main]
		if !ok {
			return nil, fmt.Errorf("%w: main state %q", domain.ErrMissingNode, desc.Main)
		}
		if !node.IsLeaf() {
			return nil, fmt.Errorf("%w: main state %q has children", domain.ErrNotLeaf, desc.Main)
		}
		t.defaultState = node
	} else {
		// No explicit main: the first leaf in declaration order starts.
		for _, sd := range desc.States {
			if node := t.nodesByName[sd.Name]; node.IsLeaf() {
				t.defaultState = node
				break
			}
		}
		if t.defaultState == nil {
			return nil, fmt.Errorf("%w: description has no leaf states", domain.ErrConfiguration)
		}
	}

	t.pending = t.defaultState
	return t, nil
}

// Name returns the tree's name from the description.
func (t *Tree) Name() string { return t.name }

// Node looks up a state by name.
func (t *Tree) Node(name string) (*StateNode, bool) {
	node, ok := t.nodesByName[name]
	return node, ok
}

// System looks up a system instance by its global instance name.
func (t *Tree) System(name string) (System, bool) {
	sys, ok := t.systemsByName[name]
	return sys, ok
}

// Active returns the currently active leaf, or nil before the first commit.
func (t *Tree) Active() *StateNode { return t.active }

// ActivePath returns the names of the active branch, leaf first, root last.
// Empty before the first commit.
func (t *Tree) ActivePath() []string {
	var path []string
	for n := t.active; n != nil; n = n.parent {
		path = append(path, n.name)
	}
	return path
}

// Init visits every root depth-first, parent before children, resolving
// declared parameters and invoking each system's one-time Init callback.
// When every node has initialized, the deferred default transition is
// committed: this is where the very first enter cascade fires.
func (t *Tree) Init(ctx *InitContext) error {
	if ctx == nil {
		return fmt.Errorf("%w: init context", domain.ErrMissingArgument)
	}
	if t.initialized {
		return fmt.Errorf("%w: tree already initialized", domain.ErrConfiguration)
	}
	ctx.tree = t
	for _, root := range t.roots {
		if err := t.initNode(ctx, root); err != nil {
			return err
		}
	}
	t.initialized = true
	return t.Commit()
}

func (t *Tree) initNode(ctx *InitContext, n *StateNode) error {
	ctx.node = n
	for _, att := range n.systems {
		if err := t.resolveParams(ctx, att); err != nil {
			return err
		}
		ctx.options = att.options
		if err := att.instance.Init(ctx); err != nil {
			return fmt.Errorf("init system %q: %w", att.name, err)
		}
	}
	for _, child := range n.children {
		if err := t.initNode(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) resolveParams(ctx *InitContext, att *attachment) error {
	specs, ok := t.factory.Schema(att.typeName)
	if !ok {
		return nil
	}
	for _, spec := range specs {
		declared, declaredOK := att.params[spec.Name]

		var value any
		if declaredOK {
			resolver, ok := t.resolvers.Lookup(spec.Resolver)
			if !ok {
				return fmt.Errorf("%w: no resolver registered for kind %q (system %q, param %q)",
					domain.ErrUnresolvedRef, spec.Resolver, att.name, spec.Name)
			}
			resolved, err := resolver.Parse(declared, ctx)
			if err != nil {
				return fmt.Errorf("system %q, param %q: %w", att.name, spec.Name, err)
			}
			value = resolved
		} else {
			if spec.Default == nil {
				continue
			}
			value = spec.Default
		}

		if att.setParam == nil {
			return fmt.Errorf("%w: system %q declares schema but does not accept parameters",
				domain.ErrUnresolvedRef, att.name)
		}
		if err := att.setParam(spec.Name, value); err != nil {
			return fmt.Errorf("system %q, param %q: %w", att.name, spec.Name, err)
		}
	}
	return nil
}

// RequestTransition records name's node as the pending state. The request
// is deferred: it is applied by the next Commit, and a second request made
// before that point overwrites the first.
func (t *Tree) RequestTransition(name string) error {
	node, ok := t.nodesByName[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrMissingNode, name)
	}
	if !node.IsLeaf() {
		return fmt.Errorf("%w: %q", domain.ErrNotLeaf, name)
	}
	t.pending = node
	return nil
}

// Commit applies pending transitions until none remain. Each iteration
// takes and clears the pending slot, exits the old branch up to the common
// ancestor, swaps the active leaf, and enters the new branch down from that
// ancestor (enter pass, then post-enter pass). Taking the already-active
// leaf is a silent no-op. More than cascadeLimit chained transitions fail
// with domain.ErrCascadeLimit.
func (t *Tree) Commit() error {
	commits := 0
	for t.pending != nil {
		commits++
		if commits > cascadeLimit {
			return fmt.Errorf("%w: %d transitions chained in one commit", domain.ErrCascadeLimit, commits)
		}

		next := t.pending
		t.pending = nil
		if next == t.active {
			continue
		}

		var branchRoot *StateNode
		prev := t.active
		if prev != nil {
			root, err := t.CommonAncestor(prev, next)
			if err != nil {
				return err
			}
			branchRoot = root
			t.exitCascade(prev, branchRoot)
		}

		t.active = next
		t.enterCascade(next, branchRoot)
		t.postEnterCascade(next, branchRoot)

		t.logger.Debug("transition committed",
			"tree", t.name,
			"from", nodeName(prev),
			"to", next.name,
			"branch_root", nodeName(branchRoot),
			"depth", commits)
		if t.hooks.OnTransition != nil {
			t.hooks.OnTransition(&domain.TransitionEvent{
				Timestamp:  time.Now(),
				Tree:       t.name,
				From:       nodeName(prev),
				To:         next.name,
				BranchRoot: nodeName(branchRoot),
				Depth:      commits,
			})
		}
	}
	return nil
}

// Update drives one frame: commit any pending transition first (so a
// request from the previous frame's tail applies before this frame's
// logic), walk the active branch leaf-to-root for the update pass and
// again for the post-update pass, then commit once more so a request made
// during this frame takes effect immediately.
func (t *Tree) Update(ctx *UpdateContext) error {
	if ctx == nil {
		return fmt.Errorf("%w: update context", domain.ErrMissingArgument)
	}
	ctx.tree = t

	if err := t.Commit(); err != nil {
		return err
	}
	if t.active != nil {
		for n := t.active; n != nil; n = n.parent {
			for _, att := range n.systems {
				if att.update != nil {
					att.update(ctx)
				}
			}
		}
		for n := t.active; n != nil; n = n.parent {
			for _, att := range n.systems {
				if att.postUpdate != nil {
					att.postUpdate(ctx)
				}
			}
		}
	}
	return t.Commit()
}

// Teardown destroys every node depth-first (children and systems before
// self, systems in reverse attachment order) and clears the tree's state.
// No deactivate callbacks fire; Shutdown is the terminal signal.
func (t *Tree) Teardown() {
	for _, root := range t.roots {
		root.teardown()
	}
	t.roots = nil
	t.nodesByName = make(map[string]*StateNode)
	t.systemsByName = make(map[string]System)
	t.active = nil
	t.pending = nil
	t.defaultState = nil
}

// exitCascade deactivates systems in reverse attachment order, then climbs
// toward the branch root. Net effect: leaf-to-ancestor, stopping before
// root, so shared ancestors are never deactivated.
func (t *Tree) exitCascade(n, root *StateNode) {
	for i := len(n.systems) - 1; i >= 0; i-- {
		n.systems[i].instance.Deactivate()
	}
	if t.hooks.OnStateExit != nil {
		t.hooks.OnStateExit(&domain.StateEvent{
			Timestamp: time.Now(),
			Type:      domain.EventStateExit,
			Tree:      t.name,
			State:     n.name,
		})
	}
	if n.parent != nil && n.parent != root {
		t.exitCascade(n.parent, root)
	}
}

// enterCascade climbs to the branch root first, then activates on the way
// back down: ancestor-to-leaf, the exact reverse of exitCascade.
func (t *Tree) enterCascade(n, root *StateNode) {
	if n.parent != nil && n.parent != root {
		t.enterCascade(n.parent, root)
	}
	for _, att := range n.systems {
		att.instance.Activate()
	}
	if t.hooks.OnStateEnter != nil {
		t.hooks.OnStateEnter(&domain.StateEvent{
			Timestamp: time.Now(),
			Type:      domain.EventStateEnter,
			Tree:      t.name,
			State:     n.name,
		})
	}
}

// postEnterCascade mirrors enterCascade with the optional PostActivate
// hook, letting systems rely on the whole branch being active already.
func (t *Tree) postEnterCascade(n, root *StateNode) {
	if n.parent != nil && n.parent != root {
		t.postEnterCascade(n.parent, root)
	}
	for _, att := range n.systems {
		if att.postActivate != nil {
			att.postActivate()
		}
	}
}

func nodeName(n *StateNode) string {
	if n == nil {
		return ""
	}
	return n.name
}
