package statetree

import (
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
)

// Resolver kind tags for the built-in reference types.
const (
	// ResolverSystem resolves a declared instance name to the live system
	// reachable from the initializing node or its ancestors.
	ResolverSystem = "system"

	// ResolverState resolves a declared leaf name to a TransitionHandle.
	ResolverState = "state"
)

// ParamResolver turns a declared parameter value into a live one during
// the initialization pass.
type ParamResolver interface {
	Parse(declared any, ctx *InitContext) (any, error)
}

// Resolvers is the registry of parameter reference kinds. It is built once
// before tree construction and passed into New via WithResolvers; it must
// not be mutated afterwards.
type Resolvers struct {
	byTag map[string]ParamResolver
}

// NewResolvers creates a registry pre-populated with the built-in kinds.
func NewResolvers() *Resolvers {
	r := &Resolvers{byTag: make(map[string]ParamResolver)}
	r.Register(ResolverSystem, systemResolver{})
	r.Register(ResolverState, stateResolver{})
	return r
}

// Register adds a resolver under a tag, replacing any previous one.
func (r *Resolvers) Register(tag string, resolver ParamResolver) {
	r.byTag[tag] = resolver
}

// Lookup returns the resolver registered under tag.
func (r *Resolvers) Lookup(tag string) (ParamResolver, bool) {
	resolver, ok := r.byTag[tag]
	return resolver, ok
}

type systemResolver struct{}

func (systemResolver) Parse(declared any, ctx *InitContext) (any, error) {
	name, ok := declared.(string)
	if !ok {
		return nil, fmt.Errorf("%w: system reference must be a string, got %T", domain.ErrUnresolvedRef, declared)
	}
	sys, ok := ctx.System(name)
	if !ok {
		return nil, fmt.Errorf("%w: system %q not reachable from state %q",
			domain.ErrUnresolvedRef, name, ctx.Node().Name())
	}
	return sys, nil
}

type stateResolver struct{}

func (stateResolver) Parse(declared any, ctx *InitContext) (any, error) {
	name, ok := declared.(string)
	if !ok {
		return nil, fmt.Errorf("%w: state reference must be a string, got %T", domain.ErrUnresolvedRef, declared)
	}
	node, ok := ctx.Tree().Node(name)
	if !ok {
		return nil, fmt.Errorf("%w: state %q does not exist", domain.ErrUnresolvedRef, name)
	}
	if !node.IsLeaf() {
		return nil, fmt.Errorf("%w: state %q is not a leaf", domain.ErrUnresolvedRef, name)
	}
	return &TransitionHandle{tree: ctx.Tree(), state: name}, nil
}

// TransitionHandle is a lightweight handle bound to a tree and a leaf name.
// Systems hold it as an injected parameter and call Apply to request the
// transition.
type TransitionHandle struct {
	tree  *Tree
	state string
}

// State returns the target leaf name.
func (h *TransitionHandle) State() string { return h.state }

// Apply requests a transition to the bound leaf. The request is deferred
// and committed at the tree's defined commit points.
func (h *TransitionHandle) Apply() error {
	return h.tree.RequestTransition(h.state)
}
