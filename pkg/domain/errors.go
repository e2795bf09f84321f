package domain

import "errors"

// Construction and wiring errors.
var (
	// ErrConfiguration is returned when a tree is constructed without a
	// factory or without a description.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDuplicateName is returned when a state name or a system instance
	// name collides with one already registered in the tree.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnknownType is returned when the factory cannot produce the
	// requested system type.
	ErrUnknownType = errors.New("unknown system type")

	// ErrMissingNode is returned when a state name does not resolve to a
	// node in the tree.
	ErrMissingNode = errors.New("state not found")

	// ErrMultipleParent is returned when a state is declared as a child by
	// more than one parent.
	ErrMultipleParent = errors.New("state claimed by multiple parents")
)

// Runtime errors.
var (
	// ErrNotLeaf is returned when a transition targets a state that has
	// children. Only leaves may become the active state.
	ErrNotLeaf = errors.New("transition target is not a leaf")

	// ErrUnresolvedRef is returned when a declared parameter reference
	// cannot be resolved against the live tree.
	ErrUnresolvedRef = errors.New("unresolved reference")

	// ErrCascadeLimit is returned when a single commit call chains more
	// transitions than the cascade bound allows. It usually means a system
	// unconditionally requests a transition from its activate callback.
	ErrCascadeLimit = errors.New("transition cascade limit exceeded")

	// ErrMissingArgument is returned when a required context or argument
	// is nil.
	ErrMissingArgument = errors.New("missing argument")
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
