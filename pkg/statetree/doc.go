// Package statetree implements the running-context engine: a hierarchy of
// mutually exclusive execution states with per-state systems that are
// activated and deactivated as the active context changes.
//
// The tree is built once from a domain.TreeDescription, initialized once,
// and then driven by per-frame Update calls. Transitions are requested by
// leaf name and deferred: they are committed at the defined points around
// each update, running exit cascades leaf-to-root and enter cascades
// root-to-leaf, both bounded by the common ancestor of the old and new
// active leaf so that shared ancestors are never torn down.
//
// The engine is single-threaded by design. All calls are synchronous and
// must come from the one goroutine driving the tree; out-of-band transition
// requests belong in runner.Runner, which marshals them onto that goroutine.
package statetree
