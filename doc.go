// Package canopy manages the running context of long-lived game and
// session servers as a tree of mutually exclusive execution states.
//
// Each state owns an ordered set of systems with lifecycle callbacks;
// transitions between leaf states run exit and enter cascades bounded by
// the common ancestor of the old and new branch, so shared ancestors stay
// active across the change.
//
// The high-level Engine in this package wraps pkg/statetree with loading,
// logging, event publication, and functional options. Hosts that need
// many concurrent contexts should use pkg/session; hosts that need a
// self-driving tick loop should use pkg/runner.
package canopy
