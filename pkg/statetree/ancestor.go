package statetree

import (
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
)

// CommonAncestor returns the deepest node shared by both states' ancestor
// chains: the boundary at which exit and enter cascades stop. It returns a
// itself when a == b, and nil (without error) when the two states belong to
// disjoint hierarchies.
//
// Membership is over strict ancestors, which keeps the result symmetric:
// when one argument is an ancestor of the other, the result is that
// ancestor's own parent, or nil when the ancestor is a root. Commits never
// hit this case (both arguments are always leaves), but direct callers
// should not read nil as "disjoint" for such pairs.
//
// The walk is lock-step over both parent chains with an identity membership
// test per step, O(depth²) worst case. Hierarchy depth in this domain is
// single-digit to low tens, so the quadratic bound is irrelevant in practice.
func (t *Tree) CommonAncestor(a, b *StateNode) (*StateNode, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: common ancestor requires two states", domain.ErrMissingArgument)
	}
	if a == b {
		return a, nil
	}

	candA, candB := a.parent, b.parent
	for candA != nil || candB != nil {
		if candA != nil {
			if b.hasAncestor(candA) {
				return candA, nil
			}
			candA = candA.parent
		}
		if candB != nil {
			if a.hasAncestor(candB) {
				return candB, nil
			}
			candB = candB.parent
		}
	}
	return nil, nil
}
