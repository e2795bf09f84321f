package statetree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/statetree"
)

// forestTree builds two disjoint hierarchies:
//
//	root1 -> root1_child1
//	root2 -> root2_child1 -> {root2_child1_child1, root2_child1_child2}
func forestTree(t *testing.T) *statetree.Tree {
	t.Helper()
	log := []string{}
	tree, err := statetree.New(recorderFactory(&log), &domain.TreeDescription{
		Main: "root1_child1",
		States: []domain.StateDescription{
			state("root1", []string{"root1_child1"}),
			state("root1_child1", nil),
			state("root2", []string{"root2_child1"}),
			state("root2_child1", []string{"root2_child1_child1", "root2_child1_child2"}),
			state("root2_child1_child1", nil),
			state("root2_child1_child2", nil),
		},
	})
	require.NoError(t, err)
	return tree
}

func mustNode(t *testing.T, tree *statetree.Tree, name string) *statetree.StateNode {
	t.Helper()
	node, ok := tree.Node(name)
	require.True(t, ok, "node %q", name)
	return node
}

func TestCommonAncestor(t *testing.T) {
	tree := forestTree(t)

	siblingA := mustNode(t, tree, "root2_child1_child1")
	siblingB := mustNode(t, tree, "root2_child1_child2")
	otherRootLeaf := mustNode(t, tree, "root1_child1")

	t.Run("siblings share their parent", func(t *testing.T) {
		got, err := tree.CommonAncestor(siblingA, siblingB)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "root2_child1", got.Name())
	})

	t.Run("identity", func(t *testing.T) {
		got, err := tree.CommonAncestor(siblingA, siblingA)
		require.NoError(t, err)
		assert.Same(t, siblingA, got)
	})

	t.Run("ancestor and descendant", func(t *testing.T) {
		mid := mustNode(t, tree, "root2_child1")
		got, err := tree.CommonAncestor(mid, siblingA)
		require.NoError(t, err)
		assert.Equal(t, "root2", got.Name())
	})

	t.Run("root and its descendant yield nil", func(t *testing.T) {
		root2 := mustNode(t, tree, "root2")
		got, err := tree.CommonAncestor(root2, siblingA)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("disjoint hierarchies yield nil without error", func(t *testing.T) {
		got, err := tree.CommonAncestor(otherRootLeaf, siblingA)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("symmetry", func(t *testing.T) {
		pairs := [][2]*statetree.StateNode{
			{siblingA, siblingB},
			{otherRootLeaf, siblingA},
			{mustNode(t, tree, "root2"), siblingB},
		}
		for _, pair := range pairs {
			ab, err := tree.CommonAncestor(pair[0], pair[1])
			require.NoError(t, err)
			ba, err := tree.CommonAncestor(pair[1], pair[0])
			require.NoError(t, err)
			assert.Same(t, ab, ba)
		}
	})

	t.Run("nil argument", func(t *testing.T) {
		_, err := tree.CommonAncestor(nil, siblingA)
		require.ErrorIs(t, err, domain.ErrMissingArgument)
		_, err = tree.CommonAncestor(siblingA, nil)
		require.ErrorIs(t, err, domain.ErrMissingArgument)
	})
}
