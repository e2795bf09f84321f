package statetree_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/statetree"
)

// wired is a system that receives injected parameters.
type wired struct {
	recorder
	peer   statetree.System
	target *statetree.TransitionHandle
	speed  float64
}

func (w *wired) SetParam(name string, value any) error {
	switch name {
	case "peer":
		sys, ok := value.(statetree.System)
		if !ok {
			return fmt.Errorf("peer: expected system, got %T", value)
		}
		w.peer = sys
	case "target":
		handle, ok := value.(*statetree.TransitionHandle)
		if !ok {
			return fmt.Errorf("target: expected transition handle, got %T", value)
		}
		w.target = handle
	case "speed":
		f, ok := value.(float64)
		if !ok {
			return fmt.Errorf("speed: expected float64, got %T", value)
		}
		w.speed = f
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

// rawResolver passes the declared value through untouched.
type rawResolver struct{}

func (rawResolver) Parse(declared any, ctx *statetree.InitContext) (any, error) {
	return declared, nil
}

func wiredFactory(log *[]string, specs []statetree.ParamSpec) *testFactory {
	f := &testFactory{
		types:   make(map[string]func() statetree.System),
		schemas: map[string][]statetree.ParamSpec{"wired_sys": specs},
	}
	f.types["wired_sys"] = func() statetree.System {
		w := &wired{}
		w.name = "wired_sys"
		w.log = log
		return w
	}
	f.types["plain_sys"] = func() statetree.System {
		return &recorder{name: "plain_sys", log: log}
	}
	return f
}

func TestSystemReference(t *testing.T) {
	log := []string{}
	specs := []statetree.ParamSpec{{Name: "peer", Resolver: statetree.ResolverSystem}}

	build := func(desc *domain.TreeDescription) (*statetree.Tree, error) {
		tree, err := statetree.New(wiredFactory(&log, specs), desc)
		if err != nil {
			return nil, err
		}
		return tree, tree.Init(statetree.NewInitContext())
	}

	t.Run("resolves ancestor system", func(t *testing.T) {
		tree, err := build(&domain.TreeDescription{
			Main: "leaf",
			States: []domain.StateDescription{
				state("root", []string{"leaf"}, "plain_sys"),
				{Name: "leaf", Systems: []domain.SystemDescription{{
					Type:   "wired_sys",
					Params: map[string]any{"peer": "plain_sys"},
				}}},
			},
		})
		require.NoError(t, err)
		sys, ok := tree.System("wired_sys")
		require.True(t, ok)
		assert.NotNil(t, sys.(*wired).peer)
	})

	t.Run("sibling branch is out of scope", func(t *testing.T) {
		_, err := build(&domain.TreeDescription{
			Main: "leaf_a",
			States: []domain.StateDescription{
				state("root", []string{"leaf_a", "leaf_b"}),
				state("leaf_b", nil, "plain_sys"),
				{Name: "leaf_a", Systems: []domain.SystemDescription{{
					Type:   "wired_sys",
					Params: map[string]any{"peer": "plain_sys"},
				}}},
			},
		})
		require.ErrorIs(t, err, domain.ErrUnresolvedRef)
	})

	t.Run("non-string declared value", func(t *testing.T) {
		_, err := build(&domain.TreeDescription{
			States: []domain.StateDescription{
				{Name: "leaf", Systems: []domain.SystemDescription{{
					Type:   "wired_sys",
					Params: map[string]any{"peer": 42},
				}}},
			},
		})
		require.ErrorIs(t, err, domain.ErrUnresolvedRef)
	})
}

func TestStateReference(t *testing.T) {
	log := []string{}
	specs := []statetree.ParamSpec{{Name: "target", Resolver: statetree.ResolverState}}

	desc := func(target any) *domain.TreeDescription {
		return &domain.TreeDescription{
			Main: "leaf_a",
			States: []domain.StateDescription{
				state("root", []string{"leaf_a", "leaf_b"}),
				{Name: "leaf_a", Systems: []domain.SystemDescription{{
					Type:   "wired_sys",
					Params: map[string]any{"target": target},
				}}},
				state("leaf_b", nil),
			},
		}
	}

	t.Run("handle requests transition on apply", func(t *testing.T) {
		tree, err := statetree.New(wiredFactory(&log, specs), desc("leaf_b"))
		require.NoError(t, err)
		require.NoError(t, tree.Init(statetree.NewInitContext()))

		sys, _ := tree.System("wired_sys")
		handle := sys.(*wired).target
		require.NotNil(t, handle)
		assert.Equal(t, "leaf_b", handle.State())

		require.NoError(t, handle.Apply())
		// Deferred: nothing moves until the next commit point.
		assert.Equal(t, "leaf_a", tree.Active().Name())
		require.NoError(t, tree.Commit())
		assert.Equal(t, "leaf_b", tree.Active().Name())
	})

	t.Run("unknown state", func(t *testing.T) {
		tree, err := statetree.New(wiredFactory(&log, specs), desc("ghost"))
		require.NoError(t, err)
		require.ErrorIs(t, tree.Init(statetree.NewInitContext()), domain.ErrUnresolvedRef)
	})

	t.Run("non-leaf state", func(t *testing.T) {
		tree, err := statetree.New(wiredFactory(&log, specs), desc("root"))
		require.NoError(t, err)
		require.ErrorIs(t, tree.Init(statetree.NewInitContext()), domain.ErrUnresolvedRef)
	})
}

func TestParamDefaults(t *testing.T) {
	log := []string{}
	specs := []statetree.ParamSpec{
		{Name: "speed", Resolver: "raw", Default: 1.5},
	}
	resolvers := statetree.NewResolvers()
	resolvers.Register("raw", rawResolver{})

	t.Run("declared value wins", func(t *testing.T) {
		tree, err := statetree.New(wiredFactory(&log, specs), &domain.TreeDescription{
			States: []domain.StateDescription{
				{Name: "leaf", Systems: []domain.SystemDescription{{
					Type:   "wired_sys",
					Params: map[string]any{"speed": 3.0},
				}}},
			},
		}, statetree.WithResolvers(resolvers))
		require.NoError(t, err)
		require.NoError(t, tree.Init(statetree.NewInitContext()))
		sys, _ := tree.System("wired_sys")
		assert.Equal(t, 3.0, sys.(*wired).speed)
	})

	t.Run("default fills absent param", func(t *testing.T) {
		tree, err := statetree.New(wiredFactory(&log, specs), &domain.TreeDescription{
			States: []domain.StateDescription{
				{Name: "leaf", Systems: []domain.SystemDescription{{Type: "wired_sys"}}},
			},
		}, statetree.WithResolvers(resolvers))
		require.NoError(t, err)
		require.NoError(t, tree.Init(statetree.NewInitContext()))
		sys, _ := tree.System("wired_sys")
		assert.Equal(t, 1.5, sys.(*wired).speed)
	})

	t.Run("unregistered resolver kind", func(t *testing.T) {
		tree, err := statetree.New(wiredFactory(&log, specs), &domain.TreeDescription{
			States: []domain.StateDescription{
				{Name: "leaf", Systems: []domain.SystemDescription{{
					Type:   "wired_sys",
					Params: map[string]any{"speed": 3.0},
				}}},
			},
		})
		require.NoError(t, err)
		// Default registry has no "raw" kind.
		require.ErrorIs(t, tree.Init(statetree.NewInitContext()), domain.ErrUnresolvedRef)
	})
}
