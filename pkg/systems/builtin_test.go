package systems_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/eventbus"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/statetree"
	"github.com/aretw0/canopy/pkg/systems"
)

func builtinTree(t *testing.T, bus *eventbus.Bus, desc *domain.TreeDescription) *statetree.Tree {
	t.Helper()
	reg := registry.New()
	systems.Register(reg, nil, bus)
	tree, err := statetree.New(reg, desc)
	require.NoError(t, err)
	require.NoError(t, tree.Init(statetree.NewInitContext()))
	return tree
}

func TestCounter_PublishesTicks(t *testing.T) {
	bus := eventbus.New()
	tree := builtinTree(t, bus, &domain.TreeDescription{
		Name: "game",
		States: []domain.StateDescription{
			{Name: "match", Systems: []domain.SystemDescription{{
				Name:    "score",
				Type:    systems.TypeCounter,
				Options: map[string]any{"event": "score.tick"},
			}}},
		},
	})

	var ticks []systems.CounterTick
	bus.Subscribe("score.tick", func(payload any) {
		ticks = append(ticks, payload.(systems.CounterTick))
	})

	delta := 16 * time.Millisecond
	require.NoError(t, tree.Update(statetree.NewUpdateContext(delta)))
	require.NoError(t, tree.Update(statetree.NewUpdateContext(delta)))

	require.Len(t, ticks, 2)
	assert.Equal(t, 1, ticks[0].Count)
	assert.Equal(t, 2, ticks[1].Count)
	assert.Equal(t, "match", ticks[1].State)
	assert.Equal(t, delta, ticks[1].Delta)

	sys, ok := tree.System("score")
	require.True(t, ok)
	assert.Equal(t, 2, sys.(*systems.Counter).Count())
}

func TestSwitcher_TransitionsAfterFrames(t *testing.T) {
	tree := builtinTree(t, nil, &domain.TreeDescription{
		Name: "game",
		Main: "intro",
		States: []domain.StateDescription{
			{Name: "root", Children: []string{"intro", "menu"}},
			{Name: "intro", Systems: []domain.SystemDescription{{
				Name:    "advance",
				Type:    systems.TypeSwitcher,
				Params:  map[string]any{"target": "menu"},
				Options: map[string]any{"after": 3},
			}}},
			{Name: "menu"},
		},
	})

	for i := 0; i < 2; i++ {
		require.NoError(t, tree.Update(statetree.NewUpdateContext(0)))
		assert.Equal(t, "intro", tree.Active().Name())
	}
	require.NoError(t, tree.Update(statetree.NewUpdateContext(0)))
	assert.Equal(t, "menu", tree.Active().Name())
}

func TestSwitcher_RequiresTarget(t *testing.T) {
	reg := registry.New()
	systems.Register(reg, nil, nil)
	tree, err := statetree.New(reg, &domain.TreeDescription{
		Name: "game",
		States: []domain.StateDescription{
			{Name: "intro", Systems: []domain.SystemDescription{{Type: systems.TypeSwitcher}}},
		},
	})
	require.NoError(t, err)
	require.Error(t, tree.Init(statetree.NewInitContext()))
}

func TestSwitcher_CounterReference(t *testing.T) {
	tree := builtinTree(t, nil, &domain.TreeDescription{
		Name: "game",
		Main: "intro",
		States: []domain.StateDescription{
			{Name: "root", Children: []string{"intro", "menu"},
				Systems: []domain.SystemDescription{{Name: "frames", Type: systems.TypeCounter}}},
			{Name: "intro", Systems: []domain.SystemDescription{{
				Name:    "advance",
				Type:    systems.TypeSwitcher,
				Params:  map[string]any{"target": "menu", "counter": "frames"},
				Options: map[string]any{"after": 1},
			}}},
			{Name: "menu"},
		},
	})

	require.NoError(t, tree.Update(statetree.NewUpdateContext(0)))
	assert.Equal(t, "menu", tree.Active().Name())
}
