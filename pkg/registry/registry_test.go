package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/statetree"
)

type nopSystem struct{}

func (nopSystem) Init(ctx *statetree.InitContext) error { return nil }
func (nopSystem) Shutdown()                             {}
func (nopSystem) Activate()                             {}
func (nopSystem) Deactivate()                           {}

func TestRegistry_CreateAndSchema(t *testing.T) {
	reg := registry.New()
	reg.Register("nop", func() statetree.System { return nopSystem{} })
	reg.Register("wired", func() statetree.System { return nopSystem{} },
		statetree.ParamSpec{Name: "target", Resolver: statetree.ResolverState})

	t.Run("create known type", func(t *testing.T) {
		sys, err := reg.Create("nop")
		require.NoError(t, err)
		assert.NotNil(t, sys)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := reg.Create("ghost")
		require.ErrorIs(t, err, domain.ErrUnknownType)
	})

	t.Run("schema lookup", func(t *testing.T) {
		specs, ok := reg.Schema("wired")
		require.True(t, ok)
		require.Len(t, specs, 1)
		assert.Equal(t, "target", specs[0].Name)

		_, ok = reg.Schema("nop")
		assert.False(t, ok)
	})

	t.Run("types listing", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"nop", "wired"}, reg.Types())
	})
}

func TestDecodeOptions(t *testing.T) {
	type config struct {
		Level    string `mapstructure:"level"`
		Interval int    `mapstructure:"interval"`
	}

	t.Run("decodes into struct", func(t *testing.T) {
		var cfg config
		err := registry.DecodeOptions(map[string]any{"level": "debug", "interval": 5}, &cfg)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Level)
		assert.Equal(t, 5, cfg.Interval)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		var cfg config
		err := registry.DecodeOptions(map[string]any{"levle": "debug"}, &cfg)
		require.Error(t, err)
	})
}
