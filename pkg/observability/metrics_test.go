package observability_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
)

func TestMetrics_TransitionHook(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	hooks := metrics.Hooks()
	require.NotNil(t, hooks.OnTransition)

	hooks.OnTransition(&domain.TransitionEvent{Tree: "game", To: "lobby", Depth: 1})
	hooks.OnTransition(&domain.TransitionEvent{Tree: "game", To: "match", Depth: 2})
	hooks.OnTransition(&domain.TransitionEvent{Tree: "game", To: "lobby", Depth: 1})

	count := testutil.CollectAndCount(reg, "canopy_transitions_total")
	assert.Equal(t, 2, count) // two label combinations
}

func TestMetrics_SessionGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	metrics.SessionOpened()
	metrics.SessionOpened()
	metrics.SessionClosed()
	metrics.ObserveUpdate(5 * time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var gauge float64
	for _, fam := range families {
		if fam.GetName() == "canopy_active_sessions" {
			gauge = fam.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 1.0, gauge)
}
