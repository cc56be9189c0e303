package spotter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestPrometheusSpotterExportsSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPrometheusSpotter("test-net", WithRegisterer(reg), WithNamespace("nsim_test"))

	require.NoError(t, s.PreSolver(0.01))
	require.NoError(t, s.PostSolver(0.01, Snapshot{
		NodePotentials:  map[string]float64{"bus": 1.5},
		IslandCount:     2,
		MinorSteps:      3,
		Converged:       true,
		SingularIslands: []int{0},
		TripEvents:      []string{"breaker1"},
	}))

	assert.Equal(t, 2.0, gaugeValue(t, s.islandCount))
	assert.Equal(t, 3.0, gaugeValue(t, s.minorSteps))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestPrometheusSpotterNonConvergenceCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPrometheusSpotter("test-net", WithRegisterer(reg))

	require.NoError(t, s.PostSolver(0.01, Snapshot{Converged: false}))

	var m dto.Metric
	require.NoError(t, s.nonConverge.Write(&m))
	assert.Equal(t, 1.0, m.GetCounter().GetValue())
}
