package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestMetrics_RegisterAndGather(t *testing.T) {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { reg.MustRegister(m.collectors()...) })

	m.CropsSimulated.Add(3)
	m.DaysSimulated.Add(730)
	m.CellDuration.WithLabelValues("simulate").Observe(0.2)

	assert.Equal(t, 3.0, counterValue(t, reg, "cropet_crops_simulated_total"))
	assert.Equal(t, 730.0, counterValue(t, reg, "cropet_days_simulated_total"))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	var first, second *Metrics
	assert.NotPanics(t, func() {
		first = NewMetricsForTesting()
		second = NewMetricsForTesting()
	})

	first.SeriesLoaded.Add(2)
	families, err := second.Gatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "cropet_series_loaded_total" {
			assert.Zero(t, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
