package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cropet"

// Metrics holds the Prometheus counters, histograms, and gauges for a simulation run.
type Metrics struct {
	CellsProcessed    prometheus.Counter
	CropsSimulated    prometheus.Counter
	DaysSimulated     prometheus.Counter
	SimulationErrors  prometheus.Counter
	SeriesLoaded      prometheus.Counter
	LongtermFallbacks prometheus.Counter
	LoadRetries       prometheus.Counter
	PipelineRunning   prometheus.Gauge

	CellDuration *prometheus.HistogramVec // labels: stage={extract,simulate,load}

	// Gatherer serves the registry the metrics were registered with.
	Gatherer prometheus.Gatherer
}

func newMetrics() *Metrics {
	return &Metrics{
		CellsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_processed_total",
			Help:      "Cells whose crops were all simulated and loaded.",
		}),
		CropsSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crops_simulated_total",
			Help:      "Cell and crop pairs simulated.",
		}),
		DaysSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_simulated_total",
			Help:      "Crop days stepped through the Kc state machine.",
		}),
		SimulationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_errors_total",
			Help:      "Cells that failed to extract, simulate or load.",
		}),
		SeriesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_loaded_total",
			Help:      "Crop series written to the sinks.",
		}),
		LongtermFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "longterm_fallbacks_total",
			Help:      "Crops whose long-term start estimate fell back to 0.",
		}),
		LoadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_retries_total",
			Help:      "Sink writes retried after a failure.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a simulation run is active, 0 otherwise.",
		}),
		CellDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cell_duration_seconds",
			Help:      "Time spent per cell in each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CellsProcessed,
		m.CropsSimulated,
		m.DaysSimulated,
		m.SimulationErrors,
		m.SeriesLoaded,
		m.LongtermFallbacks,
		m.LoadRetries,
		m.PipelineRunning,
		m.CellDuration,
	}
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	m.Gatherer = prometheus.DefaultGatherer
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	m.Gatherer = reg
	return m
}
