package spotter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Option configures a PrometheusSpotter via functional options, mirroring
// this module's ambient configuration convention.
type Option func(*config)

type config struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer
}

// WithNamespace overrides the metric namespace (default "netsim").
func WithNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// WithSubsystem overrides the metric subsystem (default "solver").
func WithSubsystem(ss string) Option {
	return func(c *config) { c.subsystem = ss }
}

// WithRegisterer overrides the Prometheus registerer metrics are registered
// against (default prometheus.DefaultRegisterer).
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) { c.registry = r }
}

// PrometheusSpotter is the concrete Spotter that exports node potentials,
// island counts, minor-step iteration counts, and trip events as
// Prometheus gauges/counters — the natural home for spec.md's "sensors,
// monitors, telemetry" Spotter role (spec §2 component E).
type PrometheusSpotter struct {
	networkName string

	potential   *prometheus.GaugeVec
	islandCount prometheus.Gauge
	minorSteps  prometheus.Gauge
	converged   prometheus.Counter
	nonConverge prometheus.Counter
	singular    *prometheus.CounterVec
	trips       *prometheus.CounterVec
}

// NewPrometheusSpotter constructs a PrometheusSpotter for the given network
// name, registering its metrics against the configured (or default)
// registerer.
func NewPrometheusSpotter(networkName string, opts ...Option) *PrometheusSpotter {
	cfg := config{namespace: "netsim", subsystem: "solver", registry: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.registry)

	return &PrometheusSpotter{
		networkName: networkName,
		potential: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "node_potential",
			Help:      "Current potential of each node after the last solved step.",
		}, []string{"network", "node"}),
		islandCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "island_count",
			Help:      "Number of islands produced by the last decomposition.",
		}),
		minorSteps: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "minor_steps",
			Help:      "Number of minor-step iterations the last major step ran.",
		}),
		converged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "converged_steps_total",
			Help:      "Total number of major steps that confirmed within max_minor_steps.",
		}),
		nonConverge: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "non_convergence_total",
			Help:      "Total number of major steps that exhausted max_minor_steps without Confirm.",
		}),
		singular: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "singular_island_total",
			Help:      "Total number of singular-matrix faults, by island id.",
		}, []string{"network", "island"}),
		trips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "trip_events_total",
			Help:      "Total number of trip events, by link name.",
		}, []string{"network", "link"}),
	}
}

// PreSolver is a no-op for PrometheusSpotter: it has nothing to report
// before the step runs.
func (p *PrometheusSpotter) PreSolver(dt float64) error { return nil }

// PostSolver exports the step's snapshot as Prometheus samples.
func (p *PrometheusSpotter) PostSolver(dt float64, snap Snapshot) error {
	for name, potential := range snap.NodePotentials {
		p.potential.WithLabelValues(p.networkName, name).Set(potential)
	}
	p.islandCount.Set(float64(snap.IslandCount))
	p.minorSteps.Set(float64(snap.MinorSteps))
	if snap.Converged {
		p.converged.Inc()
	} else {
		p.nonConverge.Inc()
	}
	for _, id := range snap.SingularIslands {
		p.singular.WithLabelValues(p.networkName, itoa(id)).Inc()
	}
	for _, link := range snap.TripEvents {
		p.trips.WithLabelValues(p.networkName, link).Inc()
	}
	return nil
}

var _ Spotter = (*PrometheusSpotter)(nil)

// itoa avoids importing strconv solely for counter-vec label formatting of
// small non-negative island ids.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
