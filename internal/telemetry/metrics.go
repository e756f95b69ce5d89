// Package telemetry holds the Prometheus collectors and OpenTelemetry
// tracer shared by the store, webfs and inspector packages.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "sugar").
	Namespace string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = registry }
}

func defaultConfig() Config {
	return Config{
		Namespace: "sugar",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is the set of collectors recorded by this module.
type Metrics struct {
	StoreSaves       *prometheus.CounterVec
	StoreSaveErrors  *prometheus.CounterVec
	StoreHydrations  *prometheus.CounterVec
	StoreCommits     *prometheus.CounterVec
	WalkFiles        prometheus.Counter
	WalkDuration     prometheus.Histogram
	WalkStatFailures prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	WatchClients     prometheus.Gauge
}

// New registers a fresh set of collectors.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)
	ns := config.Namespace

	return &Metrics{
		StoreSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "store",
			Name:        "saves_total",
			Help:        "Total number of persisted store writes",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		StoreSaveErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "store",
			Name:        "save_errors_total",
			Help:        "Total number of failed store writes",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		StoreHydrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "store",
			Name:        "hydrations_total",
			Help:        "Store hydration attempts by result",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "result"}),

		StoreCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "store",
			Name:        "commits_total",
			Help:        "Total number of committed store changes",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		WalkFiles: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "webfs",
			Name:        "walk_files_total",
			Help:        "Total number of files produced by tree walks",
			ConstLabels: config.ConstLabels,
		}),

		WalkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "webfs",
			Name:        "walk_duration_seconds",
			Help:        "Tree walk duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		WalkStatFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "webfs",
			Name:        "stat_failures_total",
			Help:        "Files whose metadata could not be read",
			ConstLabels: config.ConstLabels,
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "inspect",
			Name:        "requests_total",
			Help:        "Inspector HTTP requests by route and status class",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "inspect",
			Name:        "request_duration_seconds",
			Help:        "Inspector HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		WatchClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   "inspect",
			Name:        "watch_clients",
			Help:        "Connected store watch websockets",
			ConstLabels: config.ConstLabels,
		}),
	}
}

var (
	defaultMetrics   *Metrics
	defaultMetricsMu sync.Mutex
)

// Default returns the process-wide collectors, registering them on
// prometheus.DefaultRegisterer on first use.
func Default() *Metrics {
	defaultMetricsMu.Lock()
	defer defaultMetricsMu.Unlock()
	if defaultMetrics == nil {
		defaultMetrics = New()
	}
	return defaultMetrics
}

// SetDefault replaces the process-wide collectors. Tests use it with a
// private registry.
func SetDefault(m *Metrics) {
	defaultMetricsMu.Lock()
	defaultMetrics = m
	defaultMetricsMu.Unlock()
}
