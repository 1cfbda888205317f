package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Option func(*Manager)

func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the publish metrics and the registry they are exposed from
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	publishes       *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	renderFailures  prometheus.Counter
	sourceFailures  *prometheus.CounterVec
	skippedRows     *prometheus.CounterVec
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "job_pulse",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.publishes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "publish_total",
		Help:      "Publish runs by run mode, action and outcome.",
	}, []string{"mode", "action", "outcome"})

	m.publishDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "publish_duration_seconds",
		Help:      "Wall time of a publish run.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	m.renderFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "render_failures_total",
		Help:      "Report sections replaced by a render-error placeholder.",
	})

	m.sourceFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "source_failures_total",
		Help:      "Sources dropped because they failed to load or held no usable rows.",
	}, []string{"source", "reason"})

	m.skippedRows = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "skipped_rows_total",
		Help:      "Malformed rows excluded while loading a source.",
	}, []string{"source"})

	return m
}

func (m *Manager) ObservePublish(mode, action, outcome string, elapsed time.Duration) {
	m.publishes.WithLabelValues(mode, action, outcome).Inc()
	m.publishDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Manager) AddRenderFailures(n int) {
	if n > 0 {
		m.renderFailures.Add(float64(n))
	}
}

func (m *Manager) SourceDropped(source, reason string) {
	m.sourceFailures.WithLabelValues(source, reason).Inc()
}

func (m *Manager) AddSkippedRows(source string, n int) {
	if n > 0 {
		m.skippedRows.WithLabelValues(source).Add(float64(n))
	}
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
