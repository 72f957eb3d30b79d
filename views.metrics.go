package views

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the render pipeline's Prometheus collectors. A nil *Metrics
// records nothing, so managers built without WithMetrics pay no cost.
type Metrics struct {
	renders     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	compiles    *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	errors      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricRendersTotal,
				Help:      MetricHelpRenders,
			},
			[]string{MetricLabelEngine, MetricLabelResult},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      MetricRenderDuration,
				Help:      MetricHelpRenderSeconds,
				Buckets:   prometheus.DefBuckets,
			},
			[]string{MetricLabelEngine},
		),
		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricCompilesTotal,
				Help:      MetricHelpCompiles,
			},
			[]string{MetricLabelEngine},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricCacheHitsTotal,
				Help:      MetricHelpCacheHits,
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricCacheMissesTotal,
				Help:      MetricHelpCacheMisses,
			},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricErrorsTotal,
				Help:      MetricHelpErrors,
			},
			[]string{MetricLabelKind, MetricLabelStage},
		),
	}

	for _, c := range []prometheus.Collector{m.renders, m.duration, m.compiles, m.cacheHits, m.cacheMisses, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRender(engine string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := MetricResultSuccess
	if err != nil {
		result = MetricResultFailure
	}
	m.renders.WithLabelValues(engine, result).Inc()
	m.duration.WithLabelValues(engine).Observe(elapsed.Seconds())
}

func (m *Metrics) observeError(ve *ViewError) {
	if m == nil || ve == nil {
		return
	}
	m.errors.WithLabelValues(string(ve.Kind), string(ve.Stage)).Inc()
}

func (m *Metrics) observeCompile(engine string) {
	if m == nil {
		return
	}
	m.compiles.WithLabelValues(engine).Inc()
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
