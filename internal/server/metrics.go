package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tartampluch/go-amlich/internal/config"
)

// Metrics holds the collectors of one server instance. They are registered
// on a private registry so several servers (and tests) can coexist.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	feedBuilds   *prometheus.CounterVec
	feedDuration prometheus.Histogram
	feedDays     prometheus.Gauge
}

// NewMetrics creates and registers the server collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: config.MetricRequests, Help: config.MetricRequestsHelp},
			[]string{config.LabelRoute, config.LabelCode},
		),
		feedBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: config.MetricFeedBuilds, Help: config.MetricFeedBuildsHelp},
			[]string{config.LabelOutcome},
		),
		feedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    config.MetricFeedDuration,
			Help:    config.MetricFeedDurHelp,
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		feedDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: config.MetricFeedDays,
			Help: config.MetricFeedDaysHelp,
		}),
	}
	m.registry.MustRegister(m.requests, m.feedBuilds, m.feedDuration, m.feedDays)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument counts the responses of next under route.
func (m *Metrics) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}

// observeFeed records the outcome of one feed rebuild.
func (m *Metrics) observeFeed(seconds float64, days int, err error) {
	m.feedDuration.Observe(seconds)
	if err != nil {
		m.feedBuilds.WithLabelValues(config.OutcomeError).Inc()
		return
	}
	m.feedBuilds.WithLabelValues(config.OutcomeSuccess).Inc()
	m.feedDays.Set(float64(days))
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
