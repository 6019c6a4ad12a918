package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pillar"

// Metrics holds the service collectors. A nil *Metrics is a no-op.
type Metrics struct {
	registry      *prometheus.Registry
	Evaluations   *prometheus.CounterVec
	Scores        prometheus.Histogram
	Notifications *prometheus.CounterVec
	Sessions      prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Evaluations by recommendation and context source.",
			}, []string{"recommendation", "source"}),
		Scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "total_score",
				Help:      "Distribution of clamped total scores.",
				Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			}),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Signal notifications by channel and outcome.",
			}, []string{"channel", "outcome"}),
		Sessions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_created_total",
				Help:      "Sessions created.",
			}),
	}
	m.registry.MustRegister(m.Evaluations, m.Scores, m.Notifications, m.Sessions)
	return m
}

func (m *Metrics) ObserveEvaluation(recommendation, source string, total float64) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(recommendation, source).Inc()
	m.Scores.Observe(total)
}

func (m *Metrics) IncNotification(channel, outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) IncSessions() {
	if m == nil {
		return
	}
	m.Sessions.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
