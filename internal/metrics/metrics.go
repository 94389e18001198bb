package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "piwallet"

// Metrics holds the collectors for the balance and transfer flows on a
// private registry.
type Metrics struct {
	registry       *prometheus.Registry
	balanceChecks  *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	horizonLatency *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		balanceChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_checks_total",
			Help:      "Balance checks by result.",
		}, []string{"result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Automatic transfer attempts by result.",
		}, []string{"result"}),
		horizonLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "horizon_request_seconds",
			Help:      "Latency of Horizon requests by operation and result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "result"}),
	}
	m.registry.MustRegister(
		m.balanceChecks,
		m.submissions,
		m.horizonLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordBalanceCheck(err error) {
	m.balanceChecks.WithLabelValues(ResultLabel(err)).Inc()
}

func (m *Metrics) RecordSubmission(err error) {
	m.submissions.WithLabelValues(ResultLabel(err)).Inc()
}

func (m *Metrics) ObserveHorizon(op string, d time.Duration, err error) {
	m.horizonLatency.WithLabelValues(op, ResultLabel(err)).Observe(d.Seconds())
}

// ResultLabel maps an outcome to a bounded label value.
func ResultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var perr *models.Error
	if errors.As(err, &perr) {
		return string(perr.Kind)
	}
	return "error"
}
