package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "makono"

// Metrics groups the collectors exported on /metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	LoanOps       *prometheus.CounterVec
	SweepPatches  *prometheus.CounterVec
	SweepDuration *prometheus.HistogramVec
	Notifications *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		LoanOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loan_operations_total",
			Help:      "Lifecycle operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		SweepPatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_patches_total",
			Help:      "Sweep patches submitted, by kind and whether they applied.",
		}, []string{"kind", "applied"}),
		SweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of one sweep pass.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sweep"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications appended to the log, by type.",
		}, []string{"type"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.LoanOps, m.SweepPatches, m.SweepDuration, m.Notifications, m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveOp(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LoanOps.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObservePatch(kind string, applied bool) {
	if m == nil {
		return
	}
	v := "false"
	if applied {
		v = "true"
	}
	m.SweepPatches.WithLabelValues(kind, v).Inc()
}

func (m *Metrics) ObserveSweep(sweep string, started time.Time) {
	if m == nil {
		return
	}
	m.SweepDuration.WithLabelValues(sweep).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveNotification(typ string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(typ).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
