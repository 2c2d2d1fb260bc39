package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service's Prometheus instruments. All observe
// methods are safe on a nil receiver so callers can run unmetered.
type Metrics struct {
	// Registry is the backing registry, exposed for the /metrics handler.
	Registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	whitelistSize       prometheus.Gauge
	verificationsTotal  *prometheus.CounterVec
	dmDeliveriesTotal   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gatewarden",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests partitioned by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gatewarden",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by method and route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		whitelistSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "gatewarden",
				Subsystem: "registry",
				Name:      "whitelist_size",
				Help:      "Current number of admitted users.",
			},
		),
		verificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gatewarden",
				Subsystem: "verification",
				Name:      "requests_total",
				Help:      "Verification requests partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		dmDeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gatewarden",
				Subsystem: "notifier",
				Name:      "deliveries_total",
				Help:      "Approver direct-message deliveries by result.",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) SetWhitelistSize(n int) {
	if m == nil {
		return
	}
	m.whitelistSize.Set(float64(n))
}

func (m *Metrics) RecordVerification(outcome string) {
	if m == nil {
		return
	}
	m.verificationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDelivery(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.dmDeliveriesTotal.WithLabelValues(result).Inc()
}
