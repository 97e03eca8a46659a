package gateway

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the gateway's Prometheus instrumentation, registered once
// at construction.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	alertsIngested  *prometheus.CounterVec
	alertsTotal     prometheus.Gauge
}

func newMetrics() *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_gateway_requests_total",
				Help: "Total number of HTTP requests handled by the alert gateway",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alert_gateway_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		alertsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_gateway_alerts_ingested_total",
				Help: "Total number of alerts ingested, by engine",
			},
			[]string{"engine"},
		),
		alertsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "alert_gateway_alerts_total",
				Help: "Current number of alerts held in memory",
			},
		),
	}

	prometheus.MustRegister(m.requestsTotal, m.requestDuration, m.alertsIngested, m.alertsTotal)
	return m
}
