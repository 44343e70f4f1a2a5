package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Payment metrics
	ChargeAttemptsTotal *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec
	NotificationsTotal  *prometheus.CounterVec
	CreditsAppliedTotal prometheus.Counter
	GatewayBreakerOpen  *prometheus.GaugeVec
}

// New registers all metrics on reg. A nil reg uses the default registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "payments"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		ChargeAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "charge",
				Name:      "attempts_total",
				Help:      "Charge attempts by gateway and outcome",
			},
			[]string{"gateway", "outcome"}, // charged, redirect_required, rejected, unavailable, already_charged
		),
		GatewayCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "call_duration_seconds",
				Help:      "Gateway call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"gateway"},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notification",
				Name:      "received_total",
				Help:      "Async notifications by gateway and result",
			},
			[]string{"gateway", "result"}, // charged, duplicate, ignored, unverified, mismatch, error
		),
		CreditsAppliedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "account",
				Name:      "credits_applied_total",
				Help:      "Entitlement units credited to accounts",
			},
		),
		GatewayBreakerOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "breaker_open",
				Help:      "Gateway circuit breaker state (1=open, 0=closed or half-open)",
			},
			[]string{"gateway"},
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordChargeAttempt records the outcome of one charge attempt.
func (m *Metrics) RecordChargeAttempt(gateway, outcome string) {
	m.ChargeAttemptsTotal.WithLabelValues(gateway, outcome).Inc()
}

// ObserveGatewayCall records the latency of one gateway round trip.
func (m *Metrics) ObserveGatewayCall(gateway string, duration time.Duration) {
	m.GatewayCallDuration.WithLabelValues(gateway).Observe(duration.Seconds())
}

// RecordNotification records how an inbound async notification was resolved.
func (m *Metrics) RecordNotification(gateway, result string) {
	m.NotificationsTotal.WithLabelValues(gateway, result).Inc()
}

// AddCreditsApplied adds to the credited entitlement counter.
func (m *Metrics) AddCreditsApplied(n int64) {
	if n > 0 {
		m.CreditsAppliedTotal.Add(float64(n))
	}
}

// SetBreakerOpen sets the breaker gauge for a gateway.
func (m *Metrics) SetBreakerOpen(gateway string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	m.GatewayBreakerOpen.WithLabelValues(gateway).Set(v)
}
