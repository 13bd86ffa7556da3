package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the portal's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loanlink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of portal requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loanlink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of portal requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loanlink",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Outbound requests made through the HTTP client facade.",
		},
		[]string{"method", "outcome"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loanlink",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"method"},
	)

	guardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loanlink",
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Route guard decisions by outcome.",
		},
		[]string{"outcome"},
	)

	roleLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loanlink",
			Subsystem: "role",
			Name:      "lookups_total",
			Help:      "Role lookups against the user-record service.",
		},
		[]string{"result"},
	)

	resourceLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loanlink",
			Subsystem: "resource",
			Name:      "loads_total",
			Help:      "Resource store loads by outcome.",
		},
		[]string{"outcome"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "loanlink",
			Subsystem: "session",
			Name:      "active",
			Help:      "Browser sessions held in memory.",
		},
	)

	paymentReconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loanlink",
			Subsystem: "payment",
			Name:      "reconciliations_total",
			Help:      "Payment return reconciliations by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		backendRequests,
		backendDuration,
		guardDecisions,
		roleLookups,
		resourceLoads,
		activeSessions,
		paymentReconciliations,
	)
}

// Handler exposes the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRequest records one portal request
func RecordRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordBackend records one outbound call and its outcome
func RecordBackend(method, outcome string, d time.Duration) {
	backendRequests.WithLabelValues(method, outcome).Inc()
	backendDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordGuardDecision counts a route guard outcome
func RecordGuardDecision(outcome string) {
	guardDecisions.WithLabelValues(outcome).Inc()
}

// RecordRoleLookup counts a role lookup result
func RecordRoleLookup(result string) {
	roleLookups.WithLabelValues(result).Inc()
}

// RecordResourceLoad counts a resource load outcome
func RecordResourceLoad(outcome string) {
	resourceLoads.WithLabelValues(outcome).Inc()
}

// SetActiveSessions reports the number of in-memory sessions
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// RecordPayment counts a reconciliation result
func RecordPayment(result string) {
	paymentReconciliations.WithLabelValues(result).Inc()
}
