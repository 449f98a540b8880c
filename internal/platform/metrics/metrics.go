package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the companion's Prometheus metrics.
type Manager struct {
	Registry                *prometheus.Registry
	PaymentsSettledTotal    prometheus.Counter
	PaymentDuplicatesTotal  prometheus.Counter
	PaymentFailuresTotal    prometheus.Counter
	AuthErrorsTotal         *prometheus.CounterVec // by classified category
	AuthRecoveriesTotal     prometheus.Counter
	SettlementLatencySecond prometheus.Histogram
}

// NewManager initializes and registers the companion's metrics on a
// dedicated registry, so tests can construct managers side by side.
func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	paymentsSettledTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_settled_total",
		Help:      "Total number of payment callbacks settled successfully.",
	})
	paymentDuplicatesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_duplicate_callbacks_total",
		Help:      "Total number of payment callbacks resolved as already settled.",
	})
	paymentFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_failures_total",
		Help:      "Total number of payment callbacks that failed to settle.",
	})
	authErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_errors_total",
		Help:      "Total number of provider auth errors by classified category.",
	}, []string{"category"})
	authRecoveriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_recoveries_total",
		Help:      "Total number of auth state purges performed.",
	})
	settlementLatencySecond := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "settlement_latency_seconds",
		Help:      "Duration of payment callback settlement against the backend.",
		Buckets:   prometheus.DefBuckets,
	})

	registry.MustRegister(
		paymentsSettledTotal,
		paymentDuplicatesTotal,
		paymentFailuresTotal,
		authErrorsTotal,
		authRecoveriesTotal,
		settlementLatencySecond,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:                registry,
		PaymentsSettledTotal:    paymentsSettledTotal,
		PaymentDuplicatesTotal:  paymentDuplicatesTotal,
		PaymentFailuresTotal:    paymentFailuresTotal,
		AuthErrorsTotal:         authErrorsTotal,
		AuthRecoveriesTotal:     authRecoveriesTotal,
		SettlementLatencySecond: settlementLatencySecond,
	}
}

// Handler exposes the registry for mounting on the companion's listener.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
