// Package metrics holds the Prometheus collectors shared by the API and the reconciler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	paymentInitiationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_initiations_total",
			Help: "Total number of payment initiations by result",
		},
		[]string{"result"},
	)

	paymentPersistenceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_persistence_total",
			Help: "Outcome of recording an accepted charge in the transaction store",
		},
		[]string{"outcome"},
	)

	paymentStatusResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_resolved_total",
			Help: "Status lookups by answer source and canonical status",
		},
		[]string{"source", "status"},
	)

	proxyQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_proxy_queries_total",
			Help: "Verification proxy queries by result",
		},
		[]string{"result"},
	)

	paymentEventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_events_published_total",
			Help: "Payment events handed to the broker by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(paymentInitiationsTotal)
	prometheus.MustRegister(paymentPersistenceTotal)
	prometheus.MustRegister(paymentStatusResolvedTotal)
	prometheus.MustRegister(proxyQueriesTotal)
	prometheus.MustRegister(paymentEventsPublishedTotal)
}

// RecordInitiation counts an initiation attempt: accepted, rejected, invalid, malformed, unavailable.
func RecordInitiation(result string) {
	paymentInitiationsTotal.WithLabelValues(result).Inc()
}

// RecordPersistence counts how an accepted charge was stored.
func RecordPersistence(outcome string) {
	paymentPersistenceTotal.WithLabelValues(outcome).Inc()
}

// RecordStatusResolved counts a status answer; source is store, proxy or default.
func RecordStatusResolved(source, status string) {
	paymentStatusResolvedTotal.WithLabelValues(source, status).Inc()
}

// RecordProxyQuery counts a proxy round trip: recognized, unrecognized or error.
func RecordProxyQuery(result string) {
	proxyQueriesTotal.WithLabelValues(result).Inc()
}

// RecordEventPublished counts an outbox publish attempt: published, retry or failed.
func RecordEventPublished(result string) {
	paymentEventsPublishedTotal.WithLabelValues(result).Inc()
}
