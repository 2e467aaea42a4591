// Package metrics exposes prometheus collectors for the ticketing core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ceremony_tickets"

var (
	verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Scan verification attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	verificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Time spent in the verification transaction",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_issued_total",
			Help:      "Tickets issued by type",
		},
		[]string{"type"},
	)

	codeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_code_collisions_total",
			Help:      "Generated ticket codes rejected because they already existed",
		},
	)

	ticketsRedistributed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_redistributed_total",
			Help:      "Unused tickets reassigned to waitlisted graduates",
		},
	)

	requestDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_decisions_total",
			Help:      "Extra ticket request decisions by resulting status",
		},
		[]string{"status"},
	)

	feedPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_feed_publish_errors_total",
			Help:      "Gate feed events that could not be published",
		},
	)

	RedisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_errors_total",
			Help:      "Redis command failures by command",
		},
		[]string{"command"},
	)
)

func ObserveVerification(method, outcome string, took time.Duration) {
	verifications.WithLabelValues(method, outcome).Inc()
	verificationDuration.WithLabelValues(method).Observe(took.Seconds())
}

func TicketIssued(ticketType string) {
	ticketsIssued.WithLabelValues(ticketType).Inc()
}

func CodeCollision() {
	codeCollisions.Inc()
}

func TicketsRedistributed(n int) {
	ticketsRedistributed.Add(float64(n))
}

func RequestDecision(status string) {
	requestDecisions.WithLabelValues(status).Inc()
}

func FeedPublishError() {
	feedPublishErrors.Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
