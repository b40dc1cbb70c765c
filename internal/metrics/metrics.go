package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocms",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	borrowDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocms",
			Name:      "borrow_decisions_total",
			Help:      "Borrow request decisions by outcome.",
		},
		[]string{"outcome"},
	)

	reservationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "geocms",
			Name:      "reservation_conflicts_total",
			Help:      "Reservation submissions rejected for overlap.",
		},
	)

	issueTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocms",
			Name:      "issue_transitions_total",
			Help:      "Issue lifecycle transitions by target status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, borrowDecisions, reservationConflicts, issueTransitions)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncBorrowDecision counts a borrow decision outcome (approved, rejected,
// returned, cancelled, conflict).
func IncBorrowDecision(outcome string) {
	borrowDecisions.WithLabelValues(outcome).Inc()
}

// IncReservationConflict counts an overlap rejection.
func IncReservationConflict() {
	reservationConflicts.Inc()
}

// IncIssueTransition counts an issue moving into a status.
func IncIssueTransition(status string) {
	issueTransitions.WithLabelValues(status).Inc()
}
