package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeReplay  = "replay"
)

var (
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventbook",
		Name:      "bookings_total",
		Help:      "Booking attempts by outcome.",
	}, []string{"outcome"})

	CancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventbook",
		Name:      "cancellations_total",
		Help:      "Cancellation attempts by outcome.",
	}, []string{"outcome"})

	// InvariantViolations 任何非零值都代表座位帳目已損壞，需要人工介入
	InvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventbook",
		Name:      "invariant_violations_total",
		Help:      "Seat ledger consistency checks that failed.",
	})
)
