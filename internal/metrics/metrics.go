package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

var (
	once sync.Once

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Count of committed booking transitions.",
		},
		[]string{"transition"},
	)

	bookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Count of detected schedule overlaps by kind (warning or blocked).",
		},
		[]string{"kind"},
	)

	fanoutFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_failures_total",
			Help:      "Count of best-effort side effects that failed.",
		},
		[]string{"target"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingTransitions, bookingConflicts, fanoutFailures)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncTransition(transition string) {
	bookingTransitions.WithLabelValues(transition).Inc()
}

func IncConflict(kind string) {
	bookingConflicts.WithLabelValues(kind).Inc()
}

func IncFanoutFailure(target string) {
	fanoutFailures.WithLabelValues(target).Inc()
}
