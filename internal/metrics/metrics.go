package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krishi",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "krishi",
			Name:      "bookings_created_total",
			Help:      "Bookings created by landowners.",
		},
	)

	responsesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krishi",
			Name:      "responses_recorded_total",
			Help:      "Booking responses recorded, by responder role and decision.",
		},
		[]string{"role", "decision"},
	)

	duplicateResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "krishi",
			Name:      "duplicate_responses_total",
			Help:      "Response submissions rejected as duplicates.",
		},
	)

	bookingsClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "krishi",
			Name:      "bookings_closed_total",
			Help:      "Bookings whose overall action reached Closed.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsCreated,
			responsesRecorded,
			duplicateResponses,
			bookingsClosed,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts a newly created booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncResponseRecorded counts a persisted response.
func IncResponseRecorded(role, decision string) {
	responsesRecorded.WithLabelValues(role, decision).Inc()
}

// IncDuplicateResponse counts a rejected duplicate submission.
func IncDuplicateResponse() {
	duplicateResponses.Inc()
}

// IncBookingClosed counts a booking reaching Closed.
func IncBookingClosed() {
	bookingsClosed.Inc()
}
