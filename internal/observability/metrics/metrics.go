package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the call-booking flow.
type BookingMetrics struct {
	availabilityFetches *prometheus.CounterVec
	fetchLatency        prometheus.Histogram
	submissions         *prometheus.CounterVec
	demoAppointments    *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callbooking",
			Subsystem: "availability",
			Name:      "fetch_total",
			Help:      "Booked-interval fetches by outcome (ok, error, stale)",
		}, []string{"status"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "callbooking",
			Subsystem: "availability",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of booked-interval fetches",
			Buckets:   prometheus.DefBuckets,
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callbooking",
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome (success, failure, invalid)",
		}, []string{"status"}),
		demoAppointments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callbooking",
			Subsystem: "demo",
			Name:      "appointments_total",
			Help:      "Requests served by the demo appointments endpoint",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityFetches, m.fetchLatency, m.submissions, m.demoAppointments)
	return m
}

func (m *BookingMetrics) ObserveAvailabilityFetch(status string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityFetches.WithLabelValues(status).Inc()
	if status != "stale" {
		m.fetchLatency.Observe(seconds)
	}
}

func (m *BookingMetrics) ObserveSubmission(status string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveDemoAppointment(status string) {
	if m == nil {
		return
	}
	m.demoAppointments.WithLabelValues(status).Inc()
}
