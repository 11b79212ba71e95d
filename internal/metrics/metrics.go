package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters for the booking core. A nil receiver is a no-op.
type SchedulingMetrics struct {
	bookingTransitions *prometheus.CounterVec
	bookingConflicts   prometheus.Counter
	sweepMarked        prometheus.Counter
	sweepRuns          *prometheus.CounterVec
	availabilityLookup *prometheus.CounterVec
	sessionTransitions *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetconsult",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Booking state transitions by target status",
		}, []string{"status"}),
		bookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vetconsult",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken",
		}),
		sweepMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vetconsult",
			Subsystem: "booking",
			Name:      "missed_marked_total",
			Help:      "Bookings transitioned to missed by the sweep",
		}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetconsult",
			Subsystem: "booking",
			Name:      "missed_sweep_runs_total",
			Help:      "Missed sweep executions by outcome",
		}, []string{"outcome"}),
		availabilityLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetconsult",
			Subsystem: "availability",
			Name:      "lookups_total",
			Help:      "Availability computations by cache result",
		}, []string{"cache"}),
		sessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetconsult",
			Subsystem: "video_session",
			Name:      "transitions_total",
			Help:      "Video session transitions by target status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.bookingTransitions,
		m.bookingConflicts,
		m.sweepMarked,
		m.sweepRuns,
		m.availabilityLookup,
		m.sessionTransitions,
	)
	return m
}

func (m *SchedulingMetrics) ObserveBookingTransition(status string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(status).Inc()
}

func (m *SchedulingMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}

func (m *SchedulingMetrics) ObserveSweep(marked int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sweepRuns.WithLabelValues("error").Inc()
		return
	}
	m.sweepRuns.WithLabelValues("ok").Inc()
	m.sweepMarked.Add(float64(marked))
}

func (m *SchedulingMetrics) ObserveAvailability(cache string) {
	if m == nil {
		return
	}
	m.availabilityLookup.WithLabelValues(cache).Inc()
}

func (m *SchedulingMetrics) ObserveSessionTransition(status string) {
	if m == nil {
		return
	}
	m.sessionTransitions.WithLabelValues(status).Inc()
}
