package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// TicketMetrics records lifecycle activity for gold buy tickets.
type TicketMetrics struct {
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	payout      prometheus.Histogram
	duration    *prometheus.HistogramVec
}

// NewTicketMetrics registers the ticket metrics on the provided registerer. A
// nil registerer yields a recorder that drops everything.
func NewTicketMetrics(reg prometheus.Registerer) *TicketMetrics {
	if reg == nil {
		return &TicketMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_transitions_total",
		Help: "Accepted ticket status transitions.",
	}, []string{"from", "to"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_commands_rejected_total",
		Help: "Ticket commands rejected, by operation and error code.",
	}, []string{"operation", "code"})
	payout := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ticket_payout_amount",
		Help:    "Quoted payout per ticket in dollars.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000},
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticket_command_duration_seconds",
		Help:    "Duration of ticket commands in seconds, storage included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(transitions, rejected, payout, duration)
	return &TicketMetrics{
		transitions: transitions,
		rejected:    rejected,
		payout:      payout,
		duration:    duration,
	}
}

// IncTransition counts a committed status change.
func (m *TicketMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncRejected counts a command that returned an error.
func (m *TicketMetrics) IncRejected(operation, code string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

// ObservePayout records a quoted payout.
func (m *TicketMetrics) ObservePayout(amount decimal.Decimal) {
	if m == nil || m.payout == nil {
		return
	}
	m.payout.Observe(amount.InexactFloat64())
}

// ObserveDuration records how long a command took.
func (m *TicketMetrics) ObserveDuration(operation string, seconds float64) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(seconds)
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
