package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for lending and the overdue sweep.
type Metrics struct {
	LoansCreated       prometheus.Counter
	LoanConflicts      prometheus.Counter
	LoansReturned      prometheus.Counter
	OverdueLoans       prometheus.Gauge
	SweepRuns          *prometheus.CounterVec
	SweepDuration      prometheus.Histogram
	NotifiedRecipients prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoansCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_loans_created_total",
			Help: "Total number of loans created",
		}),
		LoanConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_loans_conflicts_total",
			Help: "Loan creations rejected because the book was already loaned",
		}),
		LoansReturned: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_loans_returned_total",
			Help: "Total number of loans closed by a return",
		}),
		OverdueLoans: factory.NewGauge(prometheus.GaugeOpts{
			Name: "library_loans_overdue",
			Help: "Outstanding overdue loans seen by the last sweep",
		}),
		SweepRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "library_sweep_runs_total",
			Help: "Overdue sweep runs by outcome",
		}, []string{"outcome"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "library_sweep_duration_seconds",
			Help:    "Duration of overdue sweep runs",
			Buckets: prometheus.DefBuckets,
		}),
		NotifiedRecipients: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_sweep_notified_recipients_total",
			Help: "Recipients handed to the notifier by the sweep",
		}),
	}
}

func (m *Metrics) IncrementLoansCreated()  { m.LoansCreated.Inc() }
func (m *Metrics) IncrementLoanConflicts() { m.LoanConflicts.Inc() }
func (m *Metrics) IncrementLoansReturned() { m.LoansReturned.Inc() }

// ObserveSweep records one sweep run. outcome is "notified", "empty" or "error".
func (m *Metrics) ObserveSweep(outcome string, overdue, recipients int, start time.Time) {
	m.SweepRuns.WithLabelValues(outcome).Inc()
	m.SweepDuration.Observe(time.Since(start).Seconds())
	if outcome == "error" {
		return
	}
	m.OverdueLoans.Set(float64(overdue))
	m.NotifiedRecipients.Add(float64(recipients))
}
