package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the catalog module.
type Metrics struct {
	BooksCreated   prometheus.Counter
	BooksDeleted   prometheus.Counter
	DuplicateISBN  prometheus.Counter
	DeleteRejected prometheus.Counter
	FindDuration   prometheus.Histogram
}

// New registers catalog metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BooksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_books_created_total",
			Help: "Total number of books added to the catalog",
		}),
		BooksDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_books_deleted_total",
			Help: "Total number of books removed from the catalog",
		}),
		DuplicateISBN: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_books_duplicate_isbn_total",
			Help: "Book creations rejected because the isbn was already registered",
		}),
		DeleteRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "library_books_delete_rejected_total",
			Help: "Book deletions rejected because the book is on loan",
		}),
		FindDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "library_books_find_duration_seconds",
			Help:    "Duration of filtered book searches",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementBooksCreated()   { m.BooksCreated.Inc() }
func (m *Metrics) IncrementBooksDeleted()   { m.BooksDeleted.Inc() }
func (m *Metrics) IncrementDuplicateISBN()  { m.DuplicateISBN.Inc() }
func (m *Metrics) IncrementDeleteRejected() { m.DeleteRejected.Inc() }

// ObserveFind records a search. Call with the time the search started.
func (m *Metrics) ObserveFind(start time.Time) {
	m.FindDuration.Observe(time.Since(start).Seconds())
}
