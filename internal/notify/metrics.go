package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts notification attempts per transport and outcome.
type Metrics struct {
	Sends      *prometheus.CounterVec
	Recipients *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Sends: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "library_notifications_total",
			Help: "Notification batches by transport and outcome (delivered, failed, skipped)",
		}, []string{"transport", "outcome"}),
		Recipients: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "library_notification_recipients_total",
			Help: "Recipients addressed by transport and outcome",
		}, []string{"transport", "outcome"}),
	}
}

func (m *Metrics) ObserveSend(transport, outcome string, recipients int) {
	m.Sends.WithLabelValues(transport, outcome).Inc()
	m.Recipients.WithLabelValues(transport, outcome).Add(float64(recipients))
}
