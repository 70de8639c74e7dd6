package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "vprove/pkg/domain"
)

type Metrics struct {
	IndividualsRegistered prometheus.Counter
	BusinessesRegistered  prometheus.Counter
	FeesCollected         prometheus.Counter
	RegistrationDuration  prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		IndividualsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vprove_individuals_registered_total",
			Help: "Total number of successful individual registrations",
		}),
		BusinessesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vprove_businesses_registered_total",
			Help: "Total number of successful business registrations",
		}),
		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vprove_fees_collected_total",
			Help: "Total payment value collected by the registry",
		}),
		RegistrationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vprove_registration_duration_seconds",
			Help:    "Duration of registration operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementIndividualsRegistered() {
	m.IndividualsRegistered.Inc()
}

func (m *Metrics) IncrementBusinessesRegistered() {
	m.BusinessesRegistered.Inc()
}

func (m *Metrics) AddFeesCollected(paid id.Amount) {
	m.FeesCollected.Add(float64(paid))
}

func (m *Metrics) ObserveRegistration(start time.Time) {
	m.RegistrationDuration.Observe(time.Since(start).Seconds())
}
