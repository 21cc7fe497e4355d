// Package metrics exposes Prometheus counters for the certificate lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks certificate lifecycle events.
type Metrics struct {
	created  prometheus.Counter
	shared   prometheus.Counter
	viewed   prometheus.Counter
	accepted prometheus.Counter
}

// New registers the certificate counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		created: factory.NewCounter(prometheus.CounterOpts{
			Name: "covault_certificates_created_total",
			Help: "Total number of certificates created.",
		}),
		shared: factory.NewCounter(prometheus.CounterOpts{
			Name: "covault_certificates_shared_total",
			Help: "Total number of share tokens issued.",
		}),
		viewed: factory.NewCounter(prometheus.CounterOpts{
			Name: "covault_certificates_viewed_total",
			Help: "Total number of first-time public views.",
		}),
		accepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "covault_certificates_accepted_total",
			Help: "Total number of certificate acceptances.",
		}),
	}
}

func (m *Metrics) IncrementCreated()  { m.created.Inc() }
func (m *Metrics) IncrementShared()   { m.shared.Inc() }
func (m *Metrics) IncrementViewed()   { m.viewed.Inc() }
func (m *Metrics) IncrementAccepted() { m.accepted.Inc() }
