package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-level Prometheus metrics.
type Metrics struct {
	UsersRegistered prometheus.Counter
	SignIns         *prometheus.CounterVec
}

// New creates and registers all process-level metrics.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "covault_users_registered_total",
			Help: "Total number of users registered in the system",
		}),
		SignIns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "covault_signins_total",
			Help: "Total sign-in attempts by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementUsersRegistered increments the registered-users counter by 1.
func (m *Metrics) IncrementUsersRegistered() {
	m.UsersRegistered.Inc()
}

// IncrementSignIn records a sign-in attempt outcome ("success" or "failure").
func (m *Metrics) IncrementSignIn(outcome string) {
	m.SignIns.WithLabelValues(outcome).Inc()
}
