package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service counters. Construct once at startup and pass it
// down explicitly; there is no package-level state.
type Metrics struct {
	HoldsCreated  prometheus.Counter
	SlotConflicts prometheus.Counter
	HoldsExpired  prometheus.Counter
	SweepFailures prometheus.Counter
}

// New registers and returns the service counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HoldsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calhold_holds_created_total",
			Help: "Provisional holds successfully created.",
		}),
		SlotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calhold_slot_conflicts_total",
			Help: "Hold creations rejected due to an overlapping slot.",
		}),
		HoldsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calhold_holds_expired_total",
			Help: "Active holds transitioned to expired by the sweeper.",
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calhold_sweep_failures_total",
			Help: "Expiry sweep runs that returned an error.",
		}),
	}
	reg.MustRegister(m.HoldsCreated, m.SlotConflicts, m.HoldsExpired, m.SweepFailures)
	return m
}
