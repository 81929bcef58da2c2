package resilience

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	// BreakerState reports the current state per target: 0 closed, 1 open, 2 half-open.
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts state transitions per target.
	BreakerTransitions *prometheus.CounterVec
)

// MustRegisterMetrics registers breaker collectors. Breakers created before
// registration do not report.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions",
		}, []string{"target", "from", "to"})
		reg.MustRegister(BreakerState, BreakerTransitions)
	})
}

func recordState(target string, s State) {
	if BreakerState == nil {
		return
	}
	BreakerState.WithLabelValues(target).Set(stateGaugeValue(s))
}

func recordTransition(target string, from, to State) {
	if BreakerTransitions == nil {
		return
	}
	BreakerTransitions.WithLabelValues(target, from.String(), to.String()).Inc()
}

func stateGaugeValue(state State) float64 {
	switch state {
	case Closed:
		return 0
	case Open:
		return 1
	case HalfOpen:
		return 2
	default:
		return -1
	}
}
