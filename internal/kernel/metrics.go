package kernel

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"keel/internal/module"
)

// stateMetrics tracks how many modules are in each lifecycle state.
type stateMetrics struct {
	modules     *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

func newStateMetrics(reg prometheus.Registerer) (*stateMetrics, error) {
	m := &stateMetrics{
		modules: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "keel",
			Name:      "modules",
			Help:      "Number of installed modules by lifecycle state.",
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keel",
			Name:      "module_transitions_total",
			Help:      "Number of lifecycle transitions by target state.",
		}, []string{"state"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	m.modules, err = register(reg, m.modules)
	if err != nil {
		return nil, err
	}
	m.transitions, err = register(reg, m.transitions)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector registered by an
// earlier manager.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *stateMetrics) installed() {
	s.modules.WithLabelValues(string(module.StateInstalled)).Inc()
}

func (s *stateMetrics) transition(from, to module.State) {
	s.modules.WithLabelValues(string(from)).Dec()
	if to != module.StateRemoved {
		s.modules.WithLabelValues(string(to)).Inc()
	}
	s.transitions.WithLabelValues(string(to)).Inc()
}
