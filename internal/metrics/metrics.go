// Package metrics expõe os contadores e gauges Prometheus do governor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotplug_decisions_total",
			Help: "Total decision cycles by resulting action",
		},
		[]string{"action"},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotplug_transitions_total",
			Help: "Total CPU transitions executed by kind",
		},
		[]string{"kind"},
	)

	boostsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hotplug_boosts_total",
			Help: "Total boost activations triggered by external activity",
		},
	)

	onlineCPUs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotplug_online_cpus",
			Help: "Number of CPUs currently online",
		},
	)

	avgLoad = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotplug_average_load",
			Help: "Moving average of the scaled load signal (x100)",
		},
	)

	flagState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hotplug_flag_state",
			Help: "Control flag state (1 = set)",
		},
		[]string{"flag"},
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hotplug_decision_cycle_seconds",
			Help:    "Time spent in one decision cycle",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)
)

// RecordDecision incrementa o contador de decisões por ação
func RecordDecision(action string) {
	decisionsTotal.WithLabelValues(action).Inc()
}

// RecordTransition incrementa o contador de transições executadas
func RecordTransition(kind string) {
	transitionsTotal.WithLabelValues(kind).Inc()
}

// RecordBoost incrementa o contador de boosts
func RecordBoost() {
	boostsTotal.Inc()
}

// ObserveCycle registra a duração de um ciclo de decisão
func ObserveCycle(seconds float64) {
	cycleDuration.Observe(seconds)
}

// SetOnlineCPUs atualiza o gauge de CPUs online
func SetOnlineCPUs(n int) {
	onlineCPUs.Set(float64(n))
}

// SetAverageLoad atualiza o gauge da média de carga
func SetAverageLoad(avg uint64) {
	avgLoad.Set(float64(avg))
}

// SetFlag atualiza o gauge de uma flag de controle
func SetFlag(name string, set bool) {
	v := 0.0
	if set {
		v = 1.0
	}
	flagState.WithLabelValues(name).Set(v)
}
