// Package metrics provides the centralized Prometheus metrics registry for
// the selection and calibration loops.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	CyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slipsmith",
		Name:      "cycles_total",
		Help:      "Total selection cycles by terminal state",
	}, []string{"result"})
	SlipsProducedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slipsmith",
		Name:      "slips_produced_total",
		Help:      "Total slips produced by tier",
	}, []string{"tier"})
	CandidatesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slipsmith",
		Name:      "candidates_skipped_total",
		Help:      "Total malformed candidate records skipped",
	})
	EngineFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slipsmith",
		Name:      "engine_failures_total",
		Help:      "Total signal engine failures by engine",
	}, []string{"engine"})
	CalibrationStageFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slipsmith",
		Name:      "calibration_stage_failures_total",
		Help:      "Total calibration stage failures by stage",
	}, []string{"stage"})
	CategoriesBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slipsmith",
		Name:      "categories_blocked_total",
		Help:      "Total category block events",
	})
)

// Gauge metrics
var (
	TrailingWinRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "slipsmith",
		Name:      "trailing_win_rate",
		Help:      "Trailing win rate of primary-tier slips",
	})
	GateValue = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "slipsmith",
		Name:      "gate_value",
		Help:      "Current auto-tuned value of each quality gate",
	}, []string{"gate"})
	BlockedCategories = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "slipsmith",
		Name:      "blocked_categories",
		Help:      "Number of currently blocked categories",
	})
	CandidatePoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "slipsmith",
		Name:      "candidate_pool_size",
		Help:      "Candidate pool size after filtering in the last cycle",
	})
)

// Histogram metrics
var (
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "slipsmith",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of selection cycles in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	CalibrationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "slipsmith",
		Name:      "calibration_duration_seconds",
		Help:      "Duration of calibration runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300},
	})
	CombinationsEnumerated = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "slipsmith",
		Name:      "combinations_enumerated",
		Help:      "Legal combinations enumerated per cycle",
		Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(CyclesTotal)
		registry.MustRegister(SlipsProducedTotal)
		registry.MustRegister(CandidatesSkippedTotal)
		registry.MustRegister(EngineFailuresTotal)
		registry.MustRegister(CalibrationStageFailuresTotal)
		registry.MustRegister(CategoriesBlockedTotal)

		registry.MustRegister(TrailingWinRate)
		registry.MustRegister(GateValue)
		registry.MustRegister(BlockedCategories)
		registry.MustRegister(CandidatePoolSize)

		registry.MustRegister(CycleDuration)
		registry.MustRegister(CalibrationDuration)
		registry.MustRegister(CombinationsEnumerated)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordCycle records a completed selection cycle.
func RecordCycle(result string, durationSeconds float64) {
	CyclesTotal.WithLabelValues(result).Inc()
	CycleDuration.Observe(durationSeconds)
}

// RecordSlipProduced records one produced slip.
func RecordSlipProduced(tier string) {
	SlipsProducedTotal.WithLabelValues(tier).Inc()
}

// RecordEngineFailure records a signal engine failure.
func RecordEngineFailure(engine string) {
	EngineFailuresTotal.WithLabelValues(engine).Inc()
}

// RecordCalibrationStageFailure records a failed calibration stage.
func RecordCalibrationStageFailure(stage string) {
	CalibrationStageFailuresTotal.WithLabelValues(stage).Inc()
}

// UpdateGates updates the per-gate value gauges.
func UpdateGates(minEdge, minHitRate, minScore, minCombinedProb float64) {
	GateValue.WithLabelValues("min_edge").Set(minEdge)
	GateValue.WithLabelValues("min_hit_rate").Set(minHitRate)
	GateValue.WithLabelValues("min_score").Set(minScore)
	GateValue.WithLabelValues("min_combined_prob").Set(minCombinedProb)
}
