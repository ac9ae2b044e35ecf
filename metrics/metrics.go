package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SignalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratum_signals_generated_total",
			Help: "Total number of actionable signals produced (by strategy).",
		},
		[]string{"strategy", "direction"},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratum_orders_submitted_total",
			Help: "Total number of order intents submitted to the exchange (by kind).",
		},
		[]string{"kind"},
	)

	OrderRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stratum_order_retries_total",
			Help: "Total number of retried order submissions.",
		},
	)

	OrderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratum_order_failures_total",
			Help: "Total number of terminally failed order submissions (by kind).",
		},
		[]string{"kind"},
	)

	RiskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratum_risk_rejections_total",
			Help: "Total number of signals blocked by the risk manager (by reason).",
		},
		[]string{"reason"},
	)

	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stratum_positions_open",
			Help: "Current number of live (open or pending) positions.",
		},
	)

	PositionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratum_position_transitions_total",
			Help: "Total number of position state transitions (by target state).",
		},
		[]string{"state"},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stratum_equity",
			Help: "Last observed account equity (live or simulated).",
		},
	)

	ReconcileConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stratum_reconcile_conflicts_total",
			Help: "Total number of local/exchange state conflicts resolved in favor of the exchange.",
		},
	)

	FatalExposures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stratum_fatal_exposures_total",
			Help: "Total number of positions that could not be closed after exhausting retries.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SignalsGenerated,
		OrdersSubmitted,
		OrderRetries,
		OrderFailures,
		RiskRejections,
		PositionsOpen,
		PositionTransitions,
		EquityGauge,
		ReconcileConflicts,
		FatalExposures,
	)
}
