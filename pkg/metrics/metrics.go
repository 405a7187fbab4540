package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine counters. Amounts are tracked in minor units.
var (
	ContractsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "contracts_created_total",
		Help:      "Number of contracts created",
	})
	ContractsActivated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "contracts_activated_total",
		Help:      "Number of contracts fully signed and activated",
	})
	ContractsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "contracts_completed_total",
		Help:      "Number of contracts completed",
	})
	FundsDeposited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "funds_deposited_minor_units_total",
		Help:      "Total amount deposited into escrow",
	})
	FundsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "funds_released_minor_units_total",
		Help:      "Total amount released from escrow",
	})
	DisputesInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "disputes_initiated_total",
		Help:      "Number of disputes initiated",
	})
	TriggersExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "triggers_executed_total",
		Help:      "Number of automated triggers executed",
	})
	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "trigger_sweep_runs_total",
		Help:      "Number of trigger evaluation sweeps",
	})
	SweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "trigger_sweep_errors_total",
		Help:      "Number of per-contract errors during trigger sweeps",
	})
)
