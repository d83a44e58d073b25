package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session outcomes.
const (
	OutcomeCreated      = "created"
	OutcomeConfigError  = "config_error"
	OutcomeCreateFailed = "create_failed"
)

// Reconciliation outcomes.
const (
	OutcomeCompleted        = "completed"
	OutcomeFailed           = "failed"
	OutcomeDuplicate        = "duplicate"
	OutcomeConflict         = "conflict"
	OutcomeCorrelationError = "correlation_error"
	OutcomeVerifyError      = "verify_error"
)

var (
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flouci_sessions_total",
		Help: "Hosted payment session creation attempts by outcome.",
	}, []string{"outcome"})

	ReconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flouci_reconciliations_total",
		Help: "Payment reconciliation passes by outcome.",
	}, []string{"outcome"})
)
