package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stake-plus/finapp-discord/src/router"
)

// Metrics exports invocation counters and latencies.
//
// Metrics:
//   - finapp_invocations_total{command,operation,outcome}
//   - finapp_invocation_duration_seconds{command,outcome}
type Metrics struct {
	Invocations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. Unknown command names are
// folded into "unknown" so user input cannot grow label cardinality.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Invocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finapp_invocations_total",
				Help: "Total number of command invocations by outcome",
			},
			[]string{"command", "operation", "outcome"},
		),
		Duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finapp_invocation_duration_seconds",
				Help:    "Time from receipt to reply for a command invocation",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"command", "outcome"},
		),
	}
}

func (m *Metrics) Record(_ context.Context, rec router.Record) {
	command, operation := rec.Command, rec.Operation
	switch rec.Outcome.Kind {
	case router.KindUnknownCommand:
		command, operation = "unknown", ""
	case router.KindUnsupportedOperation:
		operation = "unknown"
	}
	outcome := rec.Outcome.Kind.String()

	m.Invocations.WithLabelValues(command, operation, outcome).Inc()
	m.Duration.WithLabelValues(command, outcome).Observe(rec.Duration.Seconds())
}
