package completion

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"curiospace/internal/apperr"
)

// Metrics holds Prometheus collectors for completion calls on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	calls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_calls_total",
			Help:      "Total number of text-completion calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Text-completion call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	registry.MustRegister(calls, duration)

	return &Metrics{registry: registry, Calls: calls, Duration: duration}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type instrumented struct {
	next    Completer
	metrics *Metrics
}

// Instrument records every call made through next.
func Instrument(next Completer, m *Metrics) Completer {
	if m == nil {
		return next
	}
	return &instrumented{next: next, metrics: m}
}

func (i *instrumented) Complete(ctx context.Context, prompt string) (string, error) {
	op := Operation(ctx)
	start := time.Now()
	text, err := i.next.Complete(ctx, prompt)
	i.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	i.metrics.Calls.WithLabelValues(op, outcome(err)).Inc()
	return text, err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(apperr.KindOf(err)))
}
