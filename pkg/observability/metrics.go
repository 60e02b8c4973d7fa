package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pbarbosa/espalier/pkg/domain"
)

// Metrics exposes run and node counters for Prometheus scraping.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	nodesTotal    *prometheus.CounterVec
	nodeDuration  prometheus.Histogram
	nodeRetries   prometheus.Counter
	activeRuns    prometheus.Gauge
}

// NewMetrics creates the metric set and registers it with reg. Passing
// prometheus.DefaultRegisterer wires it into the default scrape handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "espalier",
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "espalier",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of completed runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		nodesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "espalier",
			Name:      "nodes_total",
			Help:      "Completed node executions by terminal status.",
		}, []string{"status"}),
		nodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "espalier",
			Name:      "node_duration_seconds",
			Help:      "Wall-clock duration of node executions, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		nodeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "espalier",
			Name:      "node_retries_total",
			Help:      "Retry attempts beyond the first, across all nodes.",
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "espalier",
			Name:      "active_runs",
			Help:      "Runs currently in flight.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.runsTotal, m.runDuration, m.nodesTotal, m.nodeDuration, m.nodeRetries, m.activeRuns)
	}
	return m
}

// Hooks returns lifecycle hooks that feed the metric set.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(context.Context, *domain.RunEvent) {
			m.activeRuns.Inc()
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			m.activeRuns.Dec()
			if e.Result == nil {
				return
			}
			outcome := "success"
			if !e.Result.Success {
				outcome = "failure"
			}
			m.runsTotal.WithLabelValues(outcome).Inc()
			m.runDuration.Observe(e.Result.Duration.Seconds())
		},
		OnNodeFinish: func(_ context.Context, e *domain.NodeEvent) {
			if e.Outcome == nil {
				return
			}
			m.nodesTotal.WithLabelValues(string(e.Outcome.Status)).Inc()
			m.nodeDuration.Observe(e.Outcome.Duration.Seconds())
			if e.Outcome.Attempts > 1 {
				m.nodeRetries.Add(float64(e.Outcome.Attempts - 1))
			}
		},
		OnNodeSkip: func(_ context.Context, e *domain.NodeEvent) {
			m.nodesTotal.WithLabelValues(string(domain.StatusSkipped)).Inc()
		},
	}
}
