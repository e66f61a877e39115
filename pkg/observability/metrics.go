package observability

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for workflow execution.
type Metrics struct {
	runsTotal    *prometheus.CounterVec
	nodeVisits   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_runs_total",
				Help: "Total number of workflow runs by final status",
			},
			[]string{"status"},
		),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_node_visits_total",
				Help: "Total number of node executions",
			},
			[]string{"node"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "arbor_node_duration_seconds",
				Help: "Duration of node executions",
			},
			[]string{"node"},
		),
	}
	reg.MustRegister(m.runsTotal, m.nodeVisits, m.nodeDuration)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			m.runsTotal.WithLabelValues(string(e.Status)).Inc()
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.NodeName).Inc()
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			m.nodeDuration.WithLabelValues(e.NodeName).Observe(e.Duration.Seconds())
		},
	}
}
