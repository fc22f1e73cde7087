package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine collectors.
type Metrics struct {
	registry *prometheus.Registry

	TasksStarted    prometheus.Counter
	TasksResolved   *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	ChainsStarted   *prometheus.CounterVec
	ChainsAbandoned *prometheus.CounterVec
	ListenerPanics  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry,
// so several engines can live in one process (and in tests).
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_tasks_started_total",
			Help: "Total number of tasks created",
		}),
		TasksResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_tasks_resolved_total",
			Help: "Total number of tasks reaching a terminal status",
		}, []string{"status", "kind"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "switchboard_handler_duration_seconds",
			Help:    "Duration of handler executions",
			Buckets: prometheus.DefBuckets,
		}, []string{"action", "outcome"}),
		ChainsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_chains_started_total",
			Help: "Total number of follow-up tasks submitted by the router",
		}, []string{"rule"}),
		ChainsAbandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_chains_abandoned_total",
			Help: "Total number of follow-ups dropped by the router",
		}, []string{"rule", "reason"}),
		ListenerPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_listener_panics_total",
			Help: "Total number of recovered event listener panics",
		}, []string{"event"}),
	}
	m.registry.MustRegister(
		m.TasksStarted,
		m.TasksResolved,
		m.HandlerDuration,
		m.ChainsStarted,
		m.ChainsAbandoned,
		m.ListenerPanics,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records metrics from engine lifecycle callbacks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskStart: func(context.Context, *domain.Task) {
			m.TasksStarted.Inc()
		},
		OnTaskResolve: func(_ context.Context, t *domain.Task) {
			kind := ""
			if t.Error != nil {
				kind = string(t.Error.Kind)
			}
			m.TasksResolved.WithLabelValues(string(t.Status), kind).Inc()
		},
		OnHandlerReturn: func(_ context.Context, e *domain.HandlerEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.HandlerDuration.WithLabelValues(e.Action, outcome).Observe(e.Duration.Seconds())
		},
		OnChainStarted: func(_ context.Context, e *domain.ChainEvent) {
			m.ChainsStarted.WithLabelValues(e.Rule).Inc()
		},
		OnChainAbandoned: func(_ context.Context, e *domain.ChainEvent) {
			m.ChainsAbandoned.WithLabelValues(e.Rule, e.Reason).Inc()
		},
		OnListenerPanic: func(et domain.EventType, _ any) {
			m.ListenerPanics.WithLabelValues(string(et)).Inc()
		},
	}
}
