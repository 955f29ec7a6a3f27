package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors scraped at GET /metrics.
//
// Grounded on internal/observability/metrics.go's CounterVec/HistogramVec
// shape, trimmed to the HTTP/chat-turn/tool/database axes this daemon
// actually drives (no per-channel message or webhook counters — those
// belong to the multi-channel gateway this daemon is not).
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ChatTurnsTotal    *prometheus.CounterVec
	ChatTurnDuration  *prometheus.HistogramVec
	ChatTurnToolCalls *prometheus.HistogramVec

	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	DatabaseQueryDuration *prometheus.HistogramVec
}

// NewMetrics registers every collector against reg and returns the set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_http_requests_total",
			Help: "HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexus_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "path"}),
		ChatTurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_chat_turns_total",
			Help: "Chat turns by model and outcome (done|error|pending).",
		}, []string{"model", "outcome"}),
		ChatTurnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexus_chat_turn_duration_seconds",
			Help:    "Chat turn wall-clock duration in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"model"}),
		ChatTurnToolCalls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexus_chat_turn_tool_calls",
			Help:    "Tool calls dispatched per chat turn.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}, []string{"model"}),
		ToolExecutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_tool_executions_total",
			Help: "Tool executions by tool name and status (success|error|denied).",
		}, []string{"tool", "status"}),
		ToolExecutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexus_tool_execution_duration_seconds",
			Help:    "Tool execution latency in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"tool"}),
		DatabaseQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexus_database_query_duration_seconds",
			Help:    "SQLite query latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation", "database"}),
	}
}
