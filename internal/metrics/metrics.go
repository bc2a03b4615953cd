// Package metrics holds the Prometheus collectors for the agent.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aiusd"

var (
	// Runs counts agent runs by entry operation and outcome.
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_runs_total",
		Help:      "Agent runs by entry operation and outcome.",
	}, []string{"entry", "outcome"})

	// RunDuration observes wall time of agent runs.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "agent_run_duration_seconds",
		Help:      "Agent run duration.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
	}, []string{"entry"})

	// Rounds observes provider calls per run.
	Rounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "agent_rounds",
		Help:      "Provider calls consumed per run.",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	})

	// ToolCalls counts MCP tool invocations by tool and status.
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mcp_tool_calls_total",
		Help:      "MCP tool invocations by tool and status.",
	}, []string{"tool", "status"})

	// ProviderErrors counts failed LLM calls by status class and whether a
	// caller could retry them.
	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_provider_errors_total",
		Help:      "Failed LLM calls by status class.",
	}, []string{"class", "transient"})

	// TelegramUpdates counts handled Telegram updates by kind.
	TelegramUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telegram_updates_total",
		Help:      "Handled Telegram updates by kind.",
	}, []string{"kind"})
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeMaxRounds = "max_rounds"
	OutcomeError     = "error"
)

// ObserveRun records one finished run.
func ObserveRun(entry, outcome string, rounds int, elapsed time.Duration) {
	Runs.WithLabelValues(entry, outcome).Inc()
	RunDuration.WithLabelValues(entry).Observe(elapsed.Seconds())
	if rounds > 0 {
		Rounds.Observe(float64(rounds))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
