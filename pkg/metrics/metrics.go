// Package metrics exposes the process-wide prometheus counters for the
// dispatch engine. Everything registers on the default registry and is
// served by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lenox",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits by category.",
	}, []string{"category"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lenox",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses by category; absent and expired keys both count.",
	}, []string{"category"})

	ToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lenox",
		Subsystem: "tools",
		Name:      "invocations_total",
		Help:      "Upstream tool invocations by tool and outcome.",
	}, []string{"tool", "outcome"})

	ToolRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lenox",
		Subsystem: "tools",
		Name:      "retries_total",
		Help:      "Retries issued for transient tool failures.",
	}, []string{"tool"})

	BreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lenox",
		Subsystem: "tools",
		Name:      "breaker_opens_total",
		Help:      "Circuit breaker transitions to open, by tool.",
	}, []string{"tool"})

	Completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lenox",
		Subsystem: "llm",
		Name:      "completions_total",
		Help:      "Completion-service calls by purpose and outcome.",
	}, []string{"purpose", "outcome"})

	Turns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lenox",
		Subsystem: "orchestrator",
		Name:      "turns_total",
		Help:      "Handled turns by response type.",
	}, []string{"type"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
