package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch runner counters. Registered on the default registry; embedders
// that expose /metrics get them for free.
var (
	batchRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "themetree",
		Subsystem: "batch",
		Name:      "requests_total",
		Help:      "Total LLM request attempts issued by the batch runner.",
	})
	batchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "themetree",
		Subsystem: "batch",
		Name:      "retries_total",
		Help:      "Failed attempts that triggered a backoff sleep.",
	})
	batchExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "themetree",
		Subsystem: "batch",
		Name:      "exhausted_total",
		Help:      "Tasks that exhausted every retry and degraded to an empty result.",
	})
)
