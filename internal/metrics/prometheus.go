package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_pipeline_runs_total",
			Help: "Pipeline runs by resulting digest mode",
		},
		[]string{"mode"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radar_pipeline_duration_seconds",
			Help:    "End-to-end pipeline run duration",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"mode"},
	)

	StageRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_stage_records_total",
			Help: "Records handled by each agent stage, by outcome",
		},
		[]string{"stage", "outcome"},
	)

	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_llm_requests_total",
			Help: "LLM completion requests by status",
		},
		[]string{"model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radar_llm_request_duration_seconds",
			Help:    "LLM completion latency including retries",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"model"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_llm_tokens_used_total",
			Help: "LLM tokens used",
		},
		[]string{"model", "type"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "radar_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	ChatResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_chat_responses_total",
			Help: "Chat answers by source (llm or rules)",
		},
		[]string{"source"},
	)

	CompetitorDiscoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_competitor_discoveries_total",
			Help: "Competitor discovery requests by source (llm or demo)",
		},
		[]string{"source"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Collectors work
// unregistered, so packages can record before or without Init.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PipelineRuns,
			PipelineDuration,
			StageRecords,
			LLMRequests,
			LLMRequestDuration,
			LLMTokensUsed,
			BreakerState,
			CacheHits,
			CacheMisses,
			ChatResponses,
			CompetitorDiscoveries,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
