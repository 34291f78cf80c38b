// Package metrics exposes prometheus instruments for extraction, staging and queries.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	extractions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docqa_extractions_total",
		Help: "Document extractions by format and outcome",
	}, []string{"format", "outcome"})

	extractionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docqa_extraction_latency_ms",
		Help:    "Latency of text extraction in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"format"})

	indexBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docqa_index_builds_total",
		Help: "Index builds by outcome",
	}, []string{"outcome"})

	queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docqa_queries_total",
		Help: "Questions answered by outcome",
	}, []string{"outcome"})

	queryLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "docqa_query_latency_ms",
		Help:    "End-to-end latency of a question including streaming",
		Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
	})

	stagedFiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docqa_staged_files",
		Help: "Temporary files currently staged",
	})

	providerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docqa_provider_errors_total",
		Help: "Embedding and completion provider failures by operation",
	}, []string{"operation"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(extractions, extractionLatency, indexBuilds, queries, queryLatency, stagedFiles, providerErrors)
	})
}

// ObserveExtraction records one extraction attempt. outcome is an error kind or "ok".
func ObserveExtraction(format string, start time.Time, outcome string) {
	ensureRegistered()
	extractions.WithLabelValues(format, outcome).Inc()
	extractionLatency.WithLabelValues(format).Observe(float64(time.Since(start).Milliseconds()))
}

// ObserveIndexBuild records one index build.
func ObserveIndexBuild(outcome string) {
	ensureRegistered()
	indexBuilds.WithLabelValues(outcome).Inc()
}

// ObserveQuery records one answered (or failed) question.
func ObserveQuery(start time.Time, outcome string) {
	ensureRegistered()
	queries.WithLabelValues(outcome).Inc()
	queryLatency.Observe(float64(time.Since(start).Milliseconds()))
}

// SetStagedFiles reports the number of outstanding temporary files.
func SetStagedFiles(n int) {
	ensureRegistered()
	stagedFiles.Set(float64(n))
}

// ObserveProviderError counts a failed provider call. operation is "index" or "query".
func ObserveProviderError(operation string) {
	ensureRegistered()
	providerErrors.WithLabelValues(operation).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}
