// Package metrics exposes Prometheus counters for the report pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the application's own prometheus registry, kept separate
// from the default one so only our metrics are served.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// RecordsExtractedTotal counts raw gestión rows pulled from the warehouse.
var RecordsExtractedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "pdp",
	Name:      "records_extracted_total",
	Help:      "Total number of raw gestión records fetched from the warehouse",
})

// ExtractionRetriesTotal counts retried warehouse queries.
var ExtractionRetriesTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "pdp",
	Name:      "extraction_retries_total",
	Help:      "Total number of warehouse query retries",
})

// ExtractionFailuresTotal counts fetches that failed after retry exhaustion.
var ExtractionFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "pdp",
	Name:      "extraction_failures_total",
	Help:      "Total number of extractions aborted after exhausting retries",
})

// ReportsGeneratedTotal counts workbooks published for download.
var ReportsGeneratedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "pdp",
	Name:      "reports_generated_total",
	Help:      "Total number of heat-map workbooks generated",
})

// UpsertFailuresTotal counts connected-time accumulations that failed
// after their own bounded retries. These degrade a run, never abort it.
var UpsertFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "pdp",
	Name:      "upsert_failures_total",
	Help:      "Total number of connected-time accumulation failures",
})

// ProcessingDuration observes end-to-end process-period latency.
var ProcessingDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "pdp",
	Name:      "processing_duration_seconds",
	Help:      "End-to-end duration of a process-period run",
	Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
})

// Handler serves the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
