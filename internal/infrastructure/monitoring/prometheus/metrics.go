package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Calculation
	CalculationsTotal   CounterVec
	CalculationDuration HistogramVec
	ResultCompounds     HistogramVec
	SkippedStructures   CounterVec

	// Depiction
	DepictionsTotal   CounterVec
	DepictionDuration HistogramVec

	// Result store and exports
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	ExportsTotal     CounterVec
	ArchivesTotal    CounterVec

	ErrorsTotal CounterVec
}

var (
	DefaultHTTPDurationBuckets        = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultCalculationDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	DefaultDepictionDurationBuckets   = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1}
	DefaultCompoundBuckets            = []float64{1, 5, 10, 50, 100, 250, 500, 1000, 5000}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests")

	m.CalculationsTotal = collector.RegisterCounter("calculations_total", "Cluster MST calculations by outcome", "status")
	m.CalculationDuration = collector.RegisterHistogram("calculation_duration_seconds", "Cluster MST calculation duration", DefaultCalculationDurationBuckets, "fingerprint")
	m.ResultCompounds = collector.RegisterHistogram("result_compounds", "Compounds shown per result", DefaultCompoundBuckets)
	m.SkippedStructures = collector.RegisterCounter("skipped_structures_total", "Uploaded rows whose SMILES could not be parsed")

	m.DepictionsTotal = collector.RegisterCounter("depictions_total", "Structure images served", "cached")
	m.DepictionDuration = collector.RegisterHistogram("depiction_duration_seconds", "Time to produce a structure image", DefaultDepictionDurationBuckets)

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Result store hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Result store misses", "cache")
	m.ExportsTotal = collector.RegisterCounter("exports_total", "TSV downloads served", "kind")
	m.ArchivesTotal = collector.RegisterCounter("archives_total", "Export archive uploads by outcome", "status")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")
	return m
}

// NewNopAppMetrics returns metrics that record nothing.
func NewNopAppMetrics() *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:   noopCounterVec{},
		HTTPRequestDuration: noopHistogramVec{},
		HTTPActiveRequests:  noopGaugeVec{},
		CalculationsTotal:   noopCounterVec{},
		CalculationDuration: noopHistogramVec{},
		ResultCompounds:     noopHistogramVec{},
		SkippedStructures:   noopCounterVec{},
		DepictionsTotal:     noopCounterVec{},
		DepictionDuration:   noopHistogramVec{},
		CacheHitsTotal:      noopCounterVec{},
		CacheMissesTotal:    noopCounterVec{},
		ExportsTotal:        noopCounterVec{},
		ArchivesTotal:       noopCounterVec{},
		ErrorsTotal:         noopCounterVec{},
	}
}

// ObserveDepiction records one structure image lookup.
func (m *AppMetrics) ObserveDepiction(cached bool, elapsed time.Duration) {
	m.DepictionsTotal.WithLabelValues(strconv.FormatBool(cached)).Inc()
	m.DepictionDuration.WithLabelValues().Observe(elapsed.Seconds())
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCalculation records one dashboard run. status is ok, invalid or
// error; compounds and skipped are only recorded for successful runs.
func RecordCalculation(metrics *AppMetrics, status, fingerprint string, duration time.Duration, compounds, skipped int) {
	metrics.CalculationsTotal.WithLabelValues(status).Inc()
	if status != "ok" {
		return
	}
	metrics.CalculationDuration.WithLabelValues(fingerprint).Observe(duration.Seconds())
	metrics.ResultCompounds.WithLabelValues().Observe(float64(compounds))
	if skipped > 0 {
		metrics.SkippedStructures.WithLabelValues().Add(float64(skipped))
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordExport(metrics *AppMetrics, kind string) {
	metrics.ExportsTotal.WithLabelValues(kind).Inc()
}

func RecordArchive(metrics *AppMetrics, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		RecordError(metrics, "archive", "upload")
	}
	metrics.ArchivesTotal.WithLabelValues(status).Inc()
}

func RecordError(metrics *AppMetrics, component, errorType string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
