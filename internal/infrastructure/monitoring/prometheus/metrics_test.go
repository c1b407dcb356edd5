package prometheus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	return NewAppMetrics(c), c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.CalculationsTotal)
	assert.NotNil(t, m.DepictionsTotal)
	assert.NotNil(t, m.CacheHitsTotal)
	assert.NotNil(t, m.ArchivesTotal)
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordHTTPRequest(m, "POST", "/run", 200, 100*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="POST",path="/run",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="POST",path="/run"} 1`)
}

func TestRecordCalculation_OK(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordCalculation(m, "ok", "ECFC4", 2*time.Second, 60, 3)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_calculations_total{status="ok"} 1`)
	assert.Contains(t, output, `test_unit_calculation_duration_seconds_count{fingerprint="ECFC4"} 1`)
	assert.Contains(t, output, `test_unit_result_compounds_sum 60`)
	assert.Contains(t, output, `test_unit_skipped_structures_total 3`)
}

func TestRecordCalculation_Invalid(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordCalculation(m, "invalid", "ECFC4", time.Millisecond, 0, 0)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_calculations_total{status="invalid"} 1`)
	assert.NotContains(t, output, `test_unit_calculation_duration_seconds_count`)
}

func TestObserveDepiction(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.ObserveDepiction(true, time.Millisecond)
	m.ObserveDepiction(false, time.Millisecond)
	m.ObserveDepiction(false, time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_depictions_total{cached="true"} 1`)
	assert.Contains(t, output, `test_unit_depictions_total{cached="false"} 2`)
	assert.Contains(t, output, `test_unit_depiction_duration_seconds_count 3`)
}

func TestRecordCacheAccess(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordCacheAccess(m, "redis", true)
	RecordCacheAccess(m, "memory", false)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_cache_hits_total{cache="redis"} 1`)
	assert.Contains(t, output, `test_unit_cache_misses_total{cache="memory"} 1`)
}

func TestRecordExportAndArchive(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordExport(m, "edges")
	RecordArchive(m, nil)
	RecordArchive(m, errors.New("s3 down"))

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_exports_total{kind="edges"} 1`)
	assert.Contains(t, output, `test_unit_archives_total{status="ok"} 1`)
	assert.Contains(t, output, `test_unit_archives_total{status="error"} 1`)
	assert.Contains(t, output, `test_unit_errors_total{component="archive",error_type="upload"} 1`)
}

func TestNopAppMetrics(t *testing.T) {
	m := NewNopAppMetrics()
	assert.NotPanics(t, func() {
		RecordHTTPRequest(m, "GET", "/", 200, time.Millisecond)
		RecordCalculation(m, "ok", "ECFC4", time.Second, 10, 1)
		RecordCacheAccess(m, "memory", true)
		RecordExport(m, "dataset")
		RecordArchive(m, errors.New("x"))
		m.ObserveDepiction(true, 0)
		m.HTTPActiveRequests.WithLabelValues().Inc()
	})
}

func TestConcurrentMetricRecording(t *testing.T) {
	m, c := newTestAppMetrics(t)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordHTTPRequest(m, "GET", "/", 200, time.Millisecond)
			}
		}()
	}
	wg.Wait()
	assert.Contains(t, scrapeMetrics(t, c), `test_unit_http_requests_total{method="GET",path="/",status_code="200"} 1000`)
}
