package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	cfg := CollectorConfig{
		Namespace: "test",
		Subsystem: "unit",
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollectorRequiresNamespace(t *testing.T) {
	t.Parallel()

	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestNewMetricsCollectorWithProcessMetrics(t *testing.T) {
	cfg := CollectorConfig{
		Namespace:            "test",
		EnableProcessMetrics: true,
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "process_cpu_seconds_total")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)

	counter := c.RegisterCounter("requests_total", "Total requests", "status")
	counter.WithLabelValues("ok").Inc()
	counter.WithLabelValues("ok").Add(2)
	counter.WithLabelValues("failed").Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_requests_total{status="ok"} 3`)
	assert.Contains(t, output, `test_unit_requests_total{status="failed"} 1`)
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)

	gauge := c.RegisterGauge("queue_depth", "Queue depth", "queue")
	gauge.WithLabelValues("tasks").Set(10)
	gauge.WithLabelValues("tasks").Dec()
	gauge.With(map[string]string{"queue": "results"}).Add(4)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_queue_depth{queue="tasks"} 9`)
	assert.Contains(t, output, `test_unit_queue_depth{queue="results"} 4`)
}

func TestRegisterHistogram(t *testing.T) {
	c := newTestCollector(t)

	hist := c.RegisterHistogram("duration_seconds", "Duration", []float64{0.1, 1, 10}, "stage")
	hist.WithLabelValues("network").Observe(0.5)
	hist.WithLabelValues("network").Observe(5)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_duration_seconds_count{stage="network"} 2`)
	assert.Contains(t, output, `test_unit_duration_seconds_bucket{stage="network",le="1"} 1`)
}

func TestRegisterSummary(t *testing.T) {
	c := newTestCollector(t)

	sum := c.RegisterSummary("latency_seconds", "Latency", nil, "op")
	sum.WithLabelValues("read").Observe(0.25)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_latency_seconds_count{op="read"} 1`)
}

func TestRegisterDuplicateReturnsExisting(t *testing.T) {
	c := newTestCollector(t)

	first := c.RegisterCounter("dup_total", "Duplicate", "k")
	second := c.RegisterCounter("dup_total", "Duplicate", "k")

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_dup_total{k="a"} 2`)
}

func TestRegisterConflictDegradesToNoop(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)

	c.RegisterCounter("conflict_total", "First", "a")

	// A gauge under the name already held by a counter falls back to the
	// no-op implementation instead of panicking.
	gauge := c.RegisterGauge("conflict_total", "Second", "a")
	assert.NotPanics(t, func() {
		gauge.WithLabelValues("x").Set(1)
	})
}

func TestTimerObservesElapsed(t *testing.T) {
	c := newTestCollector(t)

	hist := c.RegisterHistogram("timer_seconds", "Timer", []float64{0.001, 10}, "op")
	timer := NewTimer(hist.WithLabelValues("tick"))
	time.Sleep(2 * time.Millisecond)
	timer.ObserveDuration()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_timer_seconds_count{op="tick"} 1`)
}

func TestTimerNilHistogram(t *testing.T) {
	t.Parallel()

	timer := NewTimer(nil)
	assert.NotPanics(t, timer.ObserveDuration)
}
