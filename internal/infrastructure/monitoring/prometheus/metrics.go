package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds every instrument the pipeline and its serving surfaces
// report into.  Label sets stay low-cardinality: stage names, outcome
// strings and component names, never company identifiers.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Ingestion layer
	RosterRowsTotal     CounterVec
	RosterParseDuration HistogramVec
	CompaniesLoaded     GaugeVec

	// Scoring pipeline
	StageDuration           HistogramVec
	CompaniesProcessedTotal CounterVec
	CompanyDuration         HistogramVec
	PanelRows               GaugeVec
	PanelAssembliesTotal    CounterVec

	// Citation network layer
	NetworkNodesTotal   GaugeVec
	NetworkEdgesTotal   GaugeVec
	GraphMirrorDuration HistogramVec
	GraphMirrorFailures CounterVec
	GraphQueryDuration  HistogramVec

	// Worker layer
	WorkerTasksTotal   CounterVec
	WorkerTaskDuration HistogramVec
	WorkerTaskRetries  CounterVec
	WorkerQueueDepth   GaugeVec
	WorkerActiveCount  GaugeVec
	DeadLetteredTotal  CounterVec

	// Infrastructure layer
	DBQueryDuration  HistogramVec
	DBPoolSize       GaugeVec
	DBPoolActive     GaugeVec
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	ObjectStoreBytes CounterVec

	// System health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default buckets
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultStageDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}
	DefaultDBDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultSizeBuckets          = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
	DefaultRowCountBuckets      = []float64{0, 100, 1000, 10000, 100000, 1000000}
)

// NewAppMetrics registers all instruments against the collector and returns
// the populated struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Ingestion
	m.RosterRowsTotal = collector.RegisterCounter("roster_rows_total", "Roster rows read", "outcome")
	m.RosterParseDuration = collector.RegisterHistogram("roster_parse_duration_seconds", "Roster parse duration", DefaultHTTPDurationBuckets, "source")
	m.CompaniesLoaded = collector.RegisterGauge("companies_loaded", "Companies loaded from the roster")

	// Scoring pipeline
	m.StageDuration = collector.RegisterHistogram("stage_duration_seconds", "Pipeline stage duration", DefaultStageDurationBuckets, "stage")
	m.CompaniesProcessedTotal = collector.RegisterCounter("companies_processed_total", "Companies processed through the pipeline", "status")
	m.CompanyDuration = collector.RegisterHistogram("company_duration_seconds", "End to end duration per company", DefaultStageDurationBuckets)
	m.PanelRows = collector.RegisterGauge("panel_rows", "Firm-year rows in the most recent panel")
	m.PanelAssembliesTotal = collector.RegisterCounter("panel_assemblies_total", "Panel assembly runs")

	// Citation network
	m.NetworkNodesTotal = collector.RegisterGauge("network_nodes_total", "Citation network nodes", "role")
	m.NetworkEdgesTotal = collector.RegisterGauge("network_edges_total", "Citation network edges", "direction")
	m.GraphMirrorDuration = collector.RegisterHistogram("graph_mirror_duration_seconds", "Graph mirror duration", DefaultStageDurationBuckets)
	m.GraphMirrorFailures = collector.RegisterCounter("graph_mirror_failures_total", "Graph mirror failures")
	m.GraphQueryDuration = collector.RegisterHistogram("graph_query_duration_seconds", "Graph query duration", DefaultDBDurationBuckets, "query_type")

	// Worker
	m.WorkerTasksTotal = collector.RegisterCounter("worker_tasks_total", "Worker tasks consumed", "outcome")
	m.WorkerTaskDuration = collector.RegisterHistogram("worker_task_duration_seconds", "Worker task duration", DefaultStageDurationBuckets)
	m.WorkerTaskRetries = collector.RegisterCounter("worker_task_retries_total", "Worker task retries")
	m.WorkerQueueDepth = collector.RegisterGauge("worker_queue_depth", "Pending tasks in the local queue")
	m.WorkerActiveCount = collector.RegisterGauge("worker_active", "Workers currently processing a task")
	m.DeadLetteredTotal = collector.RegisterCounter("worker_dead_lettered_total", "Tasks parked on the dead letter topic")

	// Infrastructure
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.DBPoolSize = collector.RegisterGauge("db_pool_size", "Database connection pool size", "db")
	m.DBPoolActive = collector.RegisterGauge("db_pool_active", "Database active connections", "db")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.ObjectStoreBytes = collector.RegisterCounter("object_store_bytes_total", "Bytes moved through the object store", "direction")

	// System health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, respSize int64) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

func RecordDBQuery(metrics *AppMetrics, db, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(db, "query_error").Inc()
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordWorkerTask(metrics *AppMetrics, outcome string, duration time.Duration) {
	metrics.WorkerTasksTotal.WithLabelValues(outcome).Inc()
	metrics.WorkerTaskDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordHealthCheck(metrics *AppMetrics, component string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	metrics.HealthCheckStatus.WithLabelValues(component).Set(v)
}

func RecordError(metrics *AppMetrics, component, errorType string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
