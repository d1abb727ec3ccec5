package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_triage_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_triage_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_triage_realtime_clients",
			Help: "Number of connected websocket clients",
		},
	)

	RealtimeDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_triage_realtime_dropped_total",
			Help: "Events dropped because a websocket client was too slow",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_triage_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_scan_runs_total",
			Help: "Folder scans by outcome (completed, cancelled, failed)",
		},
		[]string{"outcome"},
	)

	ScanFilesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_triage_scan_files_found_total",
			Help: "Photos discovered by folder scans",
		},
	)

	ScanBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_triage_scan_batches_total",
			Help: "Batches delivered by folder scans",
		},
	)

	ScanEntryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_triage_scan_entry_errors_total",
			Help: "Directory entries skipped because they could not be read",
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_triage_scan_duration_seconds",
			Help:    "Wall time of folder scans",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// Analysis metrics
var (
	AnalysisItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_analysis_items_total",
			Help: "Analysed images by outcome (completed, failed, not_started)",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_triage_analysis_item_duration_seconds",
			Help:    "Time to decode and score a single image",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	AnalysisInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_triage_analysis_in_flight",
			Help: "Images currently being analysed",
		},
	)

	AnalysisBudget = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_triage_analysis_budget",
			Help: "Concurrency budget of the current analysis run",
		},
	)

	AnalysisVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_analysis_verdicts_total",
			Help: "Automated verdicts applied to records (keep, reject, none, locked)",
		},
		[]string{"verdict"},
	)
)

// Preview cache metrics
var (
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_triage_cache_hits_total",
			Help: "Preview cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_triage_cache_misses_total",
			Help: "Preview cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_triage_cache_evictions_total",
			Help: "Previews evicted to stay within capacity",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_triage_cache_entries",
			Help: "Previews currently cached",
		},
	)

	PreviewDecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_triage_preview_decode_duration_seconds",
			Help:    "Time to decode and resize a preview by decoder",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"decoder"},
	)
)

// Triage session metrics
var (
	RecordsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_triage_records",
			Help: "Records in the current session by status",
		},
		[]string{"status"},
	)

	BurstGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_triage_burst_groups",
			Help: "Burst groups in the current session",
		},
	)

	DuplicatesFlagged = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_triage_duplicates_flagged",
			Help: "Records flagged as near-duplicates in the current session",
		},
	)

	CuratorDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_curator_decisions_total",
			Help: "Records changed by curator decisions, by resulting status",
		},
		[]string{"status"},
	)

	JournalDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_triage_journal_depth",
			Help: "Batches on the undo and redo stacks",
		},
		[]string{"stack"},
	)

	StaleEventsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_triage_stale_events_discarded_total",
			Help: "Scan or analysis events dropped because their session was replaced",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_filesystem_retry_attempts_total",
			Help: "Retries after stale NFS file handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_filesystem_retry_success_total",
			Help: "Operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_triage_filesystem_stale_errors_total",
			Help: "ESTALE errors seen",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_triage_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_triage_memory_usage_ratio",
			Help: "Heap usage as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_triage_memory_paused",
			Help: "Whether analysis dispatch is paused for memory (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_triage_memory_gc_pauses_total",
			Help: "Times analysis dispatch paused for memory pressure",
		},
	)
)
