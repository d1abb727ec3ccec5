// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded by [LoadConfig] from an optional YAML options file
// named by TRIAGE_CONFIG, then from environment variables, which win. A .env
// file in the working directory is loaded by main before LoadConfig runs.
//
//   - PORT: HTTP server port (default: 8080)
//   - DATABASE_DIR: directory holding triage.db (default: ./data)
//   - TRIAGE_CONFIG: YAML file with triage options (keys as in triage.Options)
//   - KEEP_THRESHOLD: score at or above which a frame is kept (default: 45)
//   - BURST_GAP_SECONDS: largest gap inside a burst (default: 0.5)
//   - BURST_TIME_SOURCE: mtime or exif (default: mtime)
//   - DUPLICATE_SENSITIVITY: 80-100 (default: 95)
//   - ENABLE_BURST_GROUPING: (default: true)
//   - ENABLE_DUPLICATE_DETECTION: (default: false)
//   - DUPLICATES_WITHIN_BURSTS: compare only burst members (default: true)
//   - REQUIRE_FACES: reject frames without faces (default: false)
//   - CACHE_CAPACITY: preview cache entries (default: 1500)
//   - WORKER_BUDGET: analysis concurrency, 0 for one per CPU (default: 0)
//   - SCAN_BATCH_SIZE: paths per scan batch (default: 50)
//   - SCAN_RECURSIVE: include subfolders (default: false)
//   - PREVIEW_SIZE: preview edge in pixels (default: 512)
//   - USE_VIPS: decode through libvips (default: false)
//   - METRICS_ENABLED: expose /metrics (default: true)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log /healthz requests (default: false)
//   - WS_ALLOWED_ORIGINS: comma-separated origins allowed on /ws besides
//     the server's own (default: none)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// Triage options are validated once, before any component starts, and an
// out-of-range value is returned as a *triage.RefusalError.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
