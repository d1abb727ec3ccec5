// Package metrics provides Prometheus instrumentation for photo-triage.
//
// All metrics are prefixed with "photo_triage_" and registered through
// promauto at package init. InitializeMetrics pre-creates label
// combinations so dashboards do not show gaps before the first scan.
//
// Categories:
//   - HTTP and realtime surface: request counts, latency, websocket clients
//   - Database: decision persistence query counts and latency
//   - Scan: runs by outcome, files found, batches, skipped entries
//   - Analysis: items by outcome, per-item duration, in-flight, budget
//   - Preview cache: hits, misses, evictions, size, decode latency
//   - Session: records by status, burst groups, duplicates, journal depth
//   - Filesystem retries and memory backpressure
//
// Session gauges are refreshed by a Collector polling a StatsProvider,
// which the triage controller implements.
package metrics
