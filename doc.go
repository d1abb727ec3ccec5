// Package main provides the entry point for the photo-triage server.
//
// Photo triage helps a curator sort a folder of photos into keep and reject
// piles. Every photo is scored for sharpness, exposure and subjects, photos
// shot in quick succession are grouped into bursts with one best shot each,
// and near-identical photos are tagged as duplicates. The curator then
// reviews the automated verdicts, overrides them, and undoes mistakes.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or cgroup limits
//  2. Configuration Loading: Reads the options file and environment variables
//  3. Database Initialization: Opens the SQLite decision store
//  4. Component Initialization:
//     - Preview cache and loader (libvips when enabled, imaging otherwise)
//     - Image analyzer and memory monitor for analysis backpressure
//     - Event hub streaming session events over a websocket
//     - Triage controller owning the session
//     - Metrics collector
//  5. HTTP Server Setup: Registers routes and middleware, starts the server
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM and saves pending decisions
//
// A folder passed as the first argument is loaded at startup. Without one,
// the folder loaded before the last restart is resumed when it still exists.
//
// # Environment Variables
//
// See [photo-triage/internal/startup] for the full list. The most common:
//
//   - PORT: HTTP server port (default: 8080)
//   - DATABASE_DIR: Directory for the decision database (default: ./data)
//   - TRIAGE_CONFIG: YAML options file
//   - KEEP_THRESHOLD: Minimum score kept automatically (default: 45)
//   - WORKER_BUDGET: Concurrent analyses (default: number of CPUs)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//
// # Graceful Shutdown
//
//  1. Stop accepting new HTTP requests
//  2. Stop the metrics collector
//  3. Close the triage session, cancelling work and saving pending decisions
//  4. Stop the event hub, disconnecting clients
//  5. Stop the memory monitor
//  6. Close the database
//
// # Related Packages
//
//   - [photo-triage/internal/triage]: Session controller
//   - [photo-triage/internal/analysis]: Scoring and the analysis worker pool
//   - [photo-triage/internal/grouping]: Burst grouping and duplicate detection
//   - [photo-triage/internal/database]: Decision persistence
//   - [photo-triage/internal/handlers]: HTTP API
//   - [photo-triage/internal/realtime]: Websocket event stream
package main
