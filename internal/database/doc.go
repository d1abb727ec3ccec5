// Package database provides SQLite storage for curator decisions.
//
// Only the durable subset of a triage record is stored: path, status,
// rating and color. Everything else (scores, tags, burst and duplicate
// assignments) is recomputed when a folder is analysed again.
//
// The database uses WAL mode so the status CLI can read while the server
// writes, and the schema is created on open.
package database
