// Package logging provides the leveled logger used across photo-triage.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR. FATAL always prints and
// terminates the process.
//
// The level is read once from DEBUG (any truthy value selects debug) or
// LOG_LEVEL. SetLevel overrides it, which the options file and tests use.
// Named returns a Logger that prefixes every message with a component name
// so scanner, analysis and controller output can be told apart.
package logging
