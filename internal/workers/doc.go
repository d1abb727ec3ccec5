/*
Package workers sizes the concurrency budgets used by photo-triage.

GOMAXPROCS is used instead of runtime.NumCPU so container CPU limits are
respected: a pod limited to 2 CPUs on a 64-core node gets a budget of 2.

# Analysis budget

Budget resolves the analysis worker budget from the configured value:

	budget := workers.Budget(cfg.WorkerBudget) // 0 means one per CPU

The WORKER_BUDGET environment variable overrides both the configured value
and the CPU count, which is useful when the host is shared with other
decode-heavy services.

# Workload helpers

ForCPU and ForIO remain for callers that size auxiliary pools, such as the
preview warmers, by workload type rather than by configuration.
*/
package workers
