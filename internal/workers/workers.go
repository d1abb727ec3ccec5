package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvBudget is the environment variable that overrides every budget.
const EnvBudget = "WORKER_BUDGET"

func envOverride() (int, bool) {
	if override := os.Getenv(EnvBudget); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return count, true
		}
	}
	return 0, false
}

// Count returns a worker count of multiplier workers per available CPU,
// capped at limit (0 means no cap) and never below 1.
func Count(multiplier float64, limit int) int {
	if count, ok := envOverride(); ok {
		if limit > 0 && count > limit {
			return limit
		}
		return count
	}

	// GOMAXPROCS follows the container CPU limit
	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// Budget resolves the analysis concurrency budget. A configured value of
// zero or less selects one worker per available CPU.
func Budget(configured int) int {
	if count, ok := envOverride(); ok {
		return count
	}
	if configured > 0 {
		return configured
	}
	return Count(1.0, 0)
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
