package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvBudget, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{name: "CPU-bound", multiplier: 1.0, limit: 0, minExpect: 1, maxExpect: availableCPU},
		{name: "I/O-bound", multiplier: 2.0, limit: 0, minExpect: 1, maxExpect: availableCPU * 2},
		{name: "limit lower than calculated", multiplier: 2.0, limit: 2, minExpect: 1, maxExpect: 2},
		{name: "tiny multiplier still yields one", multiplier: 0.01, limit: 0, minExpect: 1, maxExpect: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected within [%d, %d]", tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		configured int
		expected   int
	}{
		{name: "configured value wins without override", env: "", configured: 3, expected: 3},
		{name: "zero selects CPU count", env: "", configured: 0, expected: runtime.GOMAXPROCS(0)},
		{name: "negative selects CPU count", env: "", configured: -2, expected: runtime.GOMAXPROCS(0)},
		{name: "env overrides configured", env: "7", configured: 3, expected: 7},
		{name: "invalid env ignored", env: "lots", configured: 5, expected: 5},
		{name: "non-positive env ignored", env: "0", configured: 5, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvBudget, tt.env)
			if got := Budget(tt.configured); got != tt.expected {
				t.Errorf("Budget(%d) with %s=%q = %d, expected %d", tt.configured, EnvBudget, tt.env, got, tt.expected)
			}
		})
	}
}

func TestForHelpersRespectOverride(t *testing.T) {
	t.Setenv(EnvBudget, "4")

	if got := ForCPU(0); got != 4 {
		t.Errorf("Expected ForCPU=4, got %d", got)
	}
	if got := ForIO(2); got != 2 {
		t.Errorf("Expected ForIO capped at 2, got %d", got)
	}
}
