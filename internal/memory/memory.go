package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"photo-triage/internal/logging"
	"photo-triage/internal/metrics"
)

// Config holds memory backpressure configuration
type Config struct {
	// MemoryLimitBytes is the soft limit (0 = use GOMEMLIMIT, or disable)
	MemoryLimitBytes int64

	// HighWaterMark is the fraction of the limit below which a paused
	// dispatcher resumes (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the fraction at which new analysis starts pause
	CriticalWaterMark float64

	// CheckInterval is how often heap usage is sampled
	CheckInterval time.Duration
}

// DefaultConfig returns the defaults used by the analysis dispatcher.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     2 * time.Second,
	}
}

// Monitor samples heap usage and pauses analysis dispatch while decoded
// previews push the heap past the critical water mark. Items already in
// flight are never interrupted.
type Monitor struct {
	config    Config
	limit     int64
	readAlloc func() uint64

	stopOnce sync.Once
	stopChan chan struct{}

	mu        sync.RWMutex
	current   uint64
	isPaused  bool
	pauseChan chan struct{}
}

// NewMonitor creates a monitor. With no explicit or GOMEMLIMIT limit the
// monitor never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.MemoryLimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no limit configured, backpressure disabled")
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		readAlloc: heapAlloc,
		stopChan:  make(chan struct{}),
		pauseChan: make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins sampling in the background.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.monitorLoop()
}

// Stop ends sampling and releases any waiter. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkMemory()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) checkMemory() {
	alloc := m.readAlloc()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc
	if m.limit <= 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.config.CriticalWaterMark && !m.isPaused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing analysis dispatch", usage*100)
		m.isPaused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.isPaused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming analysis dispatch", usage*100)
		m.isPaused = false
		metrics.MemoryPaused.Set(0)
		close(m.pauseChan)
		m.pauseChan = make(chan struct{})
	}
}

// WaitIfPaused blocks while memory is critical. It returns false when ctx
// is cancelled or the monitor is stopped before dispatch may continue.
func (m *Monitor) WaitIfPaused(ctx context.Context) bool {
	m.mu.RLock()
	if !m.isPaused {
		m.mu.RUnlock()
		return ctx.Err() == nil
	}
	pauseChan := m.pauseChan
	m.mu.RUnlock()

	select {
	case <-pauseChan:
		return ctx.Err() == nil
	case <-ctx.Done():
		return false
	case <-m.stopChan:
		return false
	}
}

// IsPaused reports whether dispatch is currently paused.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// GetUsage returns the last sampled usage as a fraction of the limit, or 0
// when no limit is configured.
func (m *Monitor) GetUsage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}
