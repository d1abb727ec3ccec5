package metrics

import (
	"time"

	"photo-triage/internal/logging"
)

// StatsProvider reports a snapshot of the current triage session.
type StatsProvider interface {
	SessionStats() Stats
}

// Stats holds session-level gauges.
type Stats struct {
	Pending     int
	Keep        int
	Reject      int
	BurstGroups int
	Duplicates  int
	UndoDepth   int
	RedoDepth   int
	CacheSize   int
}

// Collector periodically copies session stats into gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a collector polling provider every interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop ends the collection loop.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.SessionStats()

	RecordsByStatus.WithLabelValues("pending").Set(float64(stats.Pending))
	RecordsByStatus.WithLabelValues("keep").Set(float64(stats.Keep))
	RecordsByStatus.WithLabelValues("reject").Set(float64(stats.Reject))
	BurstGroups.Set(float64(stats.BurstGroups))
	DuplicatesFlagged.Set(float64(stats.Duplicates))
	JournalDepth.WithLabelValues("undo").Set(float64(stats.UndoDepth))
	JournalDepth.WithLabelValues("redo").Set(float64(stats.RedoDepth))
	CacheEntries.Set(float64(stats.CacheSize))

	logging.Debug("Session stats: pending=%d keep=%d reject=%d bursts=%d duplicates=%d",
		stats.Pending, stats.Keep, stats.Reject, stats.BurstGroups, stats.Duplicates)
}
