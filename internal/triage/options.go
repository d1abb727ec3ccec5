package triage

import (
	"math"
	"strings"
	"time"

	"photo-triage/internal/analysis"
	"photo-triage/internal/grouping"
	"photo-triage/internal/thumbcache"
)

// Burst time sources.
const (
	TimeSourceModTime = "mtime"
	TimeSourceEXIF    = "exif"
)

// Option limits.
const (
	MinSensitivity  = 80
	MaxSensitivity  = 100
	MaxBurstGapSecs = 10.0
)

// Options are the curator-facing triage settings.
type Options struct {
	KeepThreshold            int     `yaml:"keepThreshold" json:"keepThreshold"`
	BurstGapSeconds          float64 `yaml:"burstGapSeconds" json:"burstGapSeconds"`
	DuplicateSensitivity     int     `yaml:"duplicateSensitivity" json:"duplicateSensitivity"`
	EnableBurstGrouping      bool    `yaml:"enableBurstGrouping" json:"enableBurstGrouping"`
	EnableDuplicateDetection bool    `yaml:"enableDuplicateDetection" json:"enableDuplicateDetection"`
	// DuplicatesWithinBursts limits duplicate comparison to burst members
	// when burst grouping is on.
	DuplicatesWithinBursts bool `yaml:"duplicatesWithinBursts" json:"duplicatesWithinBursts"`
	CacheCapacity          int  `yaml:"cacheCapacity" json:"cacheCapacity"`
	// WorkerBudget is the analysis concurrency; 0 means one per CPU.
	WorkerBudget int `yaml:"workerBudget" json:"workerBudget"`
	// BurstTimeSource selects the burst clock: file modification time or
	// EXIF capture time.
	BurstTimeSource string `yaml:"burstTimeSource" json:"burstTimeSource"`
	// RequireFaces rejects frames where a subject detector found nobody.
	RequireFaces bool `yaml:"requireFaces" json:"requireFaces"`
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		KeepThreshold:          analysis.DefaultKeepThreshold,
		BurstGapSeconds:        grouping.DefaultBurstGap.Seconds(),
		DuplicateSensitivity:   grouping.DefaultSensitivity,
		EnableBurstGrouping:    true,
		DuplicatesWithinBursts: true,
		CacheCapacity:          thumbcache.DefaultCapacity,
		BurstTimeSource:        TimeSourceModTime,
	}
}

// Validate checks every option and returns a *RefusalError for the first
// one out of range.
func (o Options) Validate() error {
	const op = "configure"
	switch {
	case o.KeepThreshold < 0 || o.KeepThreshold > 100:
		return invalidOption(op, "keepThreshold", "%d is outside 0-100", o.KeepThreshold)
	case math.IsNaN(o.BurstGapSeconds) || o.BurstGapSeconds <= 0 || o.BurstGapSeconds > MaxBurstGapSecs:
		return invalidOption(op, "burstGapSeconds", "%g must be above 0 and at most %g", o.BurstGapSeconds, MaxBurstGapSecs)
	case o.DuplicateSensitivity < MinSensitivity || o.DuplicateSensitivity > MaxSensitivity:
		return invalidOption(op, "duplicateSensitivity", "%d is outside %d-%d", o.DuplicateSensitivity, MinSensitivity, MaxSensitivity)
	case o.CacheCapacity < 1:
		return invalidOption(op, "cacheCapacity", "%d must be at least 1", o.CacheCapacity)
	case o.WorkerBudget < 0:
		return invalidOption(op, "workerBudget", "%d must not be negative", o.WorkerBudget)
	}
	switch strings.ToLower(o.BurstTimeSource) {
	case "", TimeSourceModTime, TimeSourceEXIF:
	default:
		return invalidOption(op, "burstTimeSource", "%q is not %s or %s", o.BurstTimeSource, TimeSourceModTime, TimeSourceEXIF)
	}
	return nil
}

// BurstGap returns BurstGapSeconds as a duration.
func (o Options) BurstGap() time.Duration {
	return time.Duration(o.BurstGapSeconds * float64(time.Second))
}

// Policy returns the decision policy for these options.
func (o Options) Policy() analysis.Policy {
	return analysis.Policy{KeepThreshold: o.KeepThreshold, RequireFaces: o.RequireFaces}
}

// UseEXIFTime reports whether bursts use EXIF capture time.
func (o Options) UseEXIFTime() bool {
	return strings.EqualFold(o.BurstTimeSource, TimeSourceEXIF)
}

// groupingChanged reports whether moving from o to n requires a regroup.
func (o Options) groupingChanged(n Options) bool {
	return o.BurstGapSeconds != n.BurstGapSeconds ||
		o.DuplicateSensitivity != n.DuplicateSensitivity ||
		o.EnableBurstGrouping != n.EnableBurstGrouping ||
		o.EnableDuplicateDetection != n.EnableDuplicateDetection ||
		o.DuplicatesWithinBursts != n.DuplicatesWithinBursts ||
		o.UseEXIFTime() != n.UseEXIFTime()
}
