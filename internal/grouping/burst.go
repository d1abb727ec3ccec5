package grouping

import (
	"fmt"
	"sort"
	"time"
)

// DefaultBurstGap is the largest gap between consecutive shots of a burst.
const DefaultBurstGap = 500 * time.Millisecond

// Shot is the input to burst detection.
type Shot struct {
	Path  string
	Time  time.Time
	Score int
}

// Burst is a run of two or more shots taken in quick succession.
type Burst struct {
	ID      string
	Members []string // capture-time order
	Best    string
}

func captureOrder(shots []Shot) []Shot {
	ordered := append([]Shot(nil), shots...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Time.Equal(ordered[j].Time) {
			return ordered[i].Time.Before(ordered[j].Time)
		}
		return ordered[i].Path < ordered[j].Path
	})
	return ordered
}

// GroupBursts orders shots by capture time and chains consecutive shots whose
// gap is strictly below gap into bursts. Chaining is transitive, so the first
// and last member of a burst may be further apart than gap. Shots that chain
// to nothing are not part of any burst. Each burst nominates exactly one
// best shot: the highest score, ties going to the earliest capture.
func GroupBursts(shots []Shot, gap time.Duration) []Burst {
	if gap <= 0 || len(shots) < 2 {
		return nil
	}
	ordered := captureOrder(shots)

	var bursts []Burst
	flush := func(run []Shot) {
		if len(run) < 2 {
			return
		}
		b := Burst{
			ID:      fmt.Sprintf("burst-%04d", len(bursts)+1),
			Members: make([]string, len(run)),
		}
		best := run[0]
		for i, s := range run {
			b.Members[i] = s.Path
			// run is in capture order, so strict > keeps the earliest on ties
			if s.Score > best.Score {
				best = s
			}
		}
		b.Best = best.Path
		bursts = append(bursts, b)
	}

	start := 0
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Time.Sub(ordered[i-1].Time) >= gap {
			flush(ordered[start:i])
			start = i
		}
	}
	flush(ordered[start:])
	return bursts
}
