package grouping

import (
	"sort"
	"time"
)

// DefaultSensitivity is the similarity percentage at which two photos are
// flagged as near-duplicates.
const DefaultSensitivity = 95

// Candidate is the input to duplicate detection.
type Candidate struct {
	Path        string
	Group       string // burst ID, empty when standalone
	Score       int
	Time        time.Time
	Fingerprint Fingerprint
}

// Match flags Path as a near-duplicate of the preferred photo Of.
type Match struct {
	Path       string
	Of         string
	Similarity float64
}

// FindDuplicates compares fingerprints pairwise and returns one Match for
// every photo that is at least sensitivity percent similar to a preferred
// photo. With burstScoped set only members of the same burst are compared;
// otherwise every photo is compared with every other. Within each bucket the
// preferred photo is the highest score, then the earliest capture, and it is
// never itself flagged. The result is advisory and changes no status.
func FindDuplicates(candidates []Candidate, sensitivity int, burstScoped bool) []Match {
	buckets := make(map[string][]Candidate)
	var keys []string
	for _, c := range candidates {
		if c.Fingerprint.IsZero() {
			continue
		}
		key := ""
		if burstScoped {
			if c.Group == "" {
				continue
			}
			key = c.Group
		}
		if _, ok := buckets[key]; !ok {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], c)
	}
	sort.Strings(keys)

	threshold := float64(sensitivity)
	var matches []Match
	for _, key := range keys {
		bucket := buckets[key]
		sort.SliceStable(bucket, func(i, j int) bool {
			a, b := bucket[i], bucket[j]
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if !a.Time.Equal(b.Time) {
				return a.Time.Before(b.Time)
			}
			return a.Path < b.Path
		})

		var keepers []Candidate
		for _, c := range bucket {
			flagged := false
			for _, k := range keepers {
				if sim, ok := Similarity(c.Fingerprint, k.Fingerprint); ok && sim >= threshold {
					matches = append(matches, Match{Path: c.Path, Of: k.Path, Similarity: sim})
					flagged = true
					break
				}
			}
			if !flagged {
				keepers = append(keepers, c)
			}
		}
	}
	return matches
}
