// Package grouping contains the pure algorithms that put each photo in
// context: burst detection over capture times and near-duplicate detection
// over perceptual fingerprints.
//
// Both functions are recomputed from scratch over the full record set on
// every call. They hold no state between runs, so changing the burst gap or
// duplicate sensitivity never leaves stale assignments behind.
package grouping
