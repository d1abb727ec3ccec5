// Package analysis scores photos off the coordinating goroutine.
//
// An Analyzer turns one path into Signals. The default ImageAnalyzer decodes
// the cached preview and measures sharpness (variance of the Laplacian),
// exposure and contrast, and computes a perceptual fingerprint. Score folds
// the signals into a 0-100 quality value and Policy maps a score onto a
// keep or reject verdict.
//
// Pool runs an Analyzer over a list of paths under a fixed concurrency
// budget. Results are delivered in completion order on a single channel
// together with rate-limited progress and a final Summary. Cancelling a run
// stops new items from starting; items already started always finish and
// deliver their result.
package analysis
