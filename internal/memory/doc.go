// Package memory keeps analysis runs inside the container's memory budget.
//
// ConfigureFromEnv derives GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO so
// the garbage collector works harder before the kernel OOM killer steps in.
//
// Monitor samples heap usage. When usage crosses the critical water mark the
// analysis dispatcher stops starting new items (WaitIfPaused blocks) until
// usage falls below the high water mark. Items already in flight always run
// to completion.
package memory
