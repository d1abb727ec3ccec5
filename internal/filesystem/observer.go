package filesystem

import "sync/atomic"

// Observer records retry metrics for filesystem operations. The metrics
// package provides the implementation so this package stays free of the
// Prometheus import.
type Observer interface {
	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	ObserveRetryDuration(op, volume string, durationSeconds float64)
	ObserveStaleError(op, volume string)
}

type observerHolder struct{ Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver installs the package-level observer. Passing nil disables
// metric recording.
func SetObserver(o Observer) {
	if o == nil {
		defaultObserver.Store(nil)
		return
	}
	defaultObserver.Store(&observerHolder{o})
}

func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.Observer
	}
	return nil
}
