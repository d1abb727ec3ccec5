package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"photo-triage/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Volume labels metrics for this operation. Empty means "photos".
	Volume string
}

// DefaultRetryConfig returns the defaults used for photo folders, which are
// frequently NFS or SMB mounts on a NAS.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c RetryConfig) volume() string {
	if c.Volume == "" {
		return "photos"
	}
	return c.Volume
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs op until it succeeds, fails with a non-ESTALE error or
// exhausts config.MaxRetries. Backoff doubles up to config.MaxBackoff.
func withRetry[T any](opName, path string, config RetryConfig, op func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.volume()
	obs := observe()
	backoff := config.InitialBackoff

	finish := func() {
		if obs != nil {
			obs.ObserveRetryDuration(opName, volume, time.Since(start).Seconds())
		}
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		v, err := op()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", opName, attempt, path)
				if obs != nil {
					obs.ObserveRetrySuccess(opName, volume)
				}
			}
			finish()
			return v, nil
		}
		lastErr = err

		if !isNFSStaleError(err) {
			finish()
			return zero, err
		}
		if obs != nil {
			obs.ObserveStaleError(opName, volume)
		}

		if attempt < config.MaxRetries {
			if obs != nil {
				obs.ObserveRetryAttempt(opName, volume)
			}
			logging.Debug("%s stale file handle for %s, retrying in %v (attempt %d/%d)",
				opName, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("%s failed after %d retries for %s: %v", opName, config.MaxRetries, path, lastErr)
	if obs != nil {
		obs.ObserveRetryFailure(opName, volume)
	}
	finish()
	return zero, lastErr
}

// StatWithRetry performs os.Stat, retrying stale NFS file handles.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry performs os.Open, retrying stale NFS file handles.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadFileWithRetry performs os.ReadFile, retrying stale NFS file handles.
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	return withRetry("read", path, config, func() ([]byte, error) {
		return os.ReadFile(path)
	})
}
