package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu       sync.Mutex
	attempts int
	success  int
	failures int
	stale    int
	volumes  []string
}

func (r *recordingObserver) ObserveRetryAttempt(op, volume string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
}

func (r *recordingObserver) ObserveRetrySuccess(op, volume string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success++
}

func (r *recordingObserver) ObserveRetryFailure(op, volume string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *recordingObserver) ObserveRetryDuration(op, volume string, durationSeconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volumes = append(r.volumes, volume)
}

func (r *recordingObserver) ObserveStaleError(op, volume string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale++
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.volume() != "photos" {
		t.Errorf("Expected default volume label photos, got %q", config.volume())
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE error", err: syscall.ESTALE, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT error", err: syscall.ENOENT, want: false},
		{name: "generic error", err: os.ErrNotExist, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// Not parallel: installs the package-level observer.
func TestWithRetry(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		failWith     error
		wantErr      bool
		wantCalls    int
		wantAttempts int
		wantSuccess  int
		wantFailures int
	}{
		{name: "first try succeeds", failures: 0, wantCalls: 1},
		{name: "recovers after stale handles", failures: 2, failWith: syscall.ESTALE, wantCalls: 3, wantAttempts: 2, wantSuccess: 1},
		{name: "gives up after max retries", failures: 10, failWith: syscall.ESTALE, wantErr: true, wantCalls: 4, wantAttempts: 3, wantFailures: 1},
		{name: "non-stale error is not retried", failures: 10, failWith: syscall.EACCES, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			SetObserver(obs)
			defer SetObserver(nil)

			calls := 0
			v, err := withRetry("stat", "/photos/a.jpg", fastRetry(), func() (int, error) {
				calls++
				if calls <= tt.failures {
					return 0, tt.failWith
				}
				return 42, nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if err == nil && v != 42 {
				t.Errorf("Expected value 42, got %d", v)
			}
			if calls != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, calls)
			}
			if obs.attempts != tt.wantAttempts {
				t.Errorf("Expected %d retry attempts, got %d", tt.wantAttempts, obs.attempts)
			}
			if obs.success != tt.wantSuccess {
				t.Errorf("Expected %d retry successes, got %d", tt.wantSuccess, obs.success)
			}
			if obs.failures != tt.wantFailures {
				t.Errorf("Expected %d retry failures, got %d", tt.wantFailures, obs.failures)
			}
			if len(obs.volumes) != 1 || obs.volumes[0] != "photos" {
				t.Errorf("Expected one duration observation for photos, got %v", obs.volumes)
			}
		})
	}
}

func TestStatOpenReadWithRetry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "frame.jpg")
	if err := os.WriteFile(path, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	info, err := StatWithRetry(path, fastRetry())
	if err != nil {
		t.Fatalf("StatWithRetry failed: %v", err)
	}
	if info.Size() != int64(len("jpeg-bytes")) {
		t.Errorf("Expected size %d, got %d", len("jpeg-bytes"), info.Size())
	}

	f, err := OpenWithRetry(path, fastRetry())
	if err != nil {
		t.Fatalf("OpenWithRetry failed: %v", err)
	}
	f.Close()

	data, err := ReadFileWithRetry(path, fastRetry())
	if err != nil {
		t.Fatalf("ReadFileWithRetry failed: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("Expected file contents, got %q", data)
	}

	if _, err := StatWithRetry(filepath.Join(dir, "missing.jpg"), fastRetry()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNotExist for missing file, got %v", err)
	}
}
