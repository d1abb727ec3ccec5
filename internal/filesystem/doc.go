/*
Package filesystem wraps os.Stat, os.Open and os.ReadFile with retry logic for
NFS stale file handle errors (ESTALE).

Photo folders are often network mounts. A scan or analysis run touching
thousands of files will occasionally hit a stale handle, and a short retry
with exponential backoff is enough to ride it out:

	info, err := filesystem.StatWithRetry(root, filesystem.DefaultRetryConfig())

Only ESTALE triggers retries. Every other error is returned immediately.
Defaults are 3 retries with backoff from 50ms doubling to a 500ms cap.

Metrics are recorded through an Observer installed with SetObserver; the
metrics package provides one.
*/
package filesystem
