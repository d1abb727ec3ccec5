package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	"photo-triage/internal/filesystem"
	"photo-triage/internal/logging"
	"photo-triage/internal/metrics"
	"photo-triage/internal/thumbcache"
)

// DefaultPreviewSize is the longest edge of a cached preview in pixels.
const DefaultPreviewSize = 512

// Loader produces previews through the shared cache.
type Loader struct {
	cache  *thumbcache.Cache
	size   int
	retry  filesystem.RetryConfig
	flight singleflight.Group
}

// NewLoader returns a loader fitting previews into size x size. A
// non-positive size selects DefaultPreviewSize.
func NewLoader(cache *thumbcache.Cache, size int) *Loader {
	if size <= 0 {
		size = DefaultPreviewSize
	}
	return &Loader{
		cache: cache,
		size:  size,
		retry: filesystem.DefaultRetryConfig(),
	}
}

// Size returns the preview edge length.
func (l *Loader) Size() int {
	return l.size
}

// Preview returns the cached preview for path, decoding it on a miss.
func (l *Loader) Preview(path string) (image.Image, error) {
	if img, ok := l.cache.Get(path); ok {
		return img, nil
	}

	v, err, _ := l.flight.Do(path, func() (interface{}, error) {
		img, err := l.decode(path)
		if err != nil {
			return nil, err
		}
		l.cache.Insert(path, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (l *Loader) decode(path string) (image.Image, error) {
	start := time.Now()

	if IsVipsAvailable() {
		img, err := LoadImageWithVips(path, l.size)
		if err == nil {
			metrics.PreviewDecodeDuration.WithLabelValues("vips").Observe(time.Since(start).Seconds())
			return img, nil
		}
		logging.Debug("vips decode failed for %s, falling back: %v", path, err)
		start = time.Now()
	}

	img, err := decodeWithImaging(path, l.retry)
	if err != nil {
		return nil, err
	}
	preview := imaging.Fit(img, l.size, l.size, imaging.Lanczos)
	metrics.PreviewDecodeDuration.WithLabelValues("imaging").Observe(time.Since(start).Seconds())
	return preview, nil
}

// PreviewJPEG returns the preview for path encoded as JPEG.
func (l *Loader) PreviewJPEG(path string, quality int) ([]byte, error) {
	img, err := l.Preview(path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
