package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"photo-triage/internal/logging"
)

var (
	vipsInitMutex sync.Mutex
	vipsAvailable bool
)

// vipsLogSettings maps the application level onto libvips so library chatter
// follows LOG_LEVEL.
func vipsLogSettings() (func(string, vips.LogLevel, string), vips.LogLevel) {
	var threshold vips.LogLevel
	switch logging.GetLevel() {
	case logging.LevelDebug:
		threshold = vips.LogLevelInfo
	case logging.LevelInfo:
		threshold = vips.LogLevelWarning
	case logging.LevelWarn:
		threshold = vips.LogLevelError
	default:
		threshold = vips.LogLevelCritical
	}

	handler := func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}
	return handler, threshold
}

// InitVips starts libvips. Call once at startup when USE_VIPS is set.
func InitVips(concurrency int) {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsAvailable {
		return
	}

	vips.LoggingSettings(vipsLogSettings())
	vips.Startup(&vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// LoadImageWithVips decodes path with libvips, shrinking to fit size x size
// during decode.
func LoadImageWithVips(path string, size int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		logging.Debug("vips auto-rotate failed for %s: %v", filepath.Base(path), err)
	}
	if err := ref.Thumbnail(size, size, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        92,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
