package analysis

import (
	"context"
	"fmt"
	"image"
	"time"

	"photo-triage/internal/grouping"
	"photo-triage/internal/media"
)

// Analyzer measures a single photo. Implementations must be safe for
// concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (Signals, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, path string) (Signals, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, path string) (Signals, error) {
	return f(ctx, path)
}

// Subjects is what a SubjectDetector reports about the people in a frame.
type Subjects struct {
	FaceCount int
	EyesOpen  float64
	FaceIDs   []string
	VIPLevel  string
}

// SubjectDetector finds faces in a preview. No detector ships with
// photo-triage; one can be plugged in to feed the eyes-open signal and the
// face filters.
type SubjectDetector interface {
	Detect(ctx context.Context, img image.Image) (Subjects, error)
}

// PreviewSource supplies decoded previews, normally a *media.Loader.
type PreviewSource interface {
	Preview(path string) (image.Image, error)
}

// ImageAnalyzerConfig configures an ImageAnalyzer
type ImageAnalyzerConfig struct {
	Detector SubjectDetector
	// ReadCaptureTime reads EXIF DateTimeOriginal into Signals.CaptureTime
	ReadCaptureTime bool
	// ReadRating reads an embedded XMP star rating
	ReadRating bool
}

// ImageAnalyzer is the default Analyzer.
type ImageAnalyzer struct {
	previews PreviewSource
	config   ImageAnalyzerConfig

	captureTime func(path string) (time.Time, bool)
	rating      func(path string) (int, bool)
}

// NewImageAnalyzer returns an analyzer reading previews from previews.
func NewImageAnalyzer(previews PreviewSource, config ImageAnalyzerConfig) *ImageAnalyzer {
	return &ImageAnalyzer{
		previews:    previews,
		config:      config,
		captureTime: media.CaptureTime,
		rating:      media.EmbeddedRating,
	}
}

// Analyze decodes the preview of path and measures it.
func (a *ImageAnalyzer) Analyze(ctx context.Context, path string) (Signals, error) {
	img, err := a.previews.Preview(path)
	if err != nil {
		return Signals{}, fmt.Errorf("preview %s: %w", path, err)
	}

	s := Measure(img)

	if fp, err := grouping.FingerprintImage(img); err == nil {
		s.Fingerprint = fp
	} else {
		log.Debug("No fingerprint for %s: %v", path, err)
	}

	if a.config.Detector != nil {
		subjects, err := a.config.Detector.Detect(ctx, img)
		if err != nil {
			log.Warn("Subject detection failed for %s: %v", path, err)
		} else {
			s.FaceCount = subjects.FaceCount
			s.EyesOpen = subjects.EyesOpen
			s.FaceIDs = subjects.FaceIDs
			s.VIPLevel = subjects.VIPLevel
		}
	}

	if a.config.ReadCaptureTime {
		if t, ok := a.captureTime(path); ok {
			s.CaptureTime = t
		}
	}
	if a.config.ReadRating {
		s.Rating, s.HasRating = a.rating(path)
	}
	return s, nil
}
