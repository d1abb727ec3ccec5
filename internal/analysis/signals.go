package analysis

import (
	"image"
	"math"
	"time"

	"github.com/disintegration/imaging"

	"photo-triage/internal/grouping"
)

// SharpnessReference is the Laplacian variance treated as fully sharp for a
// preview-sized image.
const SharpnessReference = 400.0

// Signals are the measurements taken from one photo.
type Signals struct {
	// Sharpness is the variance of the Laplacian over the grayscale preview.
	Sharpness float64
	// Exposure is 1 at mid-grey mean luminance, falling to 0 at black or white.
	Exposure float64
	// Contrast is the luminance standard deviation scaled to 0-1.
	Contrast float64

	// FaceCount is -1 when no subject detector ran.
	FaceCount int
	// EyesOpen is the open-eye ratio in 0-1, or -1 when unknown.
	EyesOpen float64
	FaceIDs  []string
	VIPLevel string

	// CaptureTime is the EXIF capture time, zero when unknown.
	CaptureTime time.Time
	// Rating is an embedded XMP star rating when HasRating is set.
	Rating    int
	HasRating bool

	Fingerprint grouping.Fingerprint
}

// UnknownSubjects returns Signals with the subject fields marked unknown.
func UnknownSubjects() Signals {
	return Signals{FaceCount: -1, EyesOpen: -1}
}

// Clone returns a deep copy.
func (s Signals) Clone() Signals {
	if s.FaceIDs != nil {
		s.FaceIDs = append([]string(nil), s.FaceIDs...)
	}
	s.Fingerprint = s.Fingerprint.Clone()
	return s
}

// Measure computes the pixel-derived signals of img.
func Measure(img image.Image) Signals {
	s := UnknownSubjects()

	gray := imaging.Grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return s
	}

	lum := make([]float64, w*h)
	var sum float64
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			v := float64(row[x*4])
			lum[y*w+x] = v
			sum += v
		}
	}
	mean := sum / float64(len(lum))

	var sq float64
	for _, v := range lum {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / float64(len(lum)))

	s.Exposure = 1 - math.Abs(mean/255-0.5)*2
	s.Contrast = math.Min(1, std/64)
	s.Sharpness = laplacianVariance(lum, w, h)
	return s
}

// laplacianVariance applies the 4-neighbour Laplacian kernel to the interior
// pixels and returns the variance of the response.
func laplacianVariance(lum []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}
	n := float64((w - 2) * (h - 2))
	var sum, sq float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			l := 4*lum[i] - lum[i-1] - lum[i+1] - lum[i-w] - lum[i+w]
			sum += l
			sq += l * l
		}
	}
	mean := sum / n
	return sq/n - mean*mean
}

// Score folds signals into a 0-100 quality value. Sharpness dominates;
// exposure and contrast refine it. When a subject detector reported open
// eyes they contribute a share as well.
func Score(s Signals) int {
	sharp := math.Min(1, s.Sharpness/SharpnessReference)
	base := 0.60*sharp + 0.25*s.Exposure + 0.15*s.Contrast
	if s.FaceCount > 0 && s.EyesOpen >= 0 {
		base = 0.85*base + 0.15*s.EyesOpen
	}
	score := int(math.Round(base * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
