package media

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"photo-triage/internal/filesystem"
	"photo-triage/internal/logging"
	"photo-triage/internal/mediatypes"
)

// MaxImagePixels bounds full decodes done without libvips. Larger files are
// still decoded but logged, since a 50MP frame costs ~200MB in RGBA.
const MaxImagePixels = 20_000_000

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions reads the image header without decoding pixels.
func GetImageDimensions(path string, retry filesystem.RetryConfig) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}
	return &ImageDimensions{Width: config.Width, Height: config.Height}, nil
}

// decodeWithImaging opens path with the pure Go decoders, honoring the EXIF
// orientation tag.
func decodeWithImaging(path string, retry filesystem.RetryConfig) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if mediatypes.GetFileType(ext) == mediatypes.FileTypeRaw {
		return nil, fmt.Errorf("raw format %s requires libvips", ext)
	}

	if dims, err := GetImageDimensions(path, retry); err == nil && dims.Width*dims.Height > MaxImagePixels {
		logging.Debug("Decoding large image %s (%dx%d) without libvips", path, dims.Width, dims.Height)
	}

	file, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
