package media

import (
	"bytes"
	"strconv"
	"time"

	"github.com/bep/imagemeta"
	"github.com/rwcarlsen/goexif/exif"

	"photo-triage/internal/filesystem"
	"photo-triage/internal/logging"
)

// CaptureTime returns the EXIF DateTimeOriginal of the photo at path.
// ok is false when the file has no usable EXIF date.
func CaptureTime(path string) (t time.Time, ok bool) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return time.Time{}, false
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		logging.Debug("No EXIF data for %s: %v", path, err)
		return time.Time{}, false
	}
	dt, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return dt, true
}

// EmbeddedRating returns the XMP star rating (0-5) written into the file by
// another photo tool. ok is false when there is none.
func EmbeddedRating(path string) (rating int, ok bool) {
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil || len(data) == 0 {
		return 0, false
	}
	return ratingFromBytes(data)
}

func ratingFromBytes(data []byte) (int, bool) {
	rating, found := 0, false
	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Source == imagemeta.XMP && ti.Tag == "Rating"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if v, ok := tagValueInt(ti.Value); ok && v >= 0 && v <= 5 {
				rating, found = v, true
			}
			return nil
		},
	})
	if err != nil {
		return 0, false
	}
	return rating, found
}

// tagValueInt extracts an integer from an XMP value, which may arrive as a
// string or any numeric type.
func tagValueInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case uint32:
		return int(val), true
	case float64:
		return int(val), true
	case string:
		n, err := strconv.Atoi(val)
		return n, err == nil
	case []string:
		if len(val) > 0 {
			n, err := strconv.Atoi(val[0])
			return n, err == nil
		}
	}
	return 0, false
}
