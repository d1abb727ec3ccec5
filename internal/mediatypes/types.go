package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the kind of file found during a scan.
type FileType string

const (
	// FileTypeImage is a raster image the preview pipeline decodes directly.
	FileTypeImage FileType = "image"
	// FileTypeRaw is a camera raw file. Only libvips can render it.
	FileTypeRaw FileType = "raw"
	// FileTypeOther is anything the triage pipeline ignores.
	FileTypeOther FileType = "other"
)

// SortField specifies the order of the visible record list.
type SortField string

const (
	// SortByInsertion keeps scan order.
	SortByInsertion SortField = "insertion"
	// SortByName sorts by file name in natural order.
	SortByName SortField = "name"
	// SortByDate sorts by capture time, oldest first.
	SortByDate SortField = "date"
	// SortByScore sorts by analysis score, best first.
	SortByScore SortField = "score"
)

// ParseSortField returns the SortField for s, or false if unknown.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(strings.ToLower(s)); f {
	case SortByInsertion, SortByName, SortByDate, SortByScore:
		return f, true
	case "":
		return SortByInsertion, true
	}
	return "", false
}

// ImageExtensions lists raster formats decoded by the preview loader.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// RawExtensions lists camera raw formats.
var RawExtensions = map[string]bool{
	".raw": true,
	".arw": true,
	".cr2": true,
	".nef": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".arw":  "image/x-sony-arw",
	".cr2":  "image/x-canon-cr2",
	".nef":  "image/x-nikon-nef",
}

// GetFileType returns the FileType for a lowercase extension with its
// leading dot (e.g. ".jpg").
func GetFileType(ext string) FileType {
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if RawExtensions[ext] {
		return FileTypeRaw
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for ext, or application/octet-stream.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsPhoto reports whether the file at path is a candidate for triage.
// The extension match is case-insensitive.
func IsPhoto(path string) bool {
	return GetFileType(strings.ToLower(filepath.Ext(path))) != FileTypeOther
}
